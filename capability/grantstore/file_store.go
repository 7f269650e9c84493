// Package grantstore keeps the emulated platform's grant database on disk.
package grantstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reglet-dev/capability-arbiter/capability"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns the grant database location used when none is configured.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".capability-arbiter", "grants.yaml")
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithPath places the grant database at path. An empty path keeps DefaultPath.
func WithPath(path string) Option {
	return func(s *FileStore) {
		if path != "" {
			s.path = path
		}
	}
}

// WithMode sets the permissions of the database file and of directories
// created for it.
func WithMode(file, dir os.FileMode) Option {
	return func(s *FileStore) {
		s.fileMode = file
		s.dirMode = dir
	}
}

// FileStore is a capability.GrantStore backed by one YAML document.
// Saves replace the document atomically, so a reader never sees half a database.
type FileStore struct {
	path     string
	fileMode os.FileMode
	dirMode  os.FileMode
}

var _ capability.GrantStore = (*FileStore)(nil)

// NewFileStore creates a store at DefaultPath unless WithPath says otherwise.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{
		path:     DefaultPath(),
		fileMode: 0o600,
		dirMode:  0o755,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the grant database. A device that never stored a decision has
// no file, which is an empty database.
func (s *FileStore) Load() (*capability.GrantState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return capability.NewGrantState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read grant store: %w", err)
	}

	state := capability.NewGrantState()
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse grant store %q: %w", s.path, err)
	}
	if state.Entries == nil {
		state.Entries = make(map[capability.Capability]capability.GrantEntry)
	}
	return state, nil
}

// Save writes state next to the database and renames it into place.
func (s *FileStore) Save(state *capability.GrantState) error {
	data, err := yaml.Marshal(state.Clone())
	if err != nil {
		return fmt.Errorf("failed to encode grants: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("failed to create grant store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".grants-*")
	if err != nil {
		return fmt.Errorf("failed to stage grant store: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write grant store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write grant store: %w", err)
	}
	if err := os.Chmod(tmp.Name(), s.fileMode); err != nil {
		return fmt.Errorf("failed to set grant store mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace grant store: %w", err)
	}
	return nil
}

// Reset forgets every stored decision, as revoking all grants in the
// platform settings does.
func (s *FileStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to reset grant store: %w", err)
	}
	return nil
}

// ConfigPath returns the database location.
func (s *FileStore) ConfigPath() string {
	return s.path
}
