package grantstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/capability-arbiter/capability"
	"github.com/reglet-dev/capability-arbiter/capability/grantstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grants.yaml")
	store := grantstore.NewFileStore(grantstore.WithPath(path))
	assert.Equal(t, path, store.ConfigPath())

	state := capability.NewGrantState()
	state.Record("camera", capability.AnswerAlways)
	state.Record("location", capability.AnswerDeny)
	state.Record("contacts", capability.AnswerNever)

	require.NoError(t, store.Save(state))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, state.Entries, loaded.Entries)

	camera, ok := loaded.Get("camera")
	require.True(t, ok)
	assert.True(t, camera.Granted)

	contacts, ok := loaded.Get("contacts")
	require.True(t, ok)
	assert.True(t, contacts.NeverAsk)
	assert.Equal(t, 1, contacts.Denials)
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := grantstore.NewFileStore(grantstore.WithPath(filepath.Join(t.TempDir(), "missing.yaml")))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Entries)
	assert.NotNil(t, state.Entries)
}

func TestFileStore_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capabilities: [not, a, map"), 0o600))

	_, err := grantstore.NewFileStore(grantstore.WithPath(path)).Load()
	assert.ErrorContains(t, err, "failed to parse grant store")
}

func TestFileStore_WithMode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "device")
	path := filepath.Join(dir, "grants.yaml")
	store := grantstore.NewFileStore(
		grantstore.WithPath(path),
		grantstore.WithMode(0o640, 0o700),
	)

	require.NoError(t, store.Save(nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestFileStore_SaveReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grants.yaml")
	store := grantstore.NewFileStore(grantstore.WithPath(path))

	first := capability.NewGrantState()
	first.Record("camera", capability.AnswerAlways)
	require.NoError(t, store.Save(first))

	second := capability.NewGrantState()
	second.Record("location", capability.AnswerNever)
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []capability.Capability{"location"}, loaded.Capabilities())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "grants.yaml", entries[0].Name())
}

func TestFileStore_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.yaml")
	store := grantstore.NewFileStore(grantstore.WithPath(path))

	state := capability.NewGrantState()
	state.Record("camera", capability.AnswerAlways)
	require.NoError(t, store.Save(state))

	require.NoError(t, store.Reset())
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.Entries)

	assert.NoError(t, store.Reset(), "resetting an empty store is fine")
}

func TestFileStore_DefaultPath(t *testing.T) {
	store := grantstore.NewFileStore(grantstore.WithPath(""))
	assert.Equal(t, grantstore.DefaultPath(), store.ConfigPath())
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".capability-arbiter", "grants.yaml"), store.ConfigPath())
}
