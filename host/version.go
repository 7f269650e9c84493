package host

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/reglet-dev/capability-arbiter/capability"
)

// DefaultRuntimeModelConstraint matches platform versions that grant
// capabilities at runtime rather than at install time.
const DefaultRuntimeModelConstraint = ">= 6.0.0"

// RuntimeModelGate decides whether a platform version predates runtime capabilities.
type RuntimeModelGate struct {
	constraint *semver.Constraints
	raw        string
}

// NewRuntimeModelGate parses a semver constraint. An empty constraint uses
// DefaultRuntimeModelConstraint.
func NewRuntimeModelGate(constraint string) (*RuntimeModelGate, error) {
	if constraint == "" {
		constraint = DefaultRuntimeModelConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("invalid runtime model constraint %q: %w", constraint, err)
	}
	return &RuntimeModelGate{constraint: c, raw: constraint}, nil
}

// Predates reports whether version falls outside the runtime model constraint.
func (g *RuntimeModelGate) Predates(version string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid platform version %q: %w", version, err)
	}
	return !g.constraint.Check(v), nil
}

// String returns the constraint as given.
func (g *RuntimeModelGate) String() string {
	return g.raw
}

// Queries is the part of a Platform that inspects grant state.
type Queries interface {
	IsGranted(c capability.Capability) bool
	ShouldExplain(c capability.Capability) bool
}

// VersionedPlatform is a Platform whose legacy status comes from its version.
type VersionedPlatform struct {
	Queries
	version  string
	predates bool
}

// NewVersionedPlatform evaluates version against gate once and wraps q.
func NewVersionedPlatform(q Queries, version string, gate *RuntimeModelGate) (*VersionedPlatform, error) {
	predates, err := gate.Predates(version)
	if err != nil {
		return nil, err
	}
	return &VersionedPlatform{Queries: q, version: version, predates: predates}, nil
}

func (p *VersionedPlatform) PredatesRuntimeModel() bool {
	return p.predates
}

// Version returns the platform version.
func (p *VersionedPlatform) Version() string {
	return p.version
}
