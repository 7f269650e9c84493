// Package host provides the container variants a capability check runs in.
//
// A TopLevel host is a screen that owns the platform connection. An Embedded
// host is a sub-view inside a TopLevel screen: it answers capability queries
// through its parent's platform but shows prompts through its own view, so the
// prompt outcome arrives at the sub-view's result hook.
package host

import (
	"context"
	"errors"

	"github.com/reglet-dev/capability-arbiter/arbiter"
	"github.com/reglet-dev/capability-arbiter/capability"
)

// ErrNoResolver is returned by OnCapabilityResult when no resolver is configured.
var ErrNoResolver = errors.New("host: no resolver configured")

// Kind identifies the container variant.
type Kind int

const (
	KindTopLevel Kind = iota
	KindEmbedded
)

func (k Kind) String() string {
	if k == KindEmbedded {
		return "embedded"
	}
	return "top_level"
}

// Platform answers capability queries for the running operating system.
type Platform interface {
	IsGranted(c capability.Capability) bool
	ShouldExplain(c capability.Capability) bool
	PredatesRuntimeModel() bool
}

// Container is a screen or sub-view that can show the platform prompt.
type Container interface {
	RequestCapabilities(caps []capability.Capability, token int) error
}

// ContainerFunc adapts a function to a Container.
type ContainerFunc func(caps []capability.Capability, token int) error

// RequestCapabilities implements Container.
func (f ContainerFunc) RequestCapabilities(caps []capability.Capability, token int) error {
	return f(caps, token)
}

// Resolver accepts prompt outcomes. *arbiter.Arbiter implements it.
type Resolver interface {
	DeliverResult(ctx context.Context, token int, caps []capability.Capability, grants []bool) (arbiter.Report, error)
}

// Host is a capability.Host that knows which container variant it is.
type Host interface {
	capability.Host
	Kind() Kind
	Name() string
	OnCapabilityResult(ctx context.Context, token int, caps []string, grants []bool) (arbiter.Report, error)
}

// Ensure implementations satisfy the interface.
var (
	_ Host = (*TopLevel)(nil)
	_ Host = (*Embedded)(nil)
)

// TopLevel is a screen with direct access to the platform.
type TopLevel struct {
	platform Platform
	screen   Container
	cfg      config
}

// NewTopLevel creates a top-level host.
func NewTopLevel(platform Platform, screen Container, opts ...Option) *TopLevel {
	cfg := config{name: "screen"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TopLevel{platform: platform, screen: screen, cfg: cfg}
}

func (t *TopLevel) Kind() Kind   { return KindTopLevel }
func (t *TopLevel) Name() string { return t.cfg.name }

func (t *TopLevel) IsGranted(c capability.Capability) bool {
	return t.platform.IsGranted(c)
}

func (t *TopLevel) ShouldExplain(c capability.Capability) bool {
	return t.platform.ShouldExplain(c)
}

func (t *TopLevel) PredatesRuntimeModel() bool {
	return t.platform.PredatesRuntimeModel()
}

func (t *TopLevel) RequestCapabilities(caps []capability.Capability, token int) error {
	return t.screen.RequestCapabilities(caps, token)
}

// OnCapabilityResult forwards the screen's permission result hook to the resolver.
func (t *TopLevel) OnCapabilityResult(ctx context.Context, token int, caps []string, grants []bool) (arbiter.Report, error) {
	return forward(ctx, t.cfg.resolver, token, caps, grants)
}

// Embedded is a sub-view hosted inside a TopLevel screen.
type Embedded struct {
	parent *TopLevel
	view   Container
	cfg    config
}

// NewEmbedded creates a sub-view host. The resolver defaults to the parent's.
func NewEmbedded(parent *TopLevel, view Container, opts ...Option) *Embedded {
	cfg := config{name: parent.cfg.name + "/view", resolver: parent.cfg.resolver}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Embedded{parent: parent, view: view, cfg: cfg}
}

func (e *Embedded) Kind() Kind   { return KindEmbedded }
func (e *Embedded) Name() string { return e.cfg.name }

// Parent returns the screen the view is embedded in.
func (e *Embedded) Parent() *TopLevel { return e.parent }

func (e *Embedded) IsGranted(c capability.Capability) bool {
	return e.parent.IsGranted(c)
}

func (e *Embedded) ShouldExplain(c capability.Capability) bool {
	return e.parent.ShouldExplain(c)
}

func (e *Embedded) PredatesRuntimeModel() bool {
	return e.parent.PredatesRuntimeModel()
}

func (e *Embedded) RequestCapabilities(caps []capability.Capability, token int) error {
	return e.view.RequestCapabilities(caps, token)
}

// OnCapabilityResult forwards the view's permission result hook to the resolver.
func (e *Embedded) OnCapabilityResult(ctx context.Context, token int, caps []string, grants []bool) (arbiter.Report, error) {
	return forward(ctx, e.cfg.resolver, token, caps, grants)
}

func forward(ctx context.Context, r Resolver, token int, caps []string, grants []bool) (arbiter.Report, error) {
	if r == nil {
		return arbiter.Report{}, ErrNoResolver
	}
	return r.DeliverResult(ctx, token, capability.FromStrings(caps), grants)
}
