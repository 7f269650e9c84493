// Package caparbiter assembles a capability arbiter from a configuration
// file: an emulated platform with a persistent grant database, a top-level
// host bound to it, and a rationale dialog for capabilities the user refused.
package caparbiter

import (
	"context"
	"log/slog"
	"sync"

	"github.com/reglet-dev/capability-arbiter/arbiter"
	"github.com/reglet-dev/capability-arbiter/capability"
	"github.com/reglet-dev/capability-arbiter/capability/gatekeeper"
	"github.com/reglet-dev/capability-arbiter/capability/grantstore"
	"github.com/reglet-dev/capability-arbiter/config"
	"github.com/reglet-dev/capability-arbiter/host"
	"github.com/reglet-dev/capability-arbiter/policy"
	"github.com/reglet-dev/capability-arbiter/rationale"
)

// Checker checks capabilities for an application against its configured platform.
type Checker struct {
	cfg      *config.Config
	arbiter  *arbiter.Arbiter
	platform *gatekeeper.Platform
	top      *host.TopLevel
	trigger  *rationale.Trigger
	logger   *slog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*checkerConfig)

type checkerConfig struct {
	logger        *slog.Logger
	prompter      capability.Prompter
	presenter     rationale.Presenter
	opener        rationale.SettingsOpener
	store         capability.GrantStore
	denialHandler policy.DenialHandler
}

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) CheckerOption {
	return func(c *checkerConfig) {
		c.logger = logger
	}
}

// WithPrompter replaces the terminal prompter of the emulated platform.
func WithPrompter(p capability.Prompter) CheckerOption {
	return func(c *checkerConfig) {
		c.prompter = p
	}
}

// WithPresenter replaces the terminal rationale dialog.
func WithPresenter(p rationale.Presenter) CheckerOption {
	return func(c *checkerConfig) {
		c.presenter = p
	}
}

// WithSettingsOpener sets how the settings deep link is followed.
// Defaults to logging the link.
func WithSettingsOpener(o rationale.SettingsOpener) CheckerOption {
	return func(c *checkerConfig) {
		c.opener = o
	}
}

// WithGrantStore replaces the file store configured by grants_path.
func WithGrantStore(s capability.GrantStore) CheckerOption {
	return func(c *checkerConfig) {
		c.store = s
	}
}

// WithDenialHandler replaces the default slog denial handler.
func WithDenialHandler(h policy.DenialHandler) CheckerOption {
	return func(c *checkerConfig) {
		c.denialHandler = h
	}
}

// NewCheckerFromFile loads the configuration at path and builds a Checker.
func NewCheckerFromFile(ctx context.Context, path string, opts ...CheckerOption) (*Checker, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return NewChecker(ctx, cfg, opts...)
}

// NewChecker builds a Checker from cfg. Prompt outcomes are delivered with ctx.
func NewChecker(ctx context.Context, cfg *config.Config, opts ...CheckerOption) (*Checker, error) {
	cc := checkerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cc)
	}
	if cc.logger == nil {
		cc.logger = slog.Default()
	}
	if cc.store == nil {
		cc.store = grantstore.NewFileStore(grantstore.WithPath(cfg.GrantsPath))
	}
	if cc.prompter == nil {
		cc.prompter = gatekeeper.NewTerminalPrompter(cfg.AppID)
	}
	if cc.presenter == nil {
		cc.presenter = rationale.NewHuhPresenter()
	}
	if cc.opener == nil {
		cc.opener = rationale.LogOpener(cc.logger)
	}
	if cc.denialHandler == nil {
		cc.denialHandler = policy.NewSlogDenialHandler(cc.logger)
	}

	catalog := cfg.BuildCatalog()
	// Prompts and rationales share one terminal.
	dialog := &sync.Mutex{}

	c := &Checker{cfg: cfg, logger: cc.logger}

	c.trigger = rationale.NewTrigger(cfg.AppID, cc.presenter,
		rationale.WithCatalog(catalog),
		rationale.WithMessages(cfg.RationaleMessages()),
		rationale.WithSettingsOpener(cc.opener),
		rationale.WithLogger(cc.logger),
		rationale.WithDialogLock(dialog),
	)

	c.arbiter = arbiter.New(
		arbiter.WithLogger(cc.logger),
		arbiter.WithDenialHandler(cc.denialHandler),
		arbiter.WithFirstToken(cfg.FirstToken),
		arbiter.WithMiddleware(
			arbiter.RecoverMiddleware(cc.logger),
			c.trigger.Middleware(ctx),
		),
	)

	c.platform = gatekeeper.NewPlatform(
		gatekeeper.WithStore(cc.store),
		gatekeeper.WithPrompter(cc.prompter),
		gatekeeper.WithCatalog(catalog),
		gatekeeper.WithSecurityLevel(gatekeeper.SecurityLevel(cfg.SecurityLevel)),
		gatekeeper.WithAutoGrant(cfg.AutoGrant...),
		gatekeeper.WithDeny(cfg.Deny...),
		gatekeeper.WithLogger(cc.logger),
		gatekeeper.WithContext(ctx),
		gatekeeper.WithDialogLock(dialog),
		gatekeeper.WithResultHandler(func(ctx context.Context, token int, caps []string, grants []bool) error {
			_, err := c.top.OnCapabilityResult(ctx, token, caps, grants)
			return err
		}),
	)

	var platform host.Platform = c.platform
	if cfg.PlatformVersion != "" {
		gate, err := host.NewRuntimeModelGate(cfg.RuntimeModelConstraint)
		if err != nil {
			return nil, err
		}
		versioned, err := host.NewVersionedPlatform(c.platform, cfg.PlatformVersion, gate)
		if err != nil {
			return nil, err
		}
		platform = versioned
	}

	c.top = host.NewTopLevel(platform, c.platform,
		host.WithResolver(c.arbiter),
		host.WithName(cfg.AppID),
	)

	c.logger.Debug("capability checker ready",
		"app_id", cfg.AppID,
		"security_level", cfg.SecurityLevel,
		"legacy", platform.PredatesRuntimeModel(),
		"grants", cc.store.ConfigPath())

	return c, nil
}

// Check runs a capability check on the application's top-level screen.
func (c *Checker) Check(ctx context.Context, code int, cb capability.Callback, caps ...capability.Capability) (arbiter.Report, error) {
	return c.arbiter.Check(ctx, c.top, code, cb, caps...)
}

// CheckIn runs a capability check on h, typically a view from Embedded.
func (c *Checker) CheckIn(ctx context.Context, h host.Host, code int, cb capability.Callback, caps ...capability.Capability) (arbiter.Report, error) {
	return c.arbiter.Check(ctx, h, code, cb, caps...)
}

// Embedded returns a sub-view of the top-level screen. Its prompts go through
// the same platform dialog.
func (c *Checker) Embedded(name string) *host.Embedded {
	return host.NewEmbedded(c.top, c.platform, host.WithName(c.top.Name()+"/"+name))
}

// Wait blocks until every prompt in flight has been resolved and reported.
func (c *Checker) Wait() {
	c.platform.Wait()
}

// Pending returns the number of checks still waiting for a prompt outcome.
func (c *Checker) Pending() int {
	return c.arbiter.Pending()
}

// Host returns the top-level screen.
func (c *Checker) Host() *host.TopLevel {
	return c.top
}

// Arbiter returns the underlying arbiter.
func (c *Checker) Arbiter() *arbiter.Arbiter {
	return c.arbiter
}

// Grants returns a copy of the platform's grant database.
func (c *Checker) Grants() *capability.GrantState {
	return c.platform.Snapshot()
}

// Config returns the configuration the checker was built from.
func (c *Checker) Config() *config.Config {
	return c.cfg
}
