// Package gatekeeper emulates a runtime-permission platform for desktop and
// terminal hosts: it keeps a grant database, answers capability queries from
// it, and resolves prompts asynchronously by asking the user and handing the
// outcome to a result handler.
package gatekeeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/reglet-dev/capability-arbiter/capability"
	"github.com/reglet-dev/capability-arbiter/capability/grantstore"
)

// ErrNoResultHandler is returned by RequestCapabilities when nothing would
// receive the prompt outcome.
var ErrNoResultHandler = errors.New("gatekeeper: no result handler configured")

// SecurityLevel controls the platform's prompting behavior.
type SecurityLevel string

const (
	SecurityStrict     SecurityLevel = "strict"
	SecurityStandard   SecurityLevel = "standard"
	SecurityPermissive SecurityLevel = "permissive"
)

// ResultHandler receives a prompt outcome in the shape a container's
// permission result hook gets it.
type ResultHandler func(ctx context.Context, token int, caps []string, grants []bool) error

// Platform handles capability granting: loads stored grants, answers queries,
// prompts for missing capabilities, persists decisions.
type Platform struct {
	store         capability.GrantStore
	prompter      capability.Prompter
	catalog       *capability.Catalog
	handler       ResultHandler
	logger        *slog.Logger
	state         *capability.GrantState
	ctx           context.Context
	securityLevel SecurityLevel
	autoGrant     []string
	deny          []string
	wg            sync.WaitGroup
	mu            sync.Mutex
	// dialog is held while a prompt is on screen. Share it with any other
	// component that shows dialogs so only one is visible at a time.
	dialog sync.Locker
}

// Option configures a Platform.
type Option func(*Platform)

// WithStore sets the grant store.
func WithStore(s capability.GrantStore) Option {
	return func(p *Platform) { p.store = s }
}

// WithPrompter sets the prompter.
func WithPrompter(pr capability.Prompter) Option {
	return func(p *Platform) { p.prompter = pr }
}

// WithSecurityLevel sets the security policy level.
func WithSecurityLevel(level SecurityLevel) Option {
	return func(p *Platform) { p.securityLevel = level }
}

// WithCatalog sets the catalog used to describe prompted capabilities.
func WithCatalog(c *capability.Catalog) Option {
	return func(p *Platform) { p.catalog = c }
}

// WithAutoGrant sets doublestar patterns of capabilities granted without prompting.
func WithAutoGrant(patterns ...string) Option {
	return func(p *Platform) { p.autoGrant = append(p.autoGrant, patterns...) }
}

// WithDeny sets doublestar patterns of capabilities denied without prompting.
func WithDeny(patterns ...string) Option {
	return func(p *Platform) { p.deny = append(p.deny, patterns...) }
}

// WithResultHandler sets where prompt outcomes are delivered.
func WithResultHandler(h ResultHandler) Option {
	return func(p *Platform) { p.handler = h }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Platform) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDialogLock sets the lock held while a prompt is on screen.
func WithDialogLock(l sync.Locker) Option {
	return func(p *Platform) {
		if l != nil {
			p.dialog = l
		}
	}
}

// WithContext sets the context prompt outcomes are delivered with.
func WithContext(ctx context.Context) Option {
	return func(p *Platform) { p.ctx = ctx }
}

// NewPlatform creates an emulated platform with pluggable store and prompter.
// The grant database is loaded once; a store that fails to load starts empty.
func NewPlatform(opts ...Option) *Platform {
	p := &Platform{
		securityLevel: SecurityStandard,
		logger:        slog.Default(),
		ctx:           context.Background(),
		dialog:        &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.store == nil {
		p.store = grantstore.NewFileStore()
	}
	if p.prompter == nil {
		p.prompter = NewTerminalPrompter("")
	}
	if p.catalog == nil {
		p.catalog = capability.DefaultCatalog()
	}

	state, err := p.store.Load()
	if err != nil {
		p.logger.Warn("failed to load grant store, starting empty",
			"path", p.store.ConfigPath(),
			"error", err)
		state = capability.NewGrantState()
	}
	p.state = state
	return p
}

// IsGranted reports whether the grant database grants c.
func (p *Platform) IsGranted(c capability.Capability) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, _ := p.state.Get(c)
	return e.Granted
}

// ShouldExplain is true once the user refused c, unless they chose not to be asked again.
func (p *Platform) ShouldExplain(c capability.Capability) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, _ := p.state.Get(c)
	return !e.Granted && e.Denials > 0 && !e.NeverAsk
}

// PredatesRuntimeModel is always false; wrap the platform in a
// host.VersionedPlatform to emulate older versions.
func (p *Platform) PredatesRuntimeModel() bool {
	return false
}

// RequestCapabilities resolves the prompt on its own goroutine and delivers
// the outcome to the result handler.
func (p *Platform) RequestCapabilities(caps []capability.Capability, token int) error {
	if p.handler == nil {
		return ErrNoResultHandler
	}
	caps = append([]capability.Capability(nil), caps...)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.resolve(caps, token)
	}()
	return nil
}

// Wait blocks until every outstanding prompt has been delivered.
func (p *Platform) Wait() {
	p.wg.Wait()
}

// Snapshot returns a copy of the grant database.
func (p *Platform) Snapshot() *capability.GrantState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Clone()
}

func (p *Platform) resolve(caps []capability.Capability, token int) {
	p.dialog.Lock()
	grants := make([]bool, len(caps))
	shouldSave := false
	for i, c := range caps {
		answer, record := p.evaluate(c)
		grants[i] = answer.Granted()
		if !record {
			continue
		}
		p.mu.Lock()
		p.state.Record(c, answer)
		p.mu.Unlock()
		if answer.Persistent() {
			shouldSave = true
		}
	}
	p.dialog.Unlock()

	if shouldSave {
		if err := p.store.Save(p.Snapshot()); err != nil {
			p.logger.Warn("failed to save grants", "path", p.store.ConfigPath(), "error", err)
		} else {
			p.logger.Info("grants saved", "path", p.store.ConfigPath())
		}
	}

	if err := p.handler(p.ctx, token, capability.Strings(caps), grants); err != nil {
		p.logger.ErrorContext(p.ctx, "failed to deliver capability result",
			"token", token,
			"error", err)
	}
}

// evaluate decides one capability. record is false when the decision must
// not change the grant database.
func (p *Platform) evaluate(c capability.Capability) (answer capability.Answer, record bool) {
	p.mu.Lock()
	entry, _ := p.state.Get(c)
	p.mu.Unlock()

	if entry.NeverAsk {
		p.logger.Debug("capability denied without prompt (never ask again)", "capability", string(c))
		return capability.AnswerDeny, false
	}

	if matchAny(p.deny, c) {
		p.logger.Warn("capability denied by policy", "capability", string(c))
		return capability.AnswerDeny, true
	}

	if matchAny(p.autoGrant, c) {
		p.logger.Warn("auto-granting capability", "capability", string(c))
		return capability.AnswerGrant, true
	}

	return p.evaluateWithSecurityLevel(c)
}

// evaluateWithSecurityLevel applies security level policy and prompts if needed.
func (p *Platform) evaluateWithSecurityLevel(c capability.Capability) (capability.Answer, bool) {
	risk := capability.AnalyzeRisk([]capability.Capability{c}, p.catalog)
	req := capability.Request{
		Capability:  c,
		Description: p.catalog.Describe(c),
		Risk:        risk.Level,
		IsBroad:     capability.IsBroad(c),
	}

	if req.IsBroad {
		switch p.securityLevel {
		case SecurityStrict:
			riskDesc := "broad access beyond what may be necessary"
			if len(risk.RiskFactors) > 0 {
				riskDesc = risk.RiskFactors[0].Description
			}
			p.logger.Error("broad capability denied by security policy",
				"level", "strict",
				"capability", string(c),
				"risk", riskDesc)
			return capability.AnswerDeny, true

		case SecurityPermissive:
			p.logger.Warn("auto-granting broad capability (permissive mode)",
				"capability", string(c))
			return capability.AnswerGrant, true
		}
	}

	if p.securityLevel == SecurityPermissive {
		return capability.AnswerGrant, true
	}

	if !p.prompter.IsInteractive() {
		err := p.prompter.FormatNonInteractiveError([]capability.Capability{c})
		p.logger.Warn("capability denied: no interactive terminal", "capability", string(c), "detail", err.Error())
		return capability.AnswerDeny, false
	}

	answer, err := p.prompter.PromptForCapability(req)
	if err != nil {
		p.logger.Error("capability prompt failed", "capability", string(c), "error", err)
		return capability.AnswerDeny, false
	}
	return answer, true
}

func matchAny(patterns []string, c capability.Capability) bool {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, string(c))
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
