// Package rationale decides when to explain a denied capability to the user
// and offers a way into the application's system settings.
package rationale

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/reglet-dev/capability-arbiter/arbiter"
	"github.com/reglet-dev/capability-arbiter/capability"
)

// Presenter shows a rationale message. It returns true when the user chose
// to open the application settings.
type Presenter interface {
	Present(ctx context.Context, message string) (openSettings bool, err error)
}

// SettingsOpener follows the "open settings" deep link.
type SettingsOpener interface {
	OpenSettings(ctx context.Context, uri string) error
}

// SettingsOpenerFunc adapts a function to a SettingsOpener.
type SettingsOpenerFunc func(ctx context.Context, uri string) error

// OpenSettings implements SettingsOpener.
func (f SettingsOpenerFunc) OpenSettings(ctx context.Context, uri string) error {
	return f(ctx, uri)
}

// SettingsURI returns the application details deep link for appID.
func SettingsURI(appID string) string {
	return "package:" + appID
}

// Trigger decides whether a failure report warrants a rationale and presents it.
// Only one rationale is shown at a time.
type Trigger struct {
	presenter Presenter
	opener    SettingsOpener
	catalog   *capability.Catalog
	messages  map[capability.Capability]string
	logger    *slog.Logger
	dialog    sync.Locker
	appID     string
	mu        sync.Mutex
	showing   bool
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithMessages sets per-capability rationale messages.
func WithMessages(messages map[capability.Capability]string) Option {
	return func(t *Trigger) {
		for k, v := range messages {
			t.messages[k] = v
		}
	}
}

// WithCatalog sets the catalog used when no explicit message exists.
func WithCatalog(c *capability.Catalog) Option {
	return func(t *Trigger) { t.catalog = c }
}

// WithSettingsOpener sets the deep link handler.
func WithSettingsOpener(o SettingsOpener) Option {
	return func(t *Trigger) { t.opener = o }
}

// WithDialogLock sets a lock held while the rationale is on screen, shared
// with whatever else shows dialogs on the same terminal.
func WithDialogLock(l sync.Locker) Option {
	return func(t *Trigger) { t.dialog = l }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trigger) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTrigger creates a Trigger presenting through p for the application appID.
func NewTrigger(appID string, p Presenter, opts ...Option) *Trigger {
	t := &Trigger{
		presenter: p,
		appID:     appID,
		messages:  make(map[capability.Capability]string),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Message resolves the rationale for denied. An explicit message wins, then
// the configured message of the first denied capability that has one, then
// the catalog descriptions of everything denied.
func (t *Trigger) Message(denied []capability.Capability, explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, c := range denied {
		if m, ok := t.messages[c]; ok && m != "" {
			return m
		}
	}
	if len(denied) == 0 || t.catalog == nil {
		return ""
	}
	descs := make([]string, 0, len(denied))
	for _, c := range denied {
		descs = append(descs, t.catalog.Describe(c))
	}
	return fmt.Sprintf("This feature needs the following access: %s. You can allow it in Settings.",
		strings.Join(descs, ", "))
}

// ShouldPresent reports whether a rationale would be shown for denied and the message to show.
func (t *Trigger) ShouldPresent(denied []capability.Capability, explicit string) (string, bool) {
	if len(denied) == 0 {
		return "", false
	}
	msg := t.Message(denied, explicit)
	if msg == "" {
		return "", false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return msg, !t.showing
}

// Present shows the rationale for denied unless one is already showing and
// follows the settings deep link when the user asks for it. shown is false
// when nothing was presented.
func (t *Trigger) Present(ctx context.Context, denied []capability.Capability, explicit string) (shown bool, err error) {
	msg, ok := t.ShouldPresent(denied, explicit)
	if !ok {
		return false, nil
	}

	t.mu.Lock()
	if t.showing {
		t.mu.Unlock()
		return false, nil
	}
	t.showing = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.showing = false
		t.mu.Unlock()
	}()

	open, err := t.present(ctx, msg)
	if err != nil {
		return true, fmt.Errorf("failed to present rationale: %w", err)
	}
	if !open || t.opener == nil {
		return true, nil
	}

	uri := SettingsURI(t.appID)
	if err := t.opener.OpenSettings(ctx, uri); err != nil {
		return true, fmt.Errorf("failed to open settings %q: %w", uri, err)
	}
	return true, nil
}

func (t *Trigger) present(ctx context.Context, msg string) (bool, error) {
	if t.dialog != nil {
		t.dialog.Lock()
		defer t.dialog.Unlock()
	}
	return t.presenter.Present(ctx, msg)
}

// Middleware returns an arbiter middleware presenting a rationale after every
// failure report.
func (t *Trigger) Middleware(ctx context.Context) arbiter.Middleware {
	return func(next capability.Callback) capability.Callback {
		return capability.CallbackFuncs{
			Success: next.OnSuccess,
			Failure: func(code int, denied []capability.Capability) {
				next.OnFailure(code, denied)
				if _, err := t.Present(ctx, denied, ""); err != nil {
					t.logger.ErrorContext(ctx, "rationale failed", "code", code, "error", err)
				}
			},
		}
	}
}
