package arbiter

import (
	"log/slog"

	"github.com/reglet-dev/capability-arbiter/capability"
	"github.com/reglet-dev/capability-arbiter/policy"
)

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arbiter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDenialHandler sets the handler notified about denied capabilities.
func WithDenialHandler(h policy.DenialHandler) Option {
	return func(a *Arbiter) {
		if h != nil {
			a.denials = h
		}
	}
}

// WithOrphanCallback sets the callback that receives outcomes delivered for
// tokens the arbiter has no state for. The token is passed as the code.
func WithOrphanCallback(cb capability.Callback) Option {
	return func(a *Arbiter) { a.orphan = cb }
}

// WithMiddleware wraps every callback passed to Check.
// Middleware executes in FIFO order (first registered wraps first, onion model).
func WithMiddleware(mw ...Middleware) Option {
	return func(a *Arbiter) { a.middleware = append(a.middleware, mw...) }
}

// WithFirstToken sets the first correlation token handed out.
func WithFirstToken(token int) Option {
	return func(a *Arbiter) { a.nextToken = token }
}
