package arbiter

import (
	"fmt"
	"log/slog"

	"github.com/reglet-dev/capability-arbiter/capability"
)

// Middleware wraps a Callback to add cross-cutting behavior.
//
// Example usage:
//
//	counting := func(next capability.Callback) capability.Callback {
//	    return capability.CallbackFuncs{
//	        Success: func(code int, granted []capability.Capability) {
//	            successes++
//	            next.OnSuccess(code, granted)
//	        },
//	        Failure: next.OnFailure,
//	    }
//	}
type Middleware func(next capability.Callback) capability.Callback

// RecoverMiddleware returns a middleware that catches panics raised by a
// callback and logs them instead of unwinding into the host's result hook.
func RecoverMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	guard := func(method string, code int) {
		if r := recover(); r != nil {
			logger.Error("capability callback panicked",
				"method", method,
				"code", code,
				"panic", fmt.Sprint(r))
		}
	}
	return func(next capability.Callback) capability.Callback {
		return capability.CallbackFuncs{
			Success: func(code int, granted []capability.Capability) {
				defer guard("OnSuccess", code)
				next.OnSuccess(code, granted)
			},
			Failure: func(code int, denied []capability.Capability) {
				defer guard("OnFailure", code)
				next.OnFailure(code, denied)
			},
		}
	}
}

// LoggingMiddleware returns a middleware that logs every report at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next capability.Callback) capability.Callback {
		return capability.CallbackFuncs{
			Success: func(code int, granted []capability.Capability) {
				logger.Debug("capabilities granted", "code", code, "capabilities", capability.Strings(granted))
				next.OnSuccess(code, granted)
			},
			Failure: func(code int, denied []capability.Capability) {
				logger.Debug("capabilities denied", "code", code, "capabilities", capability.Strings(denied))
				next.OnFailure(code, denied)
			},
		}
	}
}

// chain applies middleware so that the first one is outermost.
func chain(cb capability.Callback, mw []Middleware) capability.Callback {
	for i := len(mw) - 1; i >= 0; i-- {
		cb = mw[i](cb)
	}
	return cb
}
