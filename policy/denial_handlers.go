package policy

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/reglet-dev/capability-arbiter/capability"
)

// Ensure implementations satisfy the interface.
var (
	_ DenialHandler = (*StderrDenialHandler)(nil)
	_ DenialHandler = (*SlogDenialHandler)(nil)
	_ DenialHandler = (*NopDenialHandler)(nil)
)

// StderrDenialHandler writes denials to stderr, or to Out when set.
type StderrDenialHandler struct {
	Out io.Writer
}

func (h *StderrDenialHandler) OnDenial(code int, denied []capability.Capability, reason Reason) {
	out := h.Out
	if out == nil {
		out = os.Stderr
	}
	_, _ = fmt.Fprintf(out, "Permission Denied [%d]: %v (Reason: %s)\n", code, capability.Strings(denied), reason)
}

// SlogDenialHandler logs denials through a structured logger.
type SlogDenialHandler struct {
	Logger *slog.Logger
}

// NewSlogDenialHandler creates a handler logging to logger, or slog.Default() if nil.
func NewSlogDenialHandler(logger *slog.Logger) *SlogDenialHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogDenialHandler{Logger: logger}
}

func (h *SlogDenialHandler) OnDenial(code int, denied []capability.Capability, reason Reason) {
	h.Logger.Warn("capabilities denied",
		"code", code,
		"capabilities", capability.Strings(denied),
		"reason", string(reason))
}

// NopDenialHandler does nothing.
type NopDenialHandler struct{}

func (h *NopDenialHandler) OnDenial(code int, denied []capability.Capability, reason Reason) {}
