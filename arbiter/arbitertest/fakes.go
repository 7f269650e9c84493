// Package arbitertest provides in-memory hosts and recording callbacks for
// testing code built on the arbiter.
package arbitertest

import (
	"slices"
	"sync"

	"github.com/reglet-dev/capability-arbiter/capability"
)

// Prompt is one RequestCapabilities call seen by a Host.
type Prompt struct {
	Capabilities []capability.Capability
	Token        int
}

// Host is a capability.Host backed by maps. Queries and prompts are recorded.
type Host struct {
	Granted map[capability.Capability]bool
	Explain map[capability.Capability]bool
	Legacy  bool
	// PromptErr is returned from RequestCapabilities when set.
	PromptErr error
	// OnPrompt, when set, runs inside RequestCapabilities after the prompt is recorded.
	OnPrompt func(p Prompt)

	mu      sync.Mutex
	prompts []Prompt
	queries int
}

// NewHost creates a host granting the given capabilities.
func NewHost(granted ...capability.Capability) *Host {
	h := &Host{
		Granted: make(map[capability.Capability]bool),
		Explain: make(map[capability.Capability]bool),
	}
	for _, c := range granted {
		h.Granted[c] = true
	}
	return h
}

// WithExplain marks capabilities as previously refused.
func (h *Host) WithExplain(caps ...capability.Capability) *Host {
	for _, c := range caps {
		h.Explain[c] = true
	}
	return h
}

func (h *Host) IsGranted(c capability.Capability) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries++
	return h.Granted[c]
}

func (h *Host) ShouldExplain(c capability.Capability) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries++
	return h.Explain[c]
}

func (h *Host) RequestCapabilities(caps []capability.Capability, token int) error {
	if h.PromptErr != nil {
		return h.PromptErr
	}
	p := Prompt{Capabilities: slices.Clone(caps), Token: token}
	h.mu.Lock()
	h.prompts = append(h.prompts, p)
	h.mu.Unlock()
	if h.OnPrompt != nil {
		h.OnPrompt(p)
	}
	return nil
}

func (h *Host) PredatesRuntimeModel() bool {
	return h.Legacy
}

// Prompts returns the prompts issued so far.
func (h *Host) Prompts() []Prompt {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.prompts)
}

// LastPrompt returns the most recent prompt and whether there was one.
func (h *Host) LastPrompt() (Prompt, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.prompts) == 0 {
		return Prompt{}, false
	}
	return h.prompts[len(h.prompts)-1], true
}

// Queries returns how many IsGranted/ShouldExplain calls were made.
func (h *Host) Queries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.queries
}

// Call is one callback invocation.
type Call struct {
	Capabilities []capability.Capability
	Code         int
	Success      bool
}

// Callback records every OnSuccess and OnFailure call.
type Callback struct {
	mu    sync.Mutex
	calls []Call
}

func (c *Callback) OnSuccess(code int, granted []capability.Capability) {
	c.record(Call{Code: code, Capabilities: granted, Success: true})
}

func (c *Callback) OnFailure(code int, denied []capability.Capability) {
	c.record(Call{Code: code, Capabilities: denied})
}

func (c *Callback) record(call Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

// Calls returns every recorded call in order.
func (c *Callback) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

// Successes returns the OnSuccess calls.
func (c *Callback) Successes() []Call {
	return c.filter(true)
}

// Failures returns the OnFailure calls.
func (c *Callback) Failures() []Call {
	return c.filter(false)
}

func (c *Callback) filter(success bool) []Call {
	var out []Call
	for _, call := range c.Calls() {
		if call.Success == success {
			out = append(out, call)
		}
	}
	return out
}
