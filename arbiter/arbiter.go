// Package arbiter correlates capability checks with asynchronous host prompts.
//
// Check classifies the requested capabilities and either reports at once or
// starts a host prompt and returns a pending Report. The host later hands the
// prompt outcome to DeliverResult under the same token, which merges it with
// the capabilities classified before the prompt and reports exactly once.
package arbiter

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/reglet-dev/capability-arbiter/capability"
	"github.com/reglet-dev/capability-arbiter/policy"
)

// Arbiter owns the in-flight capability requests, keyed by correlation token.
// Overlapping checks never share state.
type Arbiter struct {
	logger     *slog.Logger
	denials    policy.DenialHandler
	orphan     capability.Callback
	pending    map[int]*request
	middleware []Middleware
	nextToken  int
	mu         sync.Mutex
}

// New creates an Arbiter.
func New(opts ...Option) *Arbiter {
	a := &Arbiter{
		logger:    slog.Default(),
		denials:   &policy.NopDenialHandler{},
		pending:   make(map[int]*request),
		nextToken: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.orphan != nil {
		a.orphan = chain(a.orphan, a.middleware)
	}
	return a
}

// Check classifies caps against h and reports to cb.
//
// When nothing needs prompting the callback fires before Check returns and the
// Report is resolved. Otherwise the never-requested capabilities are handed to
// h.RequestCapabilities under a fresh token and the Report is pending; the
// callback fires from DeliverResult. An empty caps list reports nothing.
func (a *Arbiter) Check(ctx context.Context, h capability.Host, code int, cb capability.Callback, caps ...capability.Capability) (Report, error) {
	if h == nil {
		return Report{}, ErrNilHost
	}
	if cb == nil {
		return Report{}, ErrNilCallback
	}

	part := Classify(h, caps)

	a.mu.Lock()
	token := a.nextToken
	a.nextToken++
	req := newRequest(token, code, chain(cb, a.middleware), part)
	if len(part.NeverRequested) > 0 {
		a.pending[token] = req
	}
	a.mu.Unlock()

	a.logger.DebugContext(ctx, "capabilities classified",
		"code", code,
		"token", token,
		"granted", len(part.Granted),
		"explain", len(part.Explain),
		"never_requested", len(part.NeverRequested))

	if len(part.NeverRequested) == 0 {
		rep := req.report(false)
		a.deliver(ctx, req, rep)
		return rep, nil
	}

	// Snapshot before prompting: the host may resolve on another goroutine.
	rep := req.report(true)
	if err := h.RequestCapabilities(slices.Clone(part.NeverRequested), token); err != nil {
		a.mu.Lock()
		delete(a.pending, token)
		a.mu.Unlock()
		a.logger.ErrorContext(ctx, "host refused capability prompt", "token", token, "error", err)
		return Report{}, &PromptError{Token: token, Capabilities: slices.Clone(part.NeverRequested), Err: err}
	}

	a.logger.InfoContext(ctx, "capability prompt issued",
		"code", code,
		"token", token,
		"capabilities", capability.Strings(part.NeverRequested))
	return rep, nil
}

// DeliverResult merges a prompt outcome into the request identified by token
// and reports it. caps and grants must be index-aligned.
//
// Tokens without state (already reported, or issued by a previous process)
// are treated as a fresh split and reported to the orphan callback, if any.
func (a *Arbiter) DeliverResult(ctx context.Context, token int, caps []capability.Capability, grants []bool) (Report, error) {
	if len(caps) != len(grants) {
		return Report{}, &MalformedResultError{Token: token, Capabilities: len(caps), Grants: len(grants)}
	}

	a.mu.Lock()
	req, ok := a.pending[token]
	if ok {
		delete(a.pending, token)
	}
	a.mu.Unlock()

	if !ok {
		a.logger.WarnContext(ctx, "capability result for unknown token", "token", token,
			"capabilities", capability.Strings(caps))
		req = &request{token: token, code: token, callback: a.orphan}
	}

	req.merge(caps, grants)
	rep := req.report(false)
	a.deliver(ctx, req, rep)
	return rep, nil
}

// Pending returns the number of checks waiting for a prompt outcome.
func (a *Arbiter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// deliver fires the success and failure callbacks for non-empty buckets.
func (a *Arbiter) deliver(ctx context.Context, req *request, rep Report) {
	if len(rep.Denied) > 0 {
		if req.explain > 0 {
			a.denials.OnDenial(rep.Code, rep.Denied[:req.explain], policy.ReasonRationale)
		}
		if len(rep.Denied) > req.explain {
			a.denials.OnDenial(rep.Code, rep.Denied[req.explain:], policy.ReasonPrompt)
		}
	}

	if req.callback == nil {
		return
	}
	if len(rep.Granted) > 0 {
		req.callback.OnSuccess(rep.Code, slices.Clone(rep.Granted))
	}
	if len(rep.Denied) > 0 {
		req.callback.OnFailure(rep.Code, slices.Clone(rep.Denied))
	}

	a.logger.DebugContext(ctx, "capability check reported",
		"code", rep.Code,
		"token", rep.Token,
		"granted", capability.Strings(rep.Granted),
		"denied", capability.Strings(rep.Denied))
}
