// Package policy provides hooks notified when capabilities are reported denied.
package policy

import "github.com/reglet-dev/capability-arbiter/capability"

// Reason explains why a capability ended up denied.
type Reason string

const (
	// ReasonRationale marks capabilities the user refused before; a rationale
	// should be shown instead of prompting again.
	ReasonRationale Reason = "rationale_required"
	// ReasonPrompt marks capabilities the user refused in the prompt that was just shown.
	ReasonPrompt Reason = "prompt_denied"
)

// DenialHandler is called when the arbiter reports denied capabilities.
// It allows custom logging or auditing.
type DenialHandler interface {
	// OnDenial is called once per reason with the denied capabilities of one request.
	OnDenial(code int, denied []capability.Capability, reason Reason)
}
