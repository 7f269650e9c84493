package capability

// Capability is an opaque, host-defined access right such as "camera" or
// "android.permission.ACCESS_FINE_LOCATION". Capabilities compare by exact
// string equality.
type Capability string

// String returns the capability identifier.
func (c Capability) String() string {
	return string(c)
}

// Strings converts a capability list to plain strings.
func Strings(caps []Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

// FromStrings converts plain strings to a capability list.
func FromStrings(names []string) []Capability {
	out := make([]Capability, len(names))
	for i, n := range names {
		out[i] = Capability(n)
	}
	return out
}

// Decision is the classification of a capability at the moment it is checked.
type Decision int

const (
	// NeverRequested means the user has not been asked yet; a prompt is needed.
	NeverRequested Decision = iota
	// Granted means the host already grants the capability.
	Granted
	// DeniedRequiresExplanation means the user refused before and a rationale
	// should be shown instead of prompting again.
	DeniedRequiresExplanation
)

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case DeniedRequiresExplanation:
		return "denied_requires_explanation"
	default:
		return "never_requested"
	}
}

// Callback receives the consolidated outcome of a capability check.
// Both methods may be called for the same request code when the outcome is mixed.
type Callback interface {
	OnSuccess(code int, granted []Capability)
	OnFailure(code int, denied []Capability)
}

// CallbackFuncs adapts plain functions to a Callback. Nil fields are no-ops.
type CallbackFuncs struct {
	Success func(code int, granted []Capability)
	Failure func(code int, denied []Capability)
}

// OnSuccess implements Callback.
func (f CallbackFuncs) OnSuccess(code int, granted []Capability) {
	if f.Success != nil {
		f.Success(code, granted)
	}
}

// OnFailure implements Callback.
func (f CallbackFuncs) OnFailure(code int, denied []Capability) {
	if f.Failure != nil {
		f.Failure(code, denied)
	}
}

// Host is the capability surface the arbiter classifies against and prompts through.
type Host interface {
	// IsGranted reports whether the capability is currently granted.
	IsGranted(c Capability) bool
	// ShouldExplain reports whether the user refused the capability before
	// and a rationale should be shown.
	ShouldExplain(c Capability) bool
	// RequestCapabilities starts the host's asynchronous prompt. The outcome
	// must later be delivered back to the arbiter under the same token.
	RequestCapabilities(caps []Capability, token int) error
	// PredatesRuntimeModel reports whether the platform grants everything at
	// install time, which makes classification unnecessary.
	PredatesRuntimeModel() bool
}

// Request describes a single capability presented to a user for a decision.
type Request struct {
	Capability  Capability
	Description string
	Risk        RiskLevel
	IsBroad     bool
}

// Answer is a user's decision for one prompted capability.
type Answer int

const (
	// AnswerDeny refuses the capability this time; the host will ask for a rationale next time.
	AnswerDeny Answer = iota
	// AnswerGrant grants the capability for this session.
	AnswerGrant
	// AnswerAlways grants the capability and persists the decision.
	AnswerAlways
	// AnswerNever refuses the capability and persists "don't ask again".
	AnswerNever
)

// Granted reports whether the answer grants the capability.
func (a Answer) Granted() bool {
	return a == AnswerGrant || a == AnswerAlways
}

// Persistent reports whether the answer should be written to the grant store.
func (a Answer) Persistent() bool {
	return a == AnswerAlways || a == AnswerNever
}

// Prompter handles interactive capability authorization.
type Prompter interface {
	IsInteractive() bool
	PromptForCapability(req Request) (Answer, error)
	FormatNonInteractiveError(missing []Capability) error
}

// GrantStore persists and retrieves the platform's grant database.
type GrantStore interface {
	Load() (*GrantState, error)
	Save(state *GrantState) error
	ConfigPath() string
}
