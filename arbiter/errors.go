package arbiter

import (
	"errors"
	"fmt"

	"github.com/reglet-dev/capability-arbiter/capability"
)

// Sentinel errors for common error patterns.
// These allow both errors.Is() checks and errors.As() for detailed information.
var (
	// ErrMalformedResult is returned when a prompt outcome has mismatched
	// capability and grant sequences.
	ErrMalformedResult = errors.New("malformed capability result")

	// ErrPromptFailed is returned when the host refused to start a prompt.
	ErrPromptFailed = errors.New("capability prompt failed")

	// ErrNilHost is returned when Check is called without a host.
	ErrNilHost = errors.New("arbiter: nil host")

	// ErrNilCallback is returned when Check is called without a callback.
	ErrNilCallback = errors.New("arbiter: nil callback")
)

// MalformedResultError indicates a prompt outcome whose sequences are not index-aligned.
type MalformedResultError struct {
	Token        int
	Capabilities int
	Grants       int
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf(
		"malformed capability result for token %d: %d capabilities, %d grants",
		e.Token,
		e.Capabilities,
		e.Grants,
	)
}

// Is implements error matching for errors.Is() checks.
// This allows: errors.Is(err, arbiter.ErrMalformedResult)
func (e *MalformedResultError) Is(target error) bool {
	return target == ErrMalformedResult
}

// PromptError wraps a host failure to start the asynchronous prompt.
type PromptError struct {
	Err          error
	Capabilities []capability.Capability
	Token        int
}

func (e *PromptError) Error() string {
	return fmt.Sprintf("capability prompt failed for token %d %v: %v", e.Token, capability.Strings(e.Capabilities), e.Err)
}

func (e *PromptError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is() checks.
func (e *PromptError) Is(target error) bool {
	return target == ErrPromptFailed
}
