package capability_test

import (
	"testing"

	"github.com/reglet-dev/capability-arbiter/capability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringsRoundTrip(t *testing.T) {
	caps := capability.FromStrings([]string{"camera", "location"})
	assert.Equal(t, []capability.Capability{"camera", "location"}, caps)
	assert.Equal(t, []string{"camera", "location"}, capability.Strings(caps))
	assert.Equal(t, "camera", caps[0].String())
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "granted", capability.Granted.String())
	assert.Equal(t, "denied_requires_explanation", capability.DeniedRequiresExplanation.String())
	assert.Equal(t, "never_requested", capability.NeverRequested.String())
}

func TestCallbackFuncs(t *testing.T) {
	var granted, denied []capability.Capability
	cb := capability.CallbackFuncs{
		Success: func(code int, caps []capability.Capability) { granted = caps },
		Failure: func(code int, caps []capability.Capability) { denied = caps },
	}

	cb.OnSuccess(1, []capability.Capability{"camera"})
	cb.OnFailure(1, []capability.Capability{"location"})

	assert.Equal(t, []capability.Capability{"camera"}, granted)
	assert.Equal(t, []capability.Capability{"location"}, denied)

	assert.NotPanics(t, func() {
		capability.CallbackFuncs{}.OnSuccess(1, nil)
		capability.CallbackFuncs{}.OnFailure(1, nil)
	})
}

func TestAnswer(t *testing.T) {
	tests := []struct {
		answer     capability.Answer
		granted    bool
		persistent bool
	}{
		{capability.AnswerDeny, false, false},
		{capability.AnswerGrant, true, false},
		{capability.AnswerAlways, true, true},
		{capability.AnswerNever, false, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.granted, tt.answer.Granted())
		assert.Equal(t, tt.persistent, tt.answer.Persistent())
	}
}

func TestGrantState_Record(t *testing.T) {
	s := capability.NewGrantState()

	s.Record("camera", capability.AnswerDeny)
	s.Record("camera", capability.AnswerDeny)
	e, ok := s.Get("camera")
	require.True(t, ok)
	assert.Equal(t, capability.GrantEntry{Denials: 2}, e)

	s.Record("camera", capability.AnswerGrant)
	e, _ = s.Get("camera")
	assert.True(t, e.Granted)
	assert.Equal(t, 2, e.Denials)

	s.Record("contacts", capability.AnswerNever)
	e, _ = s.Get("contacts")
	assert.Equal(t, capability.GrantEntry{Denials: 1, NeverAsk: true}, e)

	assert.Equal(t, []capability.Capability{"camera", "contacts"}, s.Capabilities())
}

func TestGrantState_NilAndClone(t *testing.T) {
	var s *capability.GrantState
	_, ok := s.Get("camera")
	assert.False(t, ok)
	assert.Nil(t, s.Capabilities())
	assert.NotNil(t, s.Clone().Entries)

	orig := capability.NewGrantState()
	orig.Record("camera", capability.AnswerGrant)
	clone := orig.Clone()
	clone.Record("camera", capability.AnswerDeny)

	e, _ := orig.Get("camera")
	assert.True(t, e.Granted, "clone must not alias the original")
}

func TestGrantState_RecordOnZeroValue(t *testing.T) {
	var s capability.GrantState
	s.Record("camera", capability.AnswerGrant)
	e, ok := s.Get("camera")
	require.True(t, ok)
	assert.True(t, e.Granted)
}
