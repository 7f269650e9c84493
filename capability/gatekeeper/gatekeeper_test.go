package gatekeeper_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/reglet-dev/capability-arbiter/arbiter"
	"github.com/reglet-dev/capability-arbiter/arbiter/arbitertest"
	"github.com/reglet-dev/capability-arbiter/capability"
	"github.com/reglet-dev/capability-arbiter/capability/gatekeeper"
	"github.com/reglet-dev/capability-arbiter/capability/grantstore"
	"github.com/reglet-dev/capability-arbiter/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPrompter struct {
	answers     map[capability.Capability]capability.Answer
	err         error
	interactive bool

	mu    sync.Mutex
	asked []capability.Request
}

func (p *scriptedPrompter) IsInteractive() bool { return p.interactive }

func (p *scriptedPrompter) PromptForCapability(req capability.Request) (capability.Answer, error) {
	p.mu.Lock()
	p.asked = append(p.asked, req)
	p.mu.Unlock()
	if p.err != nil {
		return capability.AnswerDeny, p.err
	}
	return p.answers[req.Capability], nil
}

func (p *scriptedPrompter) FormatNonInteractiveError(missing []capability.Capability) error {
	return gatekeeper.FormatNonInteractiveError(missing)
}

func (p *scriptedPrompter) Asked() []capability.Capability {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]capability.Capability, 0, len(p.asked))
	for _, r := range p.asked {
		out = append(out, r.Capability)
	}
	return out
}

type delivery struct {
	caps   []string
	grants []bool
	token  int
}

type harness struct {
	platform *gatekeeper.Platform
	store    *grantstore.FileStore
	prompter *scriptedPrompter

	mu         sync.Mutex
	deliveries []delivery
}

func newHarness(t *testing.T, opts ...gatekeeper.Option) *harness {
	t.Helper()
	h := &harness{
		store:    grantstore.NewFileStore(grantstore.WithPath(filepath.Join(t.TempDir(), "grants.yaml"))),
		prompter: &scriptedPrompter{interactive: true, answers: map[capability.Capability]capability.Answer{}},
	}
	base := []gatekeeper.Option{
		gatekeeper.WithStore(h.store),
		gatekeeper.WithPrompter(h.prompter),
		gatekeeper.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		gatekeeper.WithResultHandler(func(ctx context.Context, token int, caps []string, grants []bool) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.deliveries = append(h.deliveries, delivery{caps: caps, grants: grants, token: token})
			return nil
		}),
	}
	h.platform = gatekeeper.NewPlatform(append(base, opts...)...)
	return h
}

func (h *harness) request(t *testing.T, token int, caps ...capability.Capability) delivery {
	t.Helper()
	require.NoError(t, h.platform.RequestCapabilities(caps, token))
	h.platform.Wait()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(t, h.deliveries)
	return h.deliveries[len(h.deliveries)-1]
}

func TestPlatform_PromptAndRecord(t *testing.T) {
	h := newHarness(t)
	h.prompter.answers["camera"] = capability.AnswerGrant
	h.prompter.answers["location"] = capability.AnswerDeny

	d := h.request(t, 3, "camera", "location")

	assert.Equal(t, 3, d.token)
	assert.Equal(t, []string{"camera", "location"}, d.caps)
	assert.Equal(t, []bool{true, false}, d.grants)

	assert.True(t, h.platform.IsGranted("camera"))
	assert.False(t, h.platform.IsGranted("location"))
	assert.True(t, h.platform.ShouldExplain("location"))
	assert.False(t, h.platform.ShouldExplain("camera"))
	assert.False(t, h.platform.PredatesRuntimeModel())

	// Session answers are not persisted.
	stored, err := h.store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored.Entries)
}

func TestPlatform_PersistsAlwaysAndNever(t *testing.T) {
	h := newHarness(t)
	h.prompter.answers["camera"] = capability.AnswerAlways
	h.prompter.answers["contacts"] = capability.AnswerNever

	d := h.request(t, 1, "camera", "contacts")
	assert.Equal(t, []bool{true, false}, d.grants)

	stored, err := h.store.Load()
	require.NoError(t, err)
	camera, _ := stored.Get("camera")
	assert.True(t, camera.Granted)
	contacts, _ := stored.Get("contacts")
	assert.True(t, contacts.NeverAsk)

	// "Don't ask again" hides the rationale and denies silently.
	assert.False(t, h.platform.ShouldExplain("contacts"))
	d = h.request(t, 2, "contacts")
	assert.Equal(t, []bool{false}, d.grants)
	assert.Equal(t, []capability.Capability{"camera", "contacts"}, h.prompter.Asked())

	// A new platform over the same store sees the saved grants.
	reloaded := gatekeeper.NewPlatform(
		gatekeeper.WithStore(h.store),
		gatekeeper.WithPrompter(h.prompter),
	)
	assert.True(t, reloaded.IsGranted("camera"))
}

func TestPlatform_Patterns(t *testing.T) {
	h := newHarness(t,
		gatekeeper.WithAutoGrant("android.permission.ACCESS_*"),
		gatekeeper.WithDeny("android.permission.READ_SMS"),
	)

	d := h.request(t, 1,
		"android.permission.ACCESS_FINE_LOCATION",
		"android.permission.READ_SMS",
	)

	assert.Equal(t, []bool{true, false}, d.grants)
	assert.Empty(t, h.prompter.Asked())
}

func TestPlatform_SecurityLevels(t *testing.T) {
	t.Run("Strict denies broad", func(t *testing.T) {
		h := newHarness(t, gatekeeper.WithSecurityLevel(gatekeeper.SecurityStrict))
		h.prompter.answers["camera"] = capability.AnswerGrant

		d := h.request(t, 1, "location_background", "camera")
		assert.Equal(t, []bool{false, true}, d.grants)
		assert.Equal(t, []capability.Capability{"camera"}, h.prompter.Asked())
	})

	t.Run("Permissive grants everything", func(t *testing.T) {
		h := newHarness(t, gatekeeper.WithSecurityLevel(gatekeeper.SecurityPermissive))

		d := h.request(t, 1, "location_background", "camera")
		assert.Equal(t, []bool{true, true}, d.grants)
		assert.Empty(t, h.prompter.Asked())
	})

	t.Run("Standard prompts for broad", func(t *testing.T) {
		h := newHarness(t)
		h.prompter.answers["location_background"] = capability.AnswerGrant

		d := h.request(t, 1, "location_background")
		assert.Equal(t, []bool{true}, d.grants)
		require.Len(t, h.prompter.asked, 1)
		assert.True(t, h.prompter.asked[0].IsBroad)
		assert.Equal(t, capability.RiskCritical, h.prompter.asked[0].Risk)
	})
}

func TestPlatform_NonInteractiveDenies(t *testing.T) {
	h := newHarness(t)
	h.prompter.interactive = false

	d := h.request(t, 1, "camera")
	assert.Equal(t, []bool{false}, d.grants)
	assert.Empty(t, h.prompter.Asked())
	assert.False(t, h.platform.ShouldExplain("camera"), "nothing was asked, nothing recorded")
}

func TestPlatform_PromptErrorDenies(t *testing.T) {
	h := newHarness(t)
	h.prompter.err = errors.New("terminal closed")

	d := h.request(t, 1, "camera")
	assert.Equal(t, []bool{false}, d.grants)
	assert.False(t, h.platform.ShouldExplain("camera"))
}

func TestPlatform_NoResultHandler(t *testing.T) {
	p := gatekeeper.NewPlatform(
		gatekeeper.WithStore(grantstore.NewFileStore(grantstore.WithPath(filepath.Join(t.TempDir(), "g.yaml")))),
		gatekeeper.WithPrompter(&scriptedPrompter{}),
	)
	assert.ErrorIs(t, p.RequestCapabilities([]capability.Capability{"camera"}, 1), gatekeeper.ErrNoResultHandler)
}

func TestPlatform_WithArbiter(t *testing.T) {
	a := arbiter.New(arbiter.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	prompter := &scriptedPrompter{interactive: true, answers: map[capability.Capability]capability.Answer{
		"camera":   capability.AnswerGrant,
		"location": capability.AnswerDeny,
	}}

	var top *host.TopLevel
	platform := gatekeeper.NewPlatform(
		gatekeeper.WithStore(grantstore.NewFileStore(grantstore.WithPath(filepath.Join(t.TempDir(), "g.yaml")))),
		gatekeeper.WithPrompter(prompter),
		gatekeeper.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		gatekeeper.WithResultHandler(func(ctx context.Context, token int, caps []string, grants []bool) error {
			_, err := top.OnCapabilityResult(ctx, token, caps, grants)
			return err
		}),
	)
	top = host.NewTopLevel(platform, platform, host.WithResolver(a))
	ctx := context.Background()

	first := &arbitertest.Callback{}
	rep, err := a.Check(ctx, top, 1, first, "camera", "location")
	require.NoError(t, err)
	assert.True(t, rep.Pending)
	platform.Wait()

	assert.Equal(t, []arbitertest.Call{
		{Code: 1, Capabilities: []capability.Capability{"camera"}, Success: true},
		{Code: 1, Capabilities: []capability.Capability{"location"}},
	}, first.Calls())

	// Second check: camera granted, location needs a rationale; no prompt.
	second := &arbitertest.Callback{}
	rep, err = a.Check(ctx, top, 2, second, "camera", "location")
	require.NoError(t, err)
	assert.True(t, rep.Resolved())
	assert.Equal(t, []arbitertest.Call{
		{Code: 2, Capabilities: []capability.Capability{"camera"}, Success: true},
		{Code: 2, Capabilities: []capability.Capability{"location"}},
	}, second.Calls())
	assert.Equal(t, []capability.Capability{"camera", "location"}, prompter.Asked())
	assert.Zero(t, a.Pending())
}

func TestParseSelection(t *testing.T) {
	assert.Equal(t, capability.AnswerGrant, gatekeeper.ParseSelection(gatekeeper.OptionYes))
	assert.Equal(t, capability.AnswerAlways, gatekeeper.ParseSelection(gatekeeper.OptionAlways))
	assert.Equal(t, capability.AnswerNever, gatekeeper.ParseSelection(gatekeeper.OptionNever))
	assert.Equal(t, capability.AnswerDeny, gatekeeper.ParseSelection(gatekeeper.OptionNo))
	assert.Equal(t, capability.AnswerDeny, gatekeeper.ParseSelection(""))
}

func TestFormatNonInteractiveError(t *testing.T) {
	err := gatekeeper.FormatNonInteractiveError([]capability.Capability{"camera", "location"})
	assert.Contains(t, err.Error(), "  - camera\n")
	assert.Contains(t, err.Error(), "  - location\n")
	assert.Contains(t, err.Error(), "auto_grant")
}
