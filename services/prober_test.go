package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applypilot/config"
)

func TestMatchIntent(t *testing.T) {
	allow := []string{"apply now", "apply", "submit"}
	deny := []string{"save", "refer"}

	priority, ok := MatchIntent("Apply Now", allow, deny)
	assert.True(t, ok)
	assert.Equal(t, 0, priority)

	priority, ok = MatchIntent("Submit your application", allow, deny)
	assert.True(t, ok)
	assert.Equal(t, 2, priority)

	// Deny wins even when an allow word is present.
	_, ok = MatchIntent("Refer a friend and apply", allow, deny)
	assert.False(t, ok)

	_, ok = MatchIntent("Save for later", allow, deny)
	assert.False(t, ok)

	_, ok = MatchIntent("   ", allow, deny)
	assert.False(t, ok)

	_, ok = MatchIntent("View openings", allow, deny)
	assert.False(t, ok)
}

func TestFindApplyControl_PrefersStrongerAllowMatch(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	surface := newFakeSurface("https://careers.example.com/job/1")

	weaker := &fakeElement{text: "Continue"}
	stronger := &fakeElement{text: "Apply Now"}
	surface.register(controlSelector, weaker, stronger)

	control, err := prober.FindApplyControl(surface)
	require.NoError(t, err)
	assert.Same(t, stronger, control.(*fakeElement))
}

func TestFindApplyControl_SkipsHiddenAndDisabled(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	surface := newFakeSurface("https://careers.example.com/job/1")

	surface.register(controlSelector,
		&fakeElement{text: "Apply Now", hidden: true},
		&fakeElement{text: "Apply", disabled: true},
	)

	_, err := prober.FindApplyControl(surface)
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestFindSubmitControl_FallsBackToValueAttr(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	surface := newFakeSurface("https://careers.example.com/apply")

	submitInput := &fakeElement{attrs: map[string]string{"value": "Submit Application"}}
	surface.register(controlSelector, submitInput)

	control, err := prober.FindSubmitControl(surface)
	require.NoError(t, err)
	assert.Same(t, submitInput, control.(*fakeElement))
}

func TestDiscoverFields_CapturesAttributesAndSkipsHidden(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	surface := newFakeSurface("https://careers.example.com/apply")

	surface.register("input[type='text'], input:not([type])",
		&fakeElement{attrs: map[string]string{"name": "first_name", "placeholder": "First Name", "required": "true"}},
		&fakeElement{attrs: map[string]string{"name": "honeypot"}, hidden: true},
	)
	// Upload widgets hide the raw input; it must still be discovered.
	surface.register("input[type='file']",
		&fakeElement{attrs: map[string]string{"name": "resume"}, hidden: true},
	)

	fields, err := prober.DiscoverFields(surface)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, FieldText, fields[0].Kind)
	assert.Equal(t, "first_name", fields[0].Name)
	assert.Equal(t, "First Name", fields[0].Placeholder)
	assert.True(t, fields[0].Required)

	assert.Equal(t, FieldFile, fields[1].Kind)
	assert.Equal(t, "resume", fields[1].Name)
}

func TestHasFormContainer(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())

	empty := newFakeSurface("https://example.com")
	assert.False(t, prober.HasFormContainer(empty))

	withForm := newFakeSurface("https://example.com")
	withForm.register("form", &fakeElement{})
	assert.True(t, prober.HasFormContainer(withForm))

	withInputs := newFakeSurface("https://example.com")
	withInputs.register(fillableSelector, &fakeElement{})
	assert.True(t, prober.HasFormContainer(withInputs))
}
