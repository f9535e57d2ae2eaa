package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyMarkers_Precedence(t *testing.T) {
	cases := []struct {
		markers  ChallengeMarkers
		expected ChallengeType
	}{
		{ChallengeMarkers{}, ChallengeNone},
		{ChallengeMarkers{RobotCheckbox: true}, ChallengeCheckbox},
		{ChallengeMarkers{HCaptcha: true, RobotCheckbox: true}, ChallengeHCaptcha},
		{ChallengeMarkers{Recaptcha: true, HCaptcha: true}, ChallengeRecaptcha},
		{ChallengeMarkers{Cloudflare: true, Recaptcha: true}, ChallengeCloudflare},
		{ChallengeMarkers{Cloudflare: true, Recaptcha: true, HCaptcha: true, RobotCheckbox: true}, ChallengeCloudflare},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, ClassifyMarkers(tc.markers), "markers: %+v", tc.markers)
	}
}

func TestClassify_CloudflareWinsOverRecaptchaOnPage(t *testing.T) {
	resolver := NewChallengeResolver(nil, 0)

	surface := newFakeSurface("https://acme.example.com/apply")
	surface.register("#challenge-form, #cf-challenge-running, iframe[src*='challenges.cloudflare.com']", &fakeElement{})
	surface.register("iframe[src*='recaptcha'], .g-recaptcha", &fakeElement{})

	assert.Equal(t, ChallengeCloudflare, resolver.Classify(surface))
}

func TestClassify_TitleMarksCloudflare(t *testing.T) {
	resolver := NewChallengeResolver(nil, 0)

	surface := newFakeSurface("https://acme.example.com/apply")
	surface.title = "Just a moment..."

	assert.Equal(t, ChallengeCloudflare, resolver.Classify(surface))
}

func TestResolve_NoChallenge(t *testing.T) {
	resolver := NewChallengeResolver(nil, 0)
	surface := newFakeSurface("https://acme.example.com/apply")

	report, err := resolver.Resolve(surface)
	require.NoError(t, err)
	assert.Equal(t, ChallengeNone, report.Type)
	assert.True(t, report.Resolved)
}

func TestResolve_RobotCheckboxClicked(t *testing.T) {
	resolver := NewChallengeResolver(nil, 0)
	resolver.pollEvery = time.Millisecond

	surface := newFakeSurface("https://acme.example.com/apply")
	box := &fakeElement{attrs: map[string]string{"name": "not_a_robot"}, label: "I am not a robot"}
	surface.register("input[type='checkbox']", box)

	report, err := resolver.Resolve(surface)
	require.NoError(t, err)
	assert.Equal(t, ChallengeCheckbox, report.Type)
	assert.True(t, report.Resolved)
	assert.Equal(t, 1, box.clicks)
}

func TestResolve_UnresolvedIsReportedNotFatal(t *testing.T) {
	resolver := NewChallengeResolver(nil, 0)
	resolver.pollEvery = time.Millisecond

	surface := newFakeSurface("https://acme.example.com/apply")
	// Visible recaptcha widget with no token field appearing after the click.
	surface.register("iframe[src*='recaptcha'], .g-recaptcha", &fakeElement{})
	surface.register("iframe[src*='recaptcha']", &fakeElement{})

	report, err := resolver.Resolve(surface)
	require.NoError(t, err)
	assert.Equal(t, ChallengeRecaptcha, report.Type)
	assert.False(t, report.Resolved)
	assert.NotEmpty(t, report.Detail)
}
