package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applypilot/config"
	"applypilot/models"
)

func testProfile() *models.ApplicantProfile {
	return &models.ApplicantProfile{
		FullName:  "Jane Smith",
		FirstName: "Jane",
		LastName:  "Smith",
		Email:     "jane.smith@example.com",
		Phone:     "(555) 010-2030",
		City:      "Austin",
		State:     "Texas",
		Country:   "United States",
		LinkedIn:  "https://linkedin.com/in/janesmith",
		Summary:   "Backend engineer focused on distributed systems.",
		Skills:    []string{"Go", "Postgres", "Kubernetes"},

		WorkAuthorization:   "US Citizen",
		RequiresSponsorship: false,
	}
}

func TestDeriveHint_SourcePrecedence(t *testing.T) {
	// Placeholder outranks name, name outranks id, id outranks label.
	assert.Equal(t, "email", DeriveHint("Email address", "first_name", "", ""))
	assert.Equal(t, "first_name", DeriveHint("", "first_name", "email", ""))
	assert.Equal(t, "phone", DeriveHint("", "", "phone-input", "Email"))
	assert.Equal(t, "city", DeriveHint("", "", "", "City of residence"))
	assert.Equal(t, "", DeriveHint("", "", "", ""))
}

func TestDeriveHint_RuleOrder(t *testing.T) {
	// "first name" must not be swallowed by the generic "name" rule.
	assert.Equal(t, "first_name", DeriveHint("First Name", "", "", ""))
	assert.Equal(t, "last_name", DeriveHint("", "last_name", "", ""))
	assert.Equal(t, "full_name", DeriveHint("Full name", "", "", ""))
	assert.Equal(t, "name", DeriveHint("Name", "", "", ""))
}

func TestNormalizeIdent(t *testing.T) {
	assert.Equal(t, "first name", normalizeIdent("firstName"))
	assert.Equal(t, "first name", normalizeIdent("first_name"))
	assert.Equal(t, "first name", normalizeIdent("first-name"))
	assert.Equal(t, "applicant email ", normalizeIdent("applicant[email]"))
}

func TestFillForm_BasicFields(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	filler := NewFormFillerService(prober, &fakeAnswers{answer: "Generated answer."}, "/tmp/resume.docx")

	surface := newFakeSurface("https://boards.greenhouse.io/acme/apply")
	firstName := &fakeElement{attrs: map[string]string{"name": "first_name", "placeholder": "First Name"}}
	email := &fakeElement{attrs: map[string]string{"name": "email", "type": "email"}}
	resume := &fakeElement{attrs: map[string]string{"name": "resume"}, hidden: true}
	surface.register("input[type='text'], input:not([type])", firstName)
	surface.register("input[type='email']", email)
	surface.register("input[type='file']", resume)

	report, err := filler.FillForm(surface, testProfile(), models.JobPosting{Title: "Backend Engineer", Company: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.FilledCount)
	assert.Equal(t, "Jane", firstName.value)
	assert.Equal(t, "jane.smith@example.com", email.value)
	assert.Equal(t, "/tmp/resume.docx", resume.files)
	assert.True(t, report.UploadedResume)
}

func TestFillForm_FailedFillDoesNotCount(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	filler := NewFormFillerService(prober, &fakeAnswers{}, "")

	surface := newFakeSurface("https://careers.example.com/apply")
	good := &fakeElement{attrs: map[string]string{"name": "first_name"}}
	broken := &fakeElement{attrs: map[string]string{"name": "last_name"}, fillErr: errors.New("element detached")}
	surface.register("input[type='text'], input:not([type])", good, broken)

	report, err := filler.FillForm(surface, testProfile(), models.JobPosting{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilledCount)
	assert.Equal(t, "Jane", good.value)
	assert.Empty(t, broken.value)
}

func TestFillForm_SkipsPrefilledFields(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	filler := NewFormFillerService(prober, &fakeAnswers{}, "")

	surface := newFakeSurface("https://careers.example.com/apply")
	prefilled := &fakeElement{attrs: map[string]string{"name": "email"}, value: "existing@example.com"}
	surface.register("input[type='text'], input:not([type])", prefilled)

	report, err := filler.FillForm(surface, testProfile(), models.JobPosting{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.FilledCount)
	assert.Equal(t, "existing@example.com", prefilled.value)
}

func TestFillForm_OpenQuestionRoutedToAnswerProvider(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	answers := &fakeAnswers{answer: "I led the migration of a monolith to Go services."}
	filler := NewFormFillerService(prober, answers, "")

	surface := newFakeSurface("https://careers.example.com/apply")
	question := &fakeElement{
		attrs: map[string]string{"name": "custom_question_17"},
		label: "Describe a challenging project you have worked on?",
	}
	surface.register("textarea", question)

	report, err := filler.FillForm(surface, testProfile(), models.JobPosting{Title: "Backend Engineer"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilledCount)
	assert.Equal(t, 1, report.AnsweredCount)
	assert.Equal(t, answers.answer, question.value)
	require.Len(t, answers.asked, 1)
	assert.Contains(t, answers.asked[0], "challenging project")
}

func TestFillForm_SelfIdentificationSelects(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	filler := NewFormFillerService(prober, &fakeAnswers{}, "")

	surface := newFakeSurface("https://careers.example.com/apply")
	sponsorship := &fakeElement{attrs: map[string]string{"name": "requires_sponsorship"}, label: "Will you require sponsorship?"}
	gender := &fakeElement{attrs: map[string]string{"name": "gender"}, label: "Gender"}
	surface.register("select", sponsorship, gender)

	report, err := filler.FillForm(surface, testProfile(), models.JobPosting{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilledCount)
	assert.Equal(t, "no", sponsorship.value)
	assert.Equal(t, "prefer not", gender.value)
}

func TestFillForm_ZeroFieldsReprobesOnce(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	filler := NewFormFillerService(prober, &fakeAnswers{}, "")
	filler.reprobeDelay = time.Millisecond

	surface := newFakeSurface("https://careers.example.com/apply")

	report, err := filler.FillForm(surface, testProfile(), models.JobPosting{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilledCount)
}

func TestFillForm_FrameFallback(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	filler := NewFormFillerService(prober, &fakeAnswers{}, "")

	frame := newFakeSurface("https://embed.example.com/form")
	framed := &fakeElement{attrs: map[string]string{"name": "first_name"}}
	frame.register("input[type='text'], input:not([type])", framed)

	surface := newFakeSurface("https://careers.example.com/apply")
	surface.frames = []Scope{frame}

	report, err := filler.FillForm(surface, testProfile(), models.JobPosting{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilledCount)
	assert.Equal(t, "Jane", framed.value)
}

func TestCheckRequiredFields(t *testing.T) {
	prober := NewProber(config.DefaultHeuristics())
	filler := NewFormFillerService(prober, &fakeAnswers{}, "")

	surface := newFakeSurface("https://careers.example.com/apply")
	surface.register("input[type='text'], input:not([type])",
		&fakeElement{attrs: map[string]string{"name": "first_name", "required": "true"}, value: "Jane"},
		&fakeElement{attrs: map[string]string{"name": "phone", "required": "true"}},
		&fakeElement{attrs: map[string]string{"name": "nickname"}},
	)
	surface.register("select",
		&fakeElement{attrs: map[string]string{"name": "country", "aria-required": "true"}, value: "Select..."},
	)

	missing := filler.CheckRequiredFields(surface)
	assert.ElementsMatch(t, []string{"phone", "country"}, missing)
}
