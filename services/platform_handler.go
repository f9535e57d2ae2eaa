package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"applypilot/config"
	"applypilot/models"
)

// Pipeline state identifiers. States run strictly in this order; a failure
// halts the attempt with the failing state id, and later states never run.
const (
	StepApplyButtonDetection = "apply_button_detection"
	StepModalResolution      = "application_modal_resolution"
	StepLoginResolution      = "login_resolution"
	StepFormDetection        = "form_detection"
	StepFormFill             = "form_fill"
	StepReviewAndSubmit      = "review_and_submit"
	StepPostSubmission       = "post_submission"
)

// HandlerDeps bundles the collaborators every platform handler composes.
type HandlerDeps struct {
	Prober      *Prober
	Filler      *FormFillerService
	Challenges  *ChallengeResolver
	Checker     *SubmissionCheckerService
	Session     *SessionManager
	Answers     AnswerProvider
	Credentials CredentialsStore
	Screenshots *ScreenshotService
	Heuristics  *config.Heuristics
}

// HandlerResult is the structured outcome recovered at the handler boundary.
// Errors never propagate past it.
type HandlerResult struct {
	Success        bool
	Step           string
	Err            error
	ManualAction   bool
	AttemptID      string
	Verdict        *Verdict
	FilledCount    int
	ScreenshotKey  string
}

// PlatformHandler drives apply, login, fill and submit for one ATS family.
// The pipeline shape is shared; PlatformConfig supplies the differences.
type PlatformHandler struct {
	cfg  PlatformConfig
	deps HandlerDeps
}

func NewPlatformHandler(cfg PlatformConfig, deps HandlerDeps) *PlatformHandler {
	return &PlatformHandler{cfg: cfg, deps: deps}
}

// Platform returns the ATS family this handler is bound to.
func (h *PlatformHandler) Platform() Platform {
	return h.cfg.Platform
}

// Run executes the pipeline for one job. All failures are recovered into the
// result; the method itself never panics or returns an error.
func (h *PlatformHandler) Run(job models.JobPosting, profile *models.ApplicantProfile) *HandlerResult {
	result := &HandlerResult{}

	steps := []struct {
		name string
		fn   func(models.JobPosting, *models.ApplicantProfile, *HandlerResult) error
	}{
		{StepApplyButtonDetection, h.detectApplyButton},
		{StepModalResolution, h.resolveApplicationModal},
		{StepLoginResolution, h.resolveLogin},
		{StepFormDetection, h.detectForm},
		{StepFormFill, h.fillForm},
		{StepReviewAndSubmit, h.reviewAndSubmit},
	}

	for _, step := range steps {
		log.Printf("[%s] state: %s", h.cfg.Platform, step.name)
		if err := h.withNavigationRetry(func() error {
			return step.fn(job, profile, result)
		}); err != nil {
			result.Step = step.name
			result.Err = &StepError{Step: step.name, Err: err}
			var manual *ManualActionError
			if errors.As(err, &manual) {
				result.ManualAction = true
			}
			log.Printf("[%s] attempt halted at %s: %v", h.cfg.Platform, step.name, err)
			return result
		}
	}

	// Verdict after the submit click.
	verdict, err := h.deps.Checker.Verify(h.surface())
	if err != nil {
		result.Step = StepReviewAndSubmit
		result.Err = fmt.Errorf("%w: %v", ErrSubmissionIndeterminate, err)
		return result
	}
	result.Verdict = verdict
	result.Success = verdict.Success

	if h.deps.Screenshots != nil {
		if key, err := h.deps.Screenshots.Capture(h.surface(), "confirmation"); err == nil {
			result.ScreenshotKey = key
		}
	}

	// Post-submission obligations are best effort and never fail the attempt.
	result.Step = StepPostSubmission
	if err := h.handlePostSubmission(job, profile, result); err != nil {
		log.Printf("[%s] post-submission handling incomplete: %v", h.cfg.Platform, err)
	}

	return result
}

// withNavigationRetry retries an interrupted operation exactly once when the
// page context was torn down mid-operation by an unexpected redirect.
func (h *PlatformHandler) withNavigationRetry(fn func() error) error {
	err := fn()
	if !errors.Is(err, ErrNavigationLost) {
		return err
	}
	log.Printf("[%s] navigation lost mid-operation, retrying once", h.cfg.Platform)
	h.surface().WaitSettled(h.deps.Checker.settle)
	return fn()
}

func (h *PlatformHandler) surface() Surface {
	return h.deps.Session.Current()
}

// detectApplyButton finds and clicks the control that begins the application.
// No match is a hard failure.
func (h *PlatformHandler) detectApplyButton(_ models.JobPosting, _ *models.ApplicantProfile, _ *HandlerResult) error {
	surface := h.surface()

	control, err := h.queryConfigured(surface, h.cfg.ApplySelectors)
	if err != nil {
		control, err = h.deps.Prober.FindApplyControl(surface)
	}
	if err != nil {
		return fmt.Errorf("%w: no apply-intent control", ErrElementNotFound)
	}

	if err := control.Click(); err != nil {
		return fmt.Errorf("apply control click: %w", err)
	}

	surface.WaitSettled(h.deps.Checker.settle)

	// Apply clicks routinely hand off to a third-party recruiting site in a
	// new tab; adopt it before probing further.
	if adopted, err := h.deps.Session.AdoptExternalTab(); err != nil {
		return err
	} else if adopted {
		h.surface().WaitSettled(h.deps.Checker.settle)
	}
	return nil
}

// resolveApplicationModal picks the preferred path when a modal offers
// several ways to apply. Absence of a modal is not a failure.
func (h *PlatformHandler) resolveApplicationModal(_ models.JobPosting, _ *models.ApplicantProfile, _ *HandlerResult) error {
	surface := h.surface()

	paths := append([]string{}, h.cfg.ModalPaths...)
	// Residual fallbacks shared by every platform, weakest last.
	paths = append(paths,
		"button:has-text('Autofill with Resume')",
		"a:has-text('Apply Manually')",
		"button:has-text('Apply Manually')",
		"a:has-text('Use My Last Application')",
	)

	for _, selector := range paths {
		option, err := surface.Query(selector)
		if err != nil {
			continue
		}
		log.Printf("[%s] modal path selected: %s", h.cfg.Platform, selector)
		if err := option.Click(); err != nil {
			if errors.Is(err, ErrNavigationLost) {
				return err
			}
			continue
		}
		surface.WaitSettled(h.deps.Checker.settle)
		return nil
	}

	// Residual apply/continue control inside a modal.
	if control, err := h.deps.Prober.FindApplyControl(surface); err == nil {
		if err := control.Click(); err == nil {
			surface.WaitSettled(h.deps.Checker.settle)
		}
	}
	return nil
}

// detectForm requires at least one fillable field or form container, on the
// page or inside one of its frames. Absence is a hard failure, not a silent
// continuation.
func (h *PlatformHandler) detectForm(_ models.JobPosting, _ *models.ApplicantProfile, _ *HandlerResult) error {
	surface := h.surface()

	if h.deps.Prober.HasFormContainer(surface) {
		return nil
	}

	frames, err := surface.Frames()
	if err == nil {
		for _, frame := range frames {
			if h.deps.Prober.HasFormContainer(frame) {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: no application form present", ErrElementNotFound)
}

// fillForm delegates to the fill engine, clearing challenges on either side
// of the pass and advancing multi-step forms between passes.
func (h *PlatformHandler) fillForm(job models.JobPosting, profile *models.ApplicantProfile, result *HandlerResult) error {
	surface := h.surface()

	h.resolveChallenges("before fill")

	report, err := h.deps.Filler.FillForm(surface, profile, job)
	if err != nil {
		return err
	}
	result.FilledCount += report.FilledCount

	if h.cfg.MultiStep {
		if err := h.advanceSteps(job, profile, result); err != nil {
			return err
		}
	}

	h.resolveChallenges("after fill")

	if h.deps.Screenshots != nil {
		if key, err := h.deps.Screenshots.Capture(surface, "form_filled"); err == nil {
			result.ScreenshotKey = key
		}
	}
	return nil
}

// advanceSteps walks a multi-step form, filling each page, capped at the
// platform's configured step count.
func (h *PlatformHandler) advanceSteps(job models.JobPosting, profile *models.ApplicantProfile, result *HandlerResult) error {
	surface := h.surface()
	maxSteps := h.cfg.MaxSteps
	if maxSteps == 0 {
		maxSteps = 5
	}

	for step := 0; step < maxSteps; step++ {
		next, err := h.queryConfigured(surface, h.cfg.NextSelectors)
		if err != nil {
			next, err = h.findAdvanceControl(surface)
		}
		if err != nil {
			return nil
		}

		if err := next.Click(); err != nil {
			if errors.Is(err, ErrNavigationLost) {
				return err
			}
			return nil
		}
		surface.WaitSettled(h.deps.Checker.settle)

		report, err := h.deps.Filler.FillForm(surface, profile, job)
		if err != nil {
			return err
		}
		result.FilledCount += report.FilledCount
	}
	return nil
}

// findAdvanceControl matches continue-style vocabulary without the submit
// bias, so we do not finalize a form we are still walking.
func (h *PlatformHandler) findAdvanceControl(surface Surface) (Element, error) {
	controls, err := surface.QueryAll(controlSelector)
	if err != nil {
		return nil, err
	}
	allow := []string{"next", "continue", "review"}
	deny := append([]string{"submit", "finish"}, h.deps.Heuristics.SubmitDeny...)
	for _, control := range controls {
		if !control.IsVisible() || control.IsDisabled() {
			continue
		}
		if _, ok := MatchIntent(controlText(control), allow, deny); ok {
			return control, nil
		}
	}
	return nil, ErrElementNotFound
}

// reviewAndSubmit counts outstanding required fields as a diagnostic, clears
// any challenge guarding the submit, clicks the submit-intent control and
// synthesizes an attempt id.
func (h *PlatformHandler) reviewAndSubmit(_ models.JobPosting, _ *models.ApplicantProfile, result *HandlerResult) error {
	surface := h.surface()

	missing := h.deps.Filler.CheckRequiredFields(surface)
	if len(missing) > 0 {
		log.Printf("[%s] %d required fields still empty before submit: %v", h.cfg.Platform, len(missing), missing)
	}

	cleared := h.resolveChallenges("before submit")

	control, err := h.queryConfigured(surface, h.cfg.SubmitSelectors)
	if err != nil {
		control, err = h.deps.Prober.FindSubmitControl(surface)
	}
	if err != nil {
		if !cleared {
			return fmt.Errorf("%w: submit control unreachable", ErrChallengeUnresolved)
		}
		return fmt.Errorf("%w: no submit-intent control", ErrElementNotFound)
	}

	if err := control.Click(); err != nil {
		return fmt.Errorf("submit click: %w", err)
	}

	result.AttemptID = uuid.NewString()
	return nil
}

// handlePostSubmission resolves secondary obligations surfaced after submit:
// employment-history follow-ups and email-verification prompts. Best effort
// only.
func (h *PlatformHandler) handlePostSubmission(job models.JobPosting, profile *models.ApplicantProfile, result *HandlerResult) error {
	surface := h.surface()

	content, err := surface.Content()
	if err != nil {
		return err
	}
	lowered := strings.ToLower(content)

	if strings.Contains(lowered, "employment history") || strings.Contains(lowered, "work history") {
		log.Printf("[%s] employment-history follow-up detected, running one more fill pass", h.cfg.Platform)
		if report, err := h.deps.Filler.FillForm(surface, profile, job); err == nil {
			result.FilledCount += report.FilledCount
			if control, err := h.deps.Prober.FindSubmitControl(surface); err == nil {
				control.Click()
			}
		}
	}

	if strings.Contains(lowered, "verification code") || strings.Contains(lowered, "verify your email") {
		log.Printf("[%s] email verification requested post-submit; requires inbox access", h.cfg.Platform)
	}

	return nil
}

// resolveChallenges runs the challenge resolver and logs the report. An
// unresolved challenge does not stop the pipeline here; the submit or the
// verifier will surface the consequence. Returns false when a challenge was
// found and not cleared.
func (h *PlatformHandler) resolveChallenges(when string) bool {
	report, err := h.deps.Challenges.Resolve(h.surface())
	if err != nil {
		log.Printf("[%s] challenge resolution errored %s: %v", h.cfg.Platform, when, err)
		return false
	}
	if report.Type != ChallengeNone {
		log.Printf("[%s] challenge %s %s: resolved=%v %s", h.cfg.Platform, report.Type, when, report.Resolved, report.Detail)
	}
	return report.Resolved
}

func (h *PlatformHandler) queryConfigured(surface Surface, selectors []string) (Element, error) {
	for _, selector := range selectors {
		if el, err := surface.Query(selector); err == nil {
			return el, nil
		}
	}
	return nil, ErrElementNotFound
}
