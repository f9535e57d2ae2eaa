package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"applypilot/models"
)

// authState classifies what the page demands before the form is reachable.
type authState string

const (
	authNone          authState = "none"
	authAuthenticated authState = "authenticated"
	authNeedsLogin    authState = "needs_login"
	authNeedsAccount  authState = "needs_account"
)

// resolveLogin classifies the authentication state and clears it: cached
// credentials drive a login, login failures branch on their classified
// reason, and anything needing a human (2FA, ambiguous account state) halts
// as ManualActionRequired.
func (h *PlatformHandler) resolveLogin(job models.JobPosting, profile *models.ApplicantProfile, _ *HandlerResult) error {
	surface := h.surface()

	state := h.classifyAuthState(surface)
	log.Printf("[%s] auth state: %s", h.cfg.Platform, state)

	switch state {
	case authNone:
		if h.cfg.RequiresAccount {
			// The platform normally gates on an account. No prompt here means
			// an existing session survived or the gate moved; either way the
			// form is the next arbiter.
			log.Printf("[%s] account gate expected but not shown", h.cfg.Platform)
		}
		return nil

	case authAuthenticated:
		return nil

	case authNeedsLogin:
		creds, err := h.lookupCredentials(job)
		if err != nil {
			return err
		}
		if creds == nil {
			// No saved account; an account-creation path may still exist
			// behind the login form.
			if h.hasAccountCreationPath(surface) {
				return h.createAccount(surface, job, profile)
			}
			return &LoginError{Reason: LoginReasonAccountNotFound}
		}
		return h.performLogin(surface, job, profile, creds)

	case authNeedsAccount:
		return h.createAccount(surface, job, profile)
	}

	return nil
}

func (h *PlatformHandler) classifyAuthState(surface Surface) authState {
	// A verified session leaves sign-out affordances around.
	if count, err := surface.Count("a[href*='logout'], a[href*='signout'], button[aria-label*='Sign Out']"); err == nil && count > 0 {
		return authAuthenticated
	}

	hasPassword := false
	if _, err := surface.Query("input[type='password']"); err == nil {
		hasPassword = true
	}
	if !hasPassword {
		return authNone
	}

	// A password field plus dominant create-account vocabulary means the
	// site sent us to registration, not login.
	content, err := surface.Content()
	if err == nil {
		lowered := strings.ToLower(content)
		if strings.Contains(lowered, "create account") || strings.Contains(lowered, "create an account") ||
			strings.Contains(lowered, "sign up") {
			if !strings.Contains(lowered, "sign in") && !strings.Contains(lowered, "log in") {
				return authNeedsAccount
			}
		}
	}
	return authNeedsLogin
}

func (h *PlatformHandler) lookupCredentials(job models.JobPosting) (*models.PlatformCredentials, error) {
	if h.deps.Credentials == nil {
		return nil, nil
	}
	company := ""
	if h.cfg.PerCompanyAccounts {
		company = job.Company
	}
	return h.deps.Credentials.Get(string(h.cfg.Platform), company)
}

func (h *PlatformHandler) performLogin(surface Surface, job models.JobPosting, profile *models.ApplicantProfile, creds *models.PlatformCredentials) error {
	if err := h.fillLoginForm(surface, creds.Email, creds.Password); err != nil {
		return err
	}
	if err := h.submitAuthForm(surface, []string{"sign in", "log in", "login", "continue", "submit"}); err != nil {
		return err
	}
	surface.WaitSettled(h.deps.Checker.settle)

	if h.detectTwoFactor(surface) {
		return &ManualActionError{Reason: "two-factor verification requested"}
	}

	switch reason := h.classifyLoginFailure(surface); reason {
	case "":
		// Verified; refresh the cache so future attempts for this company
		// short-circuit discovery.
		h.saveCredentials(job, creds.Email, creds.Password)
		return nil
	case LoginReasonIncorrectPassword:
		return h.startPasswordReset(surface)
	case LoginReasonAccountNotFound:
		return h.createAccount(surface, job, profile)
	default:
		return &LoginError{Reason: LoginReasonUnknown}
	}
}

// classifyLoginFailure reads the post-submit page for a failure reason. An
// empty string means the login went through.
func (h *PlatformHandler) classifyLoginFailure(surface Surface) string {
	// Password field gone means we are in.
	if _, err := surface.Query("input[type='password']"); errors.Is(err, ErrElementNotFound) {
		return ""
	}

	content, err := surface.Content()
	if err != nil {
		return LoginReasonUnknown
	}
	lowered := strings.ToLower(content)

	switch {
	case strings.Contains(lowered, "incorrect password") || strings.Contains(lowered, "wrong password") ||
		strings.Contains(lowered, "password you entered"):
		return LoginReasonIncorrectPassword
	case strings.Contains(lowered, "account not found") || strings.Contains(lowered, "no account") ||
		strings.Contains(lowered, "couldn't find your account") || strings.Contains(lowered, "doesn't exist"):
		return LoginReasonAccountNotFound
	default:
		return LoginReasonUnknown
	}
}

// startPasswordReset clicks the reset affordance; completing the reset needs
// inbox access, so the attempt halts for a human either way.
func (h *PlatformHandler) startPasswordReset(surface Surface) error {
	reset, err := surface.Query("a[href*='forgot'], a[href*='reset'], button:has-text('Forgot')")
	if err == nil {
		if err := reset.Click(); err == nil {
			surface.WaitSettled(h.deps.Checker.settle)
		}
	}
	return &ManualActionError{Reason: "password reset initiated, check inbox"}
}

// createAccount walks the registration flow with a fresh generated password.
// Credentials are persisted only after the account verifiably works.
func (h *PlatformHandler) createAccount(surface Surface, job models.JobPosting, profile *models.ApplicantProfile) error {
	if create, err := surface.Query("a:has-text('Create Account'), button:has-text('Create Account'), a[href*='register'], a[href*='signup'], a[href*='sign-up']"); err == nil {
		if err := create.Click(); err != nil && errors.Is(err, ErrNavigationLost) {
			return err
		}
		surface.WaitSettled(h.deps.Checker.settle)
	}

	password := generatePassword()
	if err := h.fillLoginForm(surface, profile.Email, password); err != nil {
		return err
	}

	// Registration forms often demand the password twice.
	if confirms, err := surface.QueryAll("input[type='password']"); err == nil && len(confirms) > 1 {
		if err := confirms[1].Fill(password); err != nil {
			log.Printf("[%s] could not fill password confirmation: %v", h.cfg.Platform, err)
		}
	}

	if err := h.submitAuthForm(surface, []string{"create account", "sign up", "register", "continue", "submit"}); err != nil {
		return err
	}
	surface.WaitSettled(h.deps.Checker.settle)

	content, _ := surface.Content()
	lowered := strings.ToLower(content)
	if strings.Contains(lowered, "verify your email") || strings.Contains(lowered, "verification code") ||
		strings.Contains(lowered, "check your email") {
		return &ManualActionError{Reason: "account created, email verification pending"}
	}

	if reason := h.classifyLoginFailure(surface); reason != "" {
		return &LoginError{Reason: reason}
	}

	h.saveCredentials(job, profile.Email, password)
	return nil
}

func (h *PlatformHandler) fillLoginForm(surface Surface, email, password string) error {
	emailSelectors := []string{h.cfg.EmailSelector, "input[type='email']", "input[name*='email']", "input[name*='user']"}
	passwordSelectors := []string{h.cfg.PasswordSelector, "input[type='password']"}

	emailField, err := h.firstVisible(surface, emailSelectors)
	if err != nil {
		return fmt.Errorf("%w: no email field on auth form", ErrElementNotFound)
	}
	if err := emailField.Fill(email); err != nil {
		return err
	}

	passwordField, err := h.firstVisible(surface, passwordSelectors)
	if err != nil {
		return fmt.Errorf("%w: no password field on auth form", ErrElementNotFound)
	}
	return passwordField.Fill(password)
}

func (h *PlatformHandler) submitAuthForm(surface Surface, allow []string) error {
	if button, err := surface.Query("button[type='submit'], input[type='submit']"); err == nil {
		return button.Click()
	}

	controls, err := surface.QueryAll(controlSelector)
	if err != nil {
		return err
	}
	for _, control := range controls {
		if !control.IsVisible() || control.IsDisabled() {
			continue
		}
		if _, ok := MatchIntent(controlText(control), allow, h.deps.Heuristics.SubmitDeny); ok {
			return control.Click()
		}
	}
	return fmt.Errorf("%w: no auth submit control", ErrElementNotFound)
}

func (h *PlatformHandler) detectTwoFactor(surface Surface) bool {
	if count, err := surface.Count("input[name*='otp'], input[autocomplete='one-time-code'], input[name*='2fa']"); err == nil && count > 0 {
		return true
	}
	content, err := surface.Content()
	if err != nil {
		return false
	}
	lowered := strings.ToLower(content)
	return strings.Contains(lowered, "two-factor") || strings.Contains(lowered, "two factor") ||
		strings.Contains(lowered, "authentication code")
}

func (h *PlatformHandler) hasAccountCreationPath(surface Surface) bool {
	count, err := surface.Count("a[href*='register'], a[href*='signup'], a[href*='sign-up'], a:has-text('Create Account')")
	return err == nil && count > 0
}

func (h *PlatformHandler) saveCredentials(job models.JobPosting, email, password string) {
	if h.deps.Credentials == nil {
		return
	}
	company := ""
	if h.cfg.PerCompanyAccounts {
		company = job.Company
	}
	err := h.deps.Credentials.Save(models.PlatformCredentials{
		Platform:   string(h.cfg.Platform),
		Company:    company,
		Email:      email,
		Password:   password,
		VerifiedAt: time.Now(),
	})
	if err != nil {
		log.Printf("[%s] failed to persist credentials: %v", h.cfg.Platform, err)
	}
}

func (h *PlatformHandler) firstVisible(surface Surface, selectors []string) (Element, error) {
	for _, selector := range selectors {
		if selector == "" {
			continue
		}
		if el, err := surface.Query(selector); err == nil {
			return el, nil
		}
	}
	return nil, ErrElementNotFound
}

func generatePassword() string {
	// UUID-derived with fixed symbols to satisfy common complexity rules.
	return "Ap!" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "9"
}
