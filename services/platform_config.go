package services

// PlatformConfig captures everything one ATS family does differently: extra
// selectors its markup uses, its apply-modal paths, its login quirks. One
// shared handler state machine consumes these instead of each platform
// re-implementing the pipeline.
type PlatformConfig struct {
	Platform Platform

	// ApplySelectors are tried before the generic apply-intent text probe.
	ApplySelectors []string

	// ModalPaths resolve a multi-path apply modal, in descending priority:
	// resume-autofill, manual, assisted, last-application, residual apply.
	ModalPaths []string

	// SubmitSelectors are tried before the generic submit-intent probe.
	SubmitSelectors []string

	// NextSelectors advance multi-step forms between fill passes.
	NextSelectors []string

	// Login quirks.
	RequiresAccount    bool
	PerCompanyAccounts bool
	EmailSelector      string
	PasswordSelector   string

	// MultiStep forms are filled again after each advance, bounded.
	MultiStep bool
	MaxSteps  int
}

var platformConfigs = map[Platform]PlatformConfig{
	PlatformWorkday: {
		Platform: PlatformWorkday,
		ApplySelectors: []string{
			"a[data-automation-id='adventureButton']",
			"[data-automation-id='applyButton']",
		},
		ModalPaths: []string{
			"a[data-automation-id='autofillWithResume']",
			"a[data-automation-id='applyManually']",
			"a[data-automation-id='useMyLastApplication']",
		},
		SubmitSelectors: []string{
			"button[data-automation-id='bottom-navigation-next-button']",
		},
		NextSelectors: []string{
			"button[data-automation-id='bottom-navigation-next-button']",
		},
		RequiresAccount:    true,
		PerCompanyAccounts: true,
		EmailSelector:      "input[data-automation-id='email']",
		PasswordSelector:   "input[data-automation-id='password']",
		MultiStep:          true,
		MaxSteps:           8,
	},
	PlatformLinkedIn: {
		Platform: PlatformLinkedIn,
		ApplySelectors: []string{
			"button[aria-label*='Easy Apply']",
			"button:has-text('Easy Apply')",
		},
		ModalPaths: []string{
			"button[aria-label*='Apply with resume']",
		},
		SubmitSelectors: []string{
			"button[aria-label*='Submit application']",
		},
		NextSelectors: []string{
			"button[aria-label*='Continue to next step']",
			"button[aria-label*='Review your application']",
		},
		MultiStep: true,
		MaxSteps:  5,
	},
	PlatformGreenhouse: {
		Platform: PlatformGreenhouse,
		ApplySelectors: []string{
			"#apply_button",
			"a[href*='#app']",
		},
		SubmitSelectors: []string{
			"#submit_app",
			"input[id='submit_app']",
		},
	},
	PlatformLever: {
		Platform: PlatformLever,
		ApplySelectors: []string{
			"a[href*='/apply']",
			".postings-btn",
		},
		SubmitSelectors: []string{
			"button[data-qa='btn-submit']",
		},
	},
	PlatformBambooHR: {
		Platform: PlatformBambooHR,
		ApplySelectors: []string{
			"a[href*='careers'][href*='apply']",
		},
	},
	PlatformApple: {
		Platform: PlatformApple,
		ApplySelectors: []string{
			"#jobdetails-submitapplication",
			"a[href*='/app/submit']",
		},
		RequiresAccount: true,
	},
	PlatformGeneric: {
		Platform: PlatformGeneric,
	},
}

// PlatformConfigFor returns the configuration for a platform, defaulting to
// the generic one.
func PlatformConfigFor(platform Platform) PlatformConfig {
	if cfg, ok := platformConfigs[platform]; ok {
		return cfg
	}
	return platformConfigs[PlatformGeneric]
}
