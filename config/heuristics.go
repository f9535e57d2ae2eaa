package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Heuristics holds every keyword and threshold the engine matches against
// third-party pages. Target sites change, so the whole table can be replaced
// from a YAML file instead of recompiling.
type Heuristics struct {
	ApplyAllow []string `yaml:"apply_allow"`
	ApplyDeny  []string `yaml:"apply_deny"`

	SubmitAllow []string `yaml:"submit_allow"`
	SubmitDeny  []string `yaml:"submit_deny"`

	SuccessKeywords   []string `yaml:"success_keywords"`
	FailureKeywords   []string `yaml:"failure_keywords"`
	SuccessURLSignals []string `yaml:"success_url_signals"`
	FailureURLSignals []string `yaml:"failure_url_signals"`

	// MinSuccessScore is the keyword-hit count that lets a verdict pass without
	// a corroborating success element or URL signal. Empirically chosen; tune
	// per deployment rather than in code.
	MinSuccessScore int `yaml:"min_success_score"`
}

// DefaultHeuristics is the compiled-in table used when no override file is given.
func DefaultHeuristics() *Heuristics {
	return &Heuristics{
		ApplyAllow: []string{
			"apply now", "easy apply", "apply", "submit application",
			"start application", "apply for this job", "submit", "continue",
		},
		ApplyDeny: []string{
			"save", "share", "refer", "referral", "earn", "sign in with",
			"login with", "back", "menu", "search", "filter", "follow",
		},
		SubmitAllow: []string{
			"submit application", "submit", "finish", "complete application",
			"complete", "send application", "save and continue", "review",
			"next", "continue",
		},
		SubmitDeny: []string{
			"back", "previous", "cancel", "menu", "home", "language",
			"español", "français", "deutsch", "sign out", "privacy", "cookie",
		},
		SuccessKeywords: []string{
			"thank you", "application submitted", "successfully submitted",
			"application received", "we have received", "under review",
			"confirmation", "you're all set", "all done", "application complete",
			"we'll be in touch", "good luck",
		},
		FailureKeywords: []string{
			"error", "invalid", "required field", "please correct",
			"something went wrong", "could not be submitted", "failed",
			"try again", "missing",
		},
		SuccessURLSignals: []string{"success", "confirmation", "thank-you", "thankyou", "complete", "submitted"},
		FailureURLSignals: []string{"error", "failed", "invalid"},
		MinSuccessScore:   2,
	}
}

// LoadHeuristics returns the defaults overlaid with any table present in the
// YAML file at path. An empty path means defaults only.
func LoadHeuristics(path string) (*Heuristics, error) {
	h := DefaultHeuristics()
	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading heuristics file: %w", err)
	}

	var override Heuristics
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parsing heuristics file: %w", err)
	}

	h.merge(&override)
	return h, nil
}

func (h *Heuristics) merge(o *Heuristics) {
	if len(o.ApplyAllow) > 0 {
		h.ApplyAllow = o.ApplyAllow
	}
	if len(o.ApplyDeny) > 0 {
		h.ApplyDeny = o.ApplyDeny
	}
	if len(o.SubmitAllow) > 0 {
		h.SubmitAllow = o.SubmitAllow
	}
	if len(o.SubmitDeny) > 0 {
		h.SubmitDeny = o.SubmitDeny
	}
	if len(o.SuccessKeywords) > 0 {
		h.SuccessKeywords = o.SuccessKeywords
	}
	if len(o.FailureKeywords) > 0 {
		h.FailureKeywords = o.FailureKeywords
	}
	if len(o.SuccessURLSignals) > 0 {
		h.SuccessURLSignals = o.SuccessURLSignals
	}
	if len(o.FailureURLSignals) > 0 {
		h.FailureURLSignals = o.FailureURLSignals
	}
	if o.MinSuccessScore > 0 {
		h.MinSuccessScore = o.MinSuccessScore
	}
}
