package services

import (
	"net/url"
	"strings"
)

// Platform names one ATS family.
type Platform string

const (
	PlatformWorkday    Platform = "workday"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformBambooHR   Platform = "bamboohr"
	PlatformApple      Platform = "apple"
	PlatformGeneric    Platform = "generic"
)

// ClassifyPlatform maps a destination URL onto its ATS family. Pure and
// total: the same URL always yields the same platform, and anything
// unrecognized (including unparseable input) degrades to Generic.
func ClassifyPlatform(rawURL string) Platform {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return PlatformGeneric
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	query := strings.ToLower(parsed.RawQuery)

	switch {
	case strings.Contains(host, "myworkdayjobs.com") || strings.Contains(host, "workday"):
		return PlatformWorkday
	case strings.Contains(host, "linkedin.com"):
		return PlatformLinkedIn
	case strings.Contains(host, "greenhouse.io") || strings.Contains(query, "gh_jid"):
		return PlatformGreenhouse
	case strings.Contains(host, "lever.co"):
		return PlatformLever
	case strings.Contains(host, "bamboohr.com"):
		return PlatformBambooHR
	case host == "jobs.apple.com" || strings.HasSuffix(host, ".apple.com") || host == "apple.com":
		return PlatformApple
	default:
		return PlatformGeneric
	}
}

// PlatformDispatcher binds a classified URL to a configured handler.
type PlatformDispatcher struct {
	deps HandlerDeps
}

func NewPlatformDispatcher(deps HandlerDeps) *PlatformDispatcher {
	return &PlatformDispatcher{deps: deps}
}

// Dispatch selects the platform handler for a destination URL. There is no
// error case; unmatched URLs get the generic handler.
func (d *PlatformDispatcher) Dispatch(rawURL string) *PlatformHandler {
	platform := ClassifyPlatform(rawURL)
	return NewPlatformHandler(PlatformConfigFor(platform), d.deps)
}
