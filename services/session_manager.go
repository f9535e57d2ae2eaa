package services

import (
	"log"
	"net/url"
	"strings"
)

// SessionManager owns the "current tab" reference for the whole run. Apply
// clicks routinely spawn tabs on third-party recruiting sites; the manager
// adopts the first external one, reaps strays, and can always restore the
// original discovery tab.
type SessionManager struct {
	session      TabSession
	origin       Surface
	originDomain string
	current      Surface
}

func NewSessionManager(session TabSession, origin Surface) *SessionManager {
	return &SessionManager{
		session:      session,
		origin:       origin,
		originDomain: hostOf(origin.URL()),
		current:      origin,
	}
}

// Current returns the only Surface that may be driven right now.
func (m *SessionManager) Current() Surface {
	return m.current
}

// Origin returns the original discovery tab.
func (m *SessionManager) Origin() Surface {
	return m.origin
}

// AdoptExternalTab enumerates open tabs after an action that may have opened
// new ones. The first tab that is neither on the discovery domain nor a blank
// placeholder becomes current; every other tab except the original and the
// new current is closed. Returns true when a hand-off tab was adopted.
func (m *SessionManager) AdoptExternalTab() (bool, error) {
	tabs, err := m.session.Tabs()
	if err != nil {
		return false, err
	}

	var adopted Surface
	for _, tab := range tabs {
		if tab == m.origin {
			continue
		}
		if m.isOriginOrBlank(tab.URL()) {
			continue
		}
		adopted = tab
		break
	}

	if adopted != nil {
		m.current = adopted
		log.Printf("Adopted external tab: %s", adopted.URL())
	}

	for _, tab := range tabs {
		if tab == m.origin || tab == m.current {
			continue
		}
		log.Printf("Closing stray tab: %s", tab.URL())
		if err := tab.Close(); err != nil {
			log.Printf("Failed to close stray tab: %v", err)
		}
	}

	return adopted != nil, nil
}

// Cleanup closes every tab except the original discovery tab and makes it
// current again. Run between attempts and at shutdown.
func (m *SessionManager) Cleanup() error {
	tabs, err := m.session.Tabs()
	if err != nil {
		return err
	}

	for _, tab := range tabs {
		if tab == m.origin {
			continue
		}
		if err := tab.Close(); err != nil {
			log.Printf("Failed to close tab during cleanup: %v", err)
		}
	}

	m.current = m.origin
	return nil
}

func (m *SessionManager) isOriginOrBlank(rawURL string) bool {
	if rawURL == "" || rawURL == "about:blank" {
		return true
	}
	host := hostOf(rawURL)
	if host == "" {
		return true
	}
	return host == m.originDomain || strings.HasSuffix(host, "."+m.originDomain)
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}
