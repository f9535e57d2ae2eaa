package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdoptExternalTab_HandOff(t *testing.T) {
	origin := newFakeSurface("https://www.indeed.com/jobs?q=go")
	external := newFakeSurface("https://acme.wd5.myworkdayjobs.com/job/1")
	session := &fakeSession{tabs: []*fakeSurface{origin, external}}

	manager := NewSessionManager(session, origin)

	adopted, err := manager.AdoptExternalTab()
	require.NoError(t, err)
	assert.True(t, adopted)
	assert.Same(t, external, manager.Current().(*fakeSurface))
	assert.False(t, origin.closed)
}

func TestAdoptExternalTab_IgnoresOriginDomainAndBlanks(t *testing.T) {
	origin := newFakeSurface("https://www.indeed.com/jobs?q=go")
	sameDomain := newFakeSurface("https://indeed.com/viewjob?jk=1")
	blank := newFakeSurface("about:blank")
	session := &fakeSession{tabs: []*fakeSurface{origin, sameDomain, blank}}

	manager := NewSessionManager(session, origin)

	adopted, err := manager.AdoptExternalTab()
	require.NoError(t, err)
	assert.False(t, adopted)
	assert.Same(t, origin, manager.Current().(*fakeSurface))
	// Non-origin, non-current tabs are reaped either way.
	assert.True(t, sameDomain.closed)
	assert.True(t, blank.closed)
}

func TestAdoptExternalTab_OriginDuplicateClosed(t *testing.T) {
	// Two tabs post-click: one matching the discovery origin, one external.
	// The external becomes current, the origin duplicate is closed, the true
	// original survives for later cleanup.
	origin := newFakeSurface("https://www.indeed.com/jobs?q=go")
	duplicate := newFakeSurface("https://www.indeed.com/viewjob?jk=2")
	external := newFakeSurface("https://boards.greenhouse.io/acme/jobs/9")
	session := &fakeSession{tabs: []*fakeSurface{origin, duplicate, external}}

	manager := NewSessionManager(session, origin)

	adopted, err := manager.AdoptExternalTab()
	require.NoError(t, err)
	assert.True(t, adopted)
	assert.Same(t, external, manager.Current().(*fakeSurface))
	assert.True(t, duplicate.closed)
	assert.False(t, origin.closed)
}

func TestCleanup_LeavesExactlyOriginalTab(t *testing.T) {
	for _, extras := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d_extras", extras), func(t *testing.T) {
			origin := newFakeSurface("https://www.indeed.com/jobs?q=go")
			session := &fakeSession{tabs: []*fakeSurface{origin}}
			for i := 0; i < extras; i++ {
				session.tabs = append(session.tabs, newFakeSurface(fmt.Sprintf("https://ats%d.example.com/apply", i)))
			}

			manager := NewSessionManager(session, origin)
			if extras > 0 {
				_, err := manager.AdoptExternalTab()
				require.NoError(t, err)
			}

			require.NoError(t, manager.Cleanup())

			open, err := session.Tabs()
			require.NoError(t, err)
			require.Len(t, open, 1)
			assert.Same(t, origin, open[0].(*fakeSurface))
			assert.Same(t, origin, manager.Current().(*fakeSurface))
		})
	}
}
