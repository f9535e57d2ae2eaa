package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applypilot/config"
	"applypilot/models"
)

func testRunConfig() config.RunConfig {
	return config.RunConfig{
		ScoreFloor:      0.5,
		MaxApplications: 10,
		PauseMin:        time.Millisecond,
		PauseMax:        2 * time.Millisecond,
	}
}

func TestSelectCandidates_DedupFloorAndOrder(t *testing.T) {
	orchestrator := NewOrchestrator(testRunConfig(), nil, nil, nil)

	leads := []models.JobLead{
		{Job: models.JobPosting{Title: "Engineer", Company: "Acme", CompositeScore: 0.6}, URL: "https://a.example.com"},
		{Job: models.JobPosting{Title: "Engineer", Company: "Acme", CompositeScore: 0.9}, URL: "https://b.example.com"},
		{Job: models.JobPosting{Title: "Analyst", Company: "Beta", CompositeScore: 0.3}, URL: "https://c.example.com"},
		{Job: models.JobPosting{Title: "Designer", Company: "Gamma", CompositeScore: 0.7}, URL: "https://d.example.com"},
	}

	candidates := orchestrator.selectCandidates(leads)
	require.Len(t, candidates, 2)

	// Highest score first, and the duplicate keeps its best lead URL.
	assert.Equal(t, "Engineer", candidates[0].Job.Title)
	assert.Equal(t, "https://b.example.com", candidates[0].URL)
	assert.Equal(t, "Designer", candidates[1].Job.Title)
}

func TestClassifyOutcome(t *testing.T) {
	assert.Equal(t, models.OutcomeSuccess, classifyOutcome(&HandlerResult{Success: true}))
	assert.Equal(t, models.OutcomeManualActionRequired, classifyOutcome(&HandlerResult{ManualAction: true, Err: &ManualActionError{Reason: "2fa"}}))
	assert.Equal(t, models.OutcomeIndeterminate, classifyOutcome(&HandlerResult{Err: fmt.Errorf("verify: %w", ErrSubmissionIndeterminate)}))
	assert.Equal(t, models.OutcomeFailed, classifyOutcome(&HandlerResult{Err: ErrElementNotFound, Step: StepApplyButtonDetection}))
	assert.Equal(t, models.OutcomeFailed, classifyOutcome(&HandlerResult{Verdict: &Verdict{Success: false}}))
}

func TestOrchestratorRun_FailedLeadDoesNotStopBatch(t *testing.T) {
	// Two leads; both pages lack any apply control, so each attempt fails at
	// the first state, yet both attempts run.
	origin := newFakeSurface("https://www.indeed.com/jobs?q=go")
	session := NewSessionManager(&fakeSession{tabs: []*fakeSurface{origin}}, origin)

	deps := newTestDeps(origin)
	deps.Session = session
	orchestrator := NewOrchestrator(testRunConfig(), NewPlatformDispatcher(deps), session, NewResultSink(nil))

	leads := []models.JobLead{
		{Job: models.JobPosting{Title: "Engineer", Company: "Acme", CompositeScore: 0.8}, URL: "https://careers.acme.example.com/1"},
		{Job: models.JobPosting{Title: "Engineer", Company: "Beta", CompositeScore: 0.7}, URL: "https://careers.beta.example.com/2"},
	}

	stats := orchestrator.Run(context.Background(), leads, testProfile())

	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 0, stats.Succeeded)
	// The origin tab was re-pointed at each lead before its attempt.
	assert.Equal(t, []string{"https://careers.acme.example.com/1", "https://careers.beta.example.com/2"}, origin.navs)
}

func TestOrchestratorRun_RespectsAttemptCap(t *testing.T) {
	origin := newFakeSurface("https://www.indeed.com/jobs?q=go")
	session := NewSessionManager(&fakeSession{tabs: []*fakeSurface{origin}}, origin)

	deps := newTestDeps(origin)
	deps.Session = session

	cfg := testRunConfig()
	cfg.MaxApplications = 1
	orchestrator := NewOrchestrator(cfg, NewPlatformDispatcher(deps), session, NewResultSink(nil))

	leads := []models.JobLead{
		{Job: models.JobPosting{Title: "A", Company: "X", CompositeScore: 0.9}, URL: "https://a.example.com"},
		{Job: models.JobPosting{Title: "B", Company: "Y", CompositeScore: 0.8}, URL: "https://b.example.com"},
	}

	stats := orchestrator.Run(context.Background(), leads, testProfile())
	assert.Equal(t, 1, stats.Attempted)
}

func TestOrchestratorRun_CancelledContextStopsBetweenAttempts(t *testing.T) {
	origin := newFakeSurface("https://www.indeed.com/jobs?q=go")
	session := NewSessionManager(&fakeSession{tabs: []*fakeSurface{origin}}, origin)

	deps := newTestDeps(origin)
	deps.Session = session
	orchestrator := NewOrchestrator(testRunConfig(), NewPlatformDispatcher(deps), session, NewResultSink(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := orchestrator.Run(ctx, []models.JobLead{
		{Job: models.JobPosting{Title: "A", Company: "X", CompositeScore: 0.9}, URL: "https://a.example.com"},
	}, testProfile())

	assert.Equal(t, 0, stats.Attempted)
}
