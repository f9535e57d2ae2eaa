package services

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"applypilot/config"
	"applypilot/models"
)

// Orchestrator walks the scored leads one at a time through the platform
// pipeline. Attempts are strictly sequential; the shared browser session and
// the anti-bot posture both depend on never driving two applications at once.
type Orchestrator struct {
	run        config.RunConfig
	dispatcher *PlatformDispatcher
	session    *SessionManager
	sink       *ResultSink
}

func NewOrchestrator(run config.RunConfig, dispatcher *PlatformDispatcher, session *SessionManager, sink *ResultSink) *Orchestrator {
	return &Orchestrator{run: run, dispatcher: dispatcher, session: session, sink: sink}
}

// RunStats summarizes one batch.
type RunStats struct {
	Attempted     int
	Succeeded     int
	Failed        int
	Indeterminate int
	ManualAction  int
}

// Run deduplicates and ranks the leads, then applies to each survivor until
// the attempt cap or the candidate list is exhausted. Per-lead failures are
// logged and the loop advances; ctx cancellation stops between attempts.
func (o *Orchestrator) Run(ctx context.Context, leads []models.JobLead, profile *models.ApplicantProfile) *RunStats {
	stats := &RunStats{}

	candidates := o.selectCandidates(leads)
	log.Printf("Orchestrator: %d leads, %d candidates after dedup and score floor %.2f",
		len(leads), len(candidates), o.run.ScoreFloor)

	for i, lead := range candidates {
		if ctx.Err() != nil {
			log.Printf("Orchestrator: run cancelled after %d attempts", stats.Attempted)
			break
		}
		if o.run.MaxApplications > 0 && stats.Attempted >= o.run.MaxApplications {
			log.Printf("Orchestrator: attempt cap %d reached", o.run.MaxApplications)
			break
		}

		o.applyOnce(lead, profile, stats)

		if i < len(candidates)-1 {
			o.pause(ctx)
		}
	}

	log.Printf("Orchestrator: done. attempted=%d succeeded=%d failed=%d indeterminate=%d manual=%d",
		stats.Attempted, stats.Succeeded, stats.Failed, stats.Indeterminate, stats.ManualAction)
	return stats
}

func (o *Orchestrator) selectCandidates(leads []models.JobLead) []models.JobLead {
	byKey := make(map[string]models.JobLead, len(leads))
	jobs := make([]models.JobPosting, 0, len(leads))
	for _, lead := range leads {
		jobs = append(jobs, lead.Job)
		key := lead.Job.Key()
		if existing, ok := byKey[key]; !ok || lead.Job.CompositeScore > existing.Job.CompositeScore {
			byKey[key] = lead
		}
	}

	ranked := models.RankJobs(models.DedupJobs(jobs), o.run.ScoreFloor)
	candidates := make([]models.JobLead, 0, len(ranked))
	for _, job := range ranked {
		candidates = append(candidates, byKey[job.Key()])
	}
	return candidates
}

// applyOnce runs a single attempt with full recovery: whatever goes wrong,
// the session is cleaned and an attempt record lands in the sink.
func (o *Orchestrator) applyOnce(lead models.JobLead, profile *models.ApplicantProfile, stats *RunStats) {
	stats.Attempted++
	startedAt := time.Now()

	handler := o.dispatcher.Dispatch(lead.URL)
	log.Printf("Applying to %q at %q via %s (%s)", lead.Job.Title, lead.Job.Company, handler.Platform(), lead.URL)

	defer func() {
		if err := o.session.Cleanup(); err != nil {
			log.Printf("Session cleanup failed: %v", err)
		}
	}()

	if err := o.session.Origin().Navigate(lead.URL); err != nil {
		log.Printf("Navigation to lead failed: %v", err)
		stats.Failed++
		o.record(lead, handler, &HandlerResult{Err: err, Step: "navigation"}, startedAt, models.OutcomeFailed)
		return
	}

	result := handler.Run(lead.Job, profile)
	outcome := classifyOutcome(result)

	switch outcome {
	case models.OutcomeSuccess:
		stats.Succeeded++
	case models.OutcomeManualActionRequired:
		stats.ManualAction++
	case models.OutcomeIndeterminate:
		stats.Indeterminate++
	default:
		stats.Failed++
	}

	o.record(lead, handler, result, startedAt, outcome)
}

func classifyOutcome(result *HandlerResult) models.Outcome {
	switch {
	case result.Success:
		return models.OutcomeSuccess
	case result.ManualAction:
		return models.OutcomeManualActionRequired
	case errors.Is(result.Err, ErrSubmissionIndeterminate):
		return models.OutcomeIndeterminate
	case result.Err == nil && result.Verdict != nil && !result.Verdict.Success:
		return models.OutcomeFailed
	default:
		return models.OutcomeFailed
	}
}

func (o *Orchestrator) record(lead models.JobLead, handler *PlatformHandler, result *HandlerResult, startedAt time.Time, outcome models.Outcome) {
	record := models.SubmissionRecord{
		Timestamp: startedAt,
		URL:       lead.URL,
		JobTitle:  lead.Job.Title,
		Company:   lead.Job.Company,
		Platform:  string(handler.Platform()),
		Outcome:   string(outcome),
	}
	if result.Verdict != nil {
		record.ConfirmationText = result.Verdict.ConfirmationText
		record.ConfirmationNumber = result.Verdict.ConfirmationNumber
		record.SuccessScore = result.Verdict.SuccessScore
	}
	record.ScreenshotKey = result.ScreenshotKey
	o.sink.AppendSubmission(record)

	if result.Err != nil {
		log.Printf("Attempt finished: outcome=%s step=%s err=%v", outcome, result.Step, result.Err)
	} else {
		log.Printf("Attempt finished: outcome=%s filled=%d", outcome, result.FilledCount)
	}
}

// pause sleeps a randomized interval between attempts so the cadence does not
// look mechanical. Cancellation cuts the sleep short.
func (o *Orchestrator) pause(ctx context.Context) {
	min := o.run.PauseMin
	max := o.run.PauseMax
	if max <= min {
		max = min + time.Second
	}
	wait := min + time.Duration(rand.Int63n(int64(max-min)))
	log.Printf("Pausing %s before next attempt", wait.Round(time.Second))

	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
