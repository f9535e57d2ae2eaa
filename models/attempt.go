package models

import "time"

// Outcome is the final judgment for one application attempt.
type Outcome string

const (
	OutcomeSuccess              Outcome = "success"
	OutcomeFailed               Outcome = "failed"
	OutcomeIndeterminate        Outcome = "indeterminate"
	OutcomeManualActionRequired Outcome = "manual_action_required"
)

// SubmissionRecord is one row of the append-only submissions log. Rows are
// written once the outcome is set and never mutated after that.
type SubmissionRecord struct {
	ID                 int       `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	URL                string    `json:"url"`
	JobTitle           string    `json:"job_title"`
	Company            string    `json:"company"`
	Platform           string    `json:"platform"`
	Outcome            string    `json:"outcome"`
	ConfirmationText   string    `json:"confirmation_text,omitempty"`
	ConfirmationNumber string    `json:"confirmation_number,omitempty"`
	SuccessScore       int       `json:"success_score"`
	ScreenshotKey      string    `json:"screenshot_key,omitempty"`
}

// AnswerRecord is one row of the append-only answer log.
type AnswerRecord struct {
	ID         int       `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	JobContext string    `json:"job_context"`
	Confidence float64   `json:"confidence"`
}
