package services

import (
	"database/sql"
	"fmt"
	"log"

	"applypilot/models"
)

// ResultSink is the append-only log of attempt outcomes and generated
// answers. Rows are written once and never updated; a sink failure is logged
// and swallowed so a dead database cannot halt a run mid-application.
type ResultSink struct {
	db *sql.DB
}

func NewResultSink(db *sql.DB) *ResultSink {
	return &ResultSink{db: db}
}

// AppendSubmission records one finished attempt.
func (s *ResultSink) AppendSubmission(record models.SubmissionRecord) {
	if s.db == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO submissions (url, job_title, company, platform, outcome,
			confirmation_text, confirmation_number, success_score, screenshot_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.URL, record.JobTitle, record.Company, record.Platform, record.Outcome,
		record.ConfirmationText, record.ConfirmationNumber, record.SuccessScore, record.ScreenshotKey,
	)
	if err != nil {
		log.Printf("Failed to append submission record: %v", err)
	}
}

// AppendAnswer records one generated question answer.
func (s *ResultSink) AppendAnswer(record models.AnswerRecord) {
	if s.db == nil {
		return
	}
	_, err := s.db.Exec(
		`INSERT INTO answers (question, answer, job_context, confidence)
		 VALUES ($1, $2, $3, $4)`,
		record.Question, record.Answer, record.JobContext, record.Confidence,
	)
	if err != nil {
		log.Printf("Failed to append answer record: %v", err)
	}
}

// ListSubmissions returns the newest rows first.
func (s *ResultSink) ListSubmissions(limit int) ([]models.SubmissionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, url, job_title, company, platform, outcome,
			confirmation_text, confirmation_number, success_score, screenshot_key
		 FROM submissions ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	defer rows.Close()

	records := []models.SubmissionRecord{}
	for rows.Next() {
		var r models.SubmissionRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.URL, &r.JobTitle, &r.Company, &r.Platform,
			&r.Outcome, &r.ConfirmationText, &r.ConfirmationNumber, &r.SuccessScore, &r.ScreenshotKey); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListAnswers returns the newest rows first.
func (s *ResultSink) ListAnswers(limit int) ([]models.AnswerRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, question, answer, job_context, confidence
		 FROM answers ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer rows.Close()

	records := []models.AnswerRecord{}
	for rows.Next() {
		var r models.AnswerRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Question, &r.Answer, &r.JobContext, &r.Confidence); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
