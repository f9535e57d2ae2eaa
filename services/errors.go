package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for heuristic probes. A probe that finds nothing returns
// ErrElementNotFound; callers branch on it rather than assuming presence.
var (
	ErrElementNotFound         = errors.New("no element matched")
	ErrNavigationLost          = errors.New("page context destroyed by navigation")
	ErrChallengeUnresolved     = errors.New("anti-bot challenge unresolved")
	ErrSubmissionIndeterminate = errors.New("submission outcome indeterminate")
)

// Login failure reasons the handler can branch on.
const (
	LoginReasonIncorrectPassword = "incorrect_password"
	LoginReasonAccountNotFound   = "account_not_found"
	LoginReasonUnknown           = "unknown"
)

// LoginError carries the classified reason for a failed login attempt.
type LoginError struct {
	Reason string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed: %s", e.Reason)
}

// ManualActionError signals a state automation cannot clear (2FA, ambiguous
// account state). The orchestrator pauses the attempt instead of retrying.
type ManualActionError struct {
	Reason string
}

func (e *ManualActionError) Error() string {
	return fmt.Sprintf("manual action required: %s", e.Reason)
}

// StepError records which pipeline state an attempt failed in. Later states
// never run once a StepError is raised.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
