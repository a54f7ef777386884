package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for service errors.
var (
	ErrNotReady             = errors.New("evaluation not ready for submission")
	ErrSubmissionInFlight   = errors.New("submission already in progress")
	ErrTooManySubmissions   = errors.New("too many submissions in progress")
	ErrNotAssigned          = errors.New("application not assigned to judge")
	ErrSubmissionFailed     = errors.New("submission failed")
	ErrBackendNotConfigured = errors.New("backend not configured")
	ErrArchiveNotConfigured = errors.New("archive not configured")
	ErrInvalidKey           = errors.New("event, judge and application ids are required")
	ErrInvalidFilter        = errors.New("invalid filter")
)

// ValidationError lists the criteria still blocking a submission.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing scores for: %s", strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrNotReady }
