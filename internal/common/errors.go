// Package common provides shared utilities and types used across the
// application.
package common

import (
	"errors"
	"fmt"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// Common application errors.
var (
	// Extraction errors.
	ErrRateLimit  = errors.New("rate limit exceeded")
	ErrMaxRetries = errors.New("max retries exceeded")

	// Pipeline setup errors.
	ErrNoDocuments = errors.New("no documents to process")
	ErrUnknownMode = errors.New("unknown processing mode")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
)

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// StageError marks an error as fatal for one document at a specific
// pipeline stage. The orchestrator converts it into a failed record.
type StageError struct {
	Err   error
	Stage model.Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage it occurred in.
func NewStageError(stage model.Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) {
		return true
	}
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	return false
}
