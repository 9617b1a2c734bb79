package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure for callers polling job status.
type ErrorKind string

const (
	KindInvalidReference  ErrorKind = "INVALID_REFERENCE"
	KindNetworkError      ErrorKind = "NETWORK_ERROR"
	KindUnsupportedFormat ErrorKind = "UNSUPPORTED_FORMAT"
	KindDecodeError       ErrorKind = "DECODE_ERROR"
	KindNoSlidesDetected  ErrorKind = "NO_SLIDES_DETECTED"
	KindRenderError       ErrorKind = "RENDER_ERROR"
	KindTimeout           ErrorKind = "TIMEOUT"
	KindCancelled         ErrorKind = "CANCELLED"
	KindBusy              ErrorKind = "BUSY"
	KindInternal          ErrorKind = "INTERNAL_ERROR"
)

var (
	// ErrJobNotFound is returned when a job id is unknown or expired.
	ErrJobNotFound = errors.New("job not found")

	// ErrBusy is returned when the concurrent-jobs limit is reached.
	ErrBusy = errors.New("too many jobs running")

	// ErrSessionHasActiveJob is returned when a session submits while a
	// previous job of the same session is still non-terminal.
	ErrSessionHasActiveJob = errors.New("session already has an active job")

	// ErrAlreadyTerminal is returned when cancelling a finished job.
	ErrAlreadyTerminal = errors.New("job already in terminal state")

	// ErrNotReady is returned when fetching the result of an unfinished job.
	ErrNotReady = errors.New("result not ready")
)

// PipelineError carries a classified stage failure into the job record.
type PipelineError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError wraps a stage error with its classification.
func NewPipelineError(kind ErrorKind, detail string, err error) error {
	return &PipelineError{Kind: kind, Detail: detail, Err: err}
}

// Classify maps an arbitrary stage error onto the error taxonomy.
// Context cancellation and deadline expiry are recognized so cooperative
// stops inside a stage classify the same way as checks between frames.
func Classify(err error) ErrorKind {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindInternal
}

// Detail extracts the human-readable detail string from a stage error.
func Detail(err error) string {
	var perr *PipelineError
	if errors.As(err, &perr) {
		if perr.Err != nil {
			return fmt.Sprintf("%s: %v", perr.Detail, perr.Err)
		}
		return perr.Detail
	}
	return err.Error()
}
