package domain

import "time"

// Status is the lifecycle state of a slide-extraction job.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusAcquiring Status = "ACQUIRING"
	StatusSampling  Status = "SAMPLING"
	StatusDetecting Status = "DETECTING"
	StatusRendering Status = "RENDERING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status can never change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Job tracks one end-to-end request to turn a video reference into a
// slide document. Mutable fields are written only by the owning pipeline
// goroutine, through the registry.
type Job struct {
	ID           string
	SessionID    string
	VideoRef     string
	Status       Status
	Progress     int // 0-100, non-decreasing while non-terminal
	Message      string
	ErrorKind    ErrorKind
	ErrorDetail  string
	ResultHandle string
	SlideCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
