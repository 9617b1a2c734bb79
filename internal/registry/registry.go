// Package registry is the in-memory store of job records shared between
// the HTTP polling surface and the background pipeline goroutines.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// Registry stores jobs keyed by id. Reads return value snapshots, so a
// poller never observes a half-applied update. Terminal jobs are kept for
// the retention window and then expired by the janitor.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*domain.Job
	logger *slog.Logger
	now    func() time.Time
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		jobs:   make(map[string]*domain.Job),
		logger: logger,
		now:    time.Now,
	}
}

// Update is a partial mutation of a job's non-terminal fields.
// Nil fields are left untouched.
type Update struct {
	Status   *domain.Status
	Progress *int
	Message  *string
}

// Create allocates a new queued job and returns its id.
func (r *Registry) Create(sessionID, videoRef string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	job := &domain.Job{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		VideoRef:  videoRef,
		Status:    domain.StatusQueued,
		Progress:  0,
		Message:   "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.jobs[job.ID] = job
	return job.ID
}

// Get returns a snapshot of the job, or false if the id is unknown.
func (r *Registry) Get(id string) (domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return *job, true
}

// Apply performs a partial update. It is a no-op if the job is terminal or
// unknown. Progress never decreases; a lower value is ignored.
func (r *Registry) Apply(id string, u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}

	if u.Status != nil {
		job.Status = *u.Status
	}
	if u.Progress != nil && *u.Progress > job.Progress {
		job.Progress = *u.Progress
	}
	if u.Message != nil {
		job.Message = *u.Message
	}
	job.UpdatedAt = r.now()
}

// SetStage updates status, progress and message in one write.
func (r *Registry) SetStage(id string, status domain.Status, progress int, message string) {
	r.Apply(id, Update{Status: &status, Progress: &progress, Message: &message})
}

// SetProgress updates progress and message without changing the status.
func (r *Registry) SetProgress(id string, progress int, message string) {
	r.Apply(id, Update{Progress: &progress, Message: &message})
}

// Fail transitions the job to FAILED with a classified error. No-op on a
// terminal job.
func (r *Registry) Fail(id string, kind domain.ErrorKind, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = domain.StatusFailed
	job.ErrorKind = kind
	job.ErrorDetail = detail
	job.Message = "processing failed"
	job.UpdatedAt = r.now()
}

// Complete transitions the job to COMPLETED with its result handle.
func (r *Registry) Complete(id, resultHandle string, slideCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = domain.StatusCompleted
	job.Progress = 100
	job.Message = "document ready"
	job.ResultHandle = resultHandle
	job.SlideCount = slideCount
	job.UpdatedAt = r.now()
}

// Cancel transitions the job to CANCELLED. Cancellation is a distinct
// terminal outcome, not a failure, so the error fields stay empty.
func (r *Registry) Cancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Status = domain.StatusCancelled
	job.Message = "cancelled"
	job.UpdatedAt = r.now()
}

// Expire removes terminal jobs last updated before the cutoff and returns
// the snapshots of the removed jobs so the caller can release result files.
func (r *Registry) Expire(olderThan time.Time) []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []domain.Job
	for id, job := range r.jobs {
		if job.Status.Terminal() && job.UpdatedAt.Before(olderThan) {
			removed = append(removed, *job)
			delete(r.jobs, id)
		}
	}
	return removed
}

// StartJanitor runs periodic expiry until the context is cancelled.
// onExpire, if non-nil, is called with each batch of removed jobs.
func (r *Registry) StartJanitor(ctx context.Context, interval, retention time.Duration, onExpire func([]domain.Job)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := r.Expire(r.now().Add(-retention))
				if len(removed) > 0 {
					r.logger.Info("Expired terminal jobs",
						slog.Int("count", len(removed)),
					)
					if onExpire != nil {
						onExpire(removed)
					}
				}
			}
		}
	}()
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
