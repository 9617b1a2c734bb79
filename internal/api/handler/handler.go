package handler

import (
	"context"
	"log/slog"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// JobService is the orchestrator surface the HTTP layer depends on.
type JobService interface {
	Submit(ctx context.Context, videoRef, sessionID string) (string, error)
	Status(jobID string) (domain.Job, error)
	Result(jobID string) (string, error)
	Cancel(jobID string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger *slog.Logger
	Jobs   JobService
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	jobs   JobService
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		jobs:   deps.Jobs,
	}
}
