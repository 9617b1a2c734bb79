package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sahilgala1234/SlideScribe/internal/api/dto"
	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// SubmitJob handles POST /api/v1/jobs
// Submits a video reference for slide extraction and returns the job id.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req dto.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	jobID, err := h.jobs.Submit(c.Request.Context(), req.VideoURL, req.SessionID)
	if err != nil {
		h.logger.Warn("Job submission rejected",
			slog.String("session_id", req.SessionID),
			slog.String("error", err.Error()),
		)
		switch {
		case errors.Is(err, domain.ErrBusy):
			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "Too many jobs running, try again later"})
		case errors.Is(err, domain.ErrSessionHasActiveJob):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "Session already has an active job"})
		case domain.Classify(err) == domain.KindInvalidReference:
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "video_url must be a valid http(s) URL"})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to submit job"})
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmitJobResponse{JobID: jobID})
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns a status snapshot for polling clients.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "job_id must be a valid UUID"})
		return
	}

	job, err := h.jobs.Status(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
		return
	}

	c.JSON(http.StatusOK, dto.JobStatusResponse{
		JobID:       job.ID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		Message:     job.Message,
		ErrorKind:   string(job.ErrorKind),
		ErrorDetail: job.ErrorDetail,
		SlideCount:  job.SlideCount,
		CreatedAt:   job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   job.UpdatedAt.Format(time.RFC3339),
	})
}

// GetResult handles GET /api/v1/jobs/:job_id/result
// Streams the rendered document of a completed job.
func (h *JobHandler) GetResult(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "job_id must be a valid UUID"})
		return
	}

	resultPath, err := h.jobs.Result(jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
		case errors.Is(err, domain.ErrNotReady):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "Result not ready"})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to fetch result"})
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "slides-"+jobID+".pdf"))
	c.Header("Content-Type", "application/pdf")
	c.File(resultPath)
}

// CancelJob handles POST /api/v1/jobs/:job_id/cancel
// Requests cooperative cancellation of a running job.
func (h *JobHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "job_id must be a valid UUID"})
		return
	}

	if err := h.jobs.Cancel(jobID); err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
		case errors.Is(err, domain.ErrAlreadyTerminal):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "Job already in terminal state"})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to cancel job"})
		}
		return
	}

	h.logger.Info("Cancellation acknowledged", slog.String("job_id", jobID))
	c.JSON(http.StatusAccepted, dto.CancelJobResponse{JobID: jobID, Status: "cancelling"})
}
