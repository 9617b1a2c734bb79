// Package pipeline drives slide-extraction jobs end to end: acquire the
// video, sample frames, detect slides, render the document. One goroutine
// owns each job; the registry is the only structure shared with the
// polling surface.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sahilgala1234/SlideScribe/internal/assembler"
	"github.com/sahilgala1234/SlideScribe/internal/detector"
	"github.com/sahilgala1234/SlideScribe/internal/domain"
	"github.com/sahilgala1234/SlideScribe/internal/provider"
	"github.com/sahilgala1234/SlideScribe/internal/registry"
	"github.com/sahilgala1234/SlideScribe/internal/sampler"
)

// Progress checkpoints per stage. Detection scales across its span by
// frames processed over the estimated total.
const (
	progressAcquired   = 10
	progressSampled    = 20
	progressDetectEnd  = 90
	progressDetectSpan = progressDetectEnd - progressSampled
)

// SamplerOpener opens an acquired video into a lazy frame source.
type SamplerOpener interface {
	Open(ctx context.Context, videoPath string) (sampler.Source, error)
}

// TerminalRecorder archives jobs that reached a terminal state.
type TerminalRecorder interface {
	RecordTerminal(ctx context.Context, job domain.Job) error
}

// StatusPublisher emits job status-change events.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, job domain.Job)
}

// Config holds orchestrator settings.
type Config struct {
	MaxConcurrentJobs int
	SlideThreshold    float64
	JobTimeout        time.Duration // 0 disables the wall-clock timeout
	OutputDir         string
}

// Orchestrator owns job submission, execution and cancellation.
type Orchestrator struct {
	logger    *slog.Logger
	registry  *registry.Registry
	source    provider.VideoSource
	sampler   SamplerOpener
	assembler *assembler.Assembler
	recorder  TerminalRecorder // optional
	publisher StatusPublisher  // optional
	cfg       Config

	sem chan struct{}
	wg  sync.WaitGroup

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	sessions map[string]string // session id -> active job id
}

// Dependencies holds everything an orchestrator needs. Recorder and
// Publisher may be nil.
type Dependencies struct {
	Logger    *slog.Logger
	Registry  *registry.Registry
	Source    provider.VideoSource
	Sampler   SamplerOpener
	Assembler *assembler.Assembler
	Recorder  TerminalRecorder
	Publisher StatusPublisher
}

// New creates an orchestrator.
func New(deps *Dependencies, cfg Config) *Orchestrator {
	return &Orchestrator{
		logger:    deps.Logger,
		registry:  deps.Registry,
		source:    deps.Source,
		sampler:   deps.Sampler,
		assembler: deps.Assembler,
		recorder:  deps.Recorder,
		publisher: deps.Publisher,
		cfg:       cfg,
		sem:       make(chan struct{}, cfg.MaxConcurrentJobs),
		cancels:   make(map[string]context.CancelFunc),
		sessions:  make(map[string]string),
	}
}

// Submit creates a job for the video reference and spawns its background
// execution. It rejects invalid references, sessions with an active job,
// and submissions beyond the concurrent-jobs limit.
func (o *Orchestrator) Submit(ctx context.Context, videoRef, sessionID string) (string, error) {
	if !provider.ValidateReference(videoRef) {
		return "", domain.NewPipelineError(domain.KindInvalidReference,
			fmt.Sprintf("invalid video reference %q", videoRef), nil)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if activeID, ok := o.sessions[sessionID]; ok {
		if job, found := o.registry.Get(activeID); found && !job.Status.Terminal() {
			return "", domain.ErrSessionHasActiveJob
		}
		delete(o.sessions, sessionID)
	}

	select {
	case o.sem <- struct{}{}:
	default:
		return "", domain.ErrBusy
	}

	jobID := o.registry.Create(sessionID, videoRef)

	jobCtx, cancel := context.WithCancel(context.Background())
	o.cancels[jobID] = cancel
	o.sessions[sessionID] = jobID

	o.logger.Info("Job submitted",
		slog.String("job_id", jobID),
		slog.String("session_id", sessionID),
		slog.String("reference", videoRef),
	)

	o.wg.Add(1)
	go o.run(jobCtx, jobID, videoRef, sessionID)

	return jobID, nil
}

// Cancel requests cooperative cancellation of a running job. The job
// reaches CANCELLED within one frame of processing latency.
func (o *Orchestrator) Cancel(jobID string) error {
	job, ok := o.registry.Get(jobID)
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status.Terminal() {
		return domain.ErrAlreadyTerminal
	}

	o.mu.Lock()
	cancel, ok := o.cancels[jobID]
	o.mu.Unlock()
	if ok {
		cancel()
	}

	o.logger.Info("Job cancellation requested",
		slog.String("job_id", jobID),
	)
	return nil
}

// Status returns a snapshot of the job.
func (o *Orchestrator) Status(jobID string) (domain.Job, error) {
	job, ok := o.registry.Get(jobID)
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return job, nil
}

// Result returns the result handle of a completed job.
func (o *Orchestrator) Result(jobID string) (string, error) {
	job, ok := o.registry.Get(jobID)
	if !ok {
		return "", domain.ErrJobNotFound
	}
	if job.Status != domain.StatusCompleted {
		return "", domain.ErrNotReady
	}
	return job.ResultHandle, nil
}

// Shutdown cancels all running jobs and waits for them to finish, up to
// the context deadline.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	for _, cancel := range o.cancels {
		cancel()
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown wait: %w", ctx.Err())
	}
}

// run executes one job through all stages and settles its terminal state.
func (o *Orchestrator) run(ctx context.Context, jobID, videoRef, sessionID string) {
	defer o.wg.Done()
	defer func() {
		<-o.sem
		o.mu.Lock()
		delete(o.cancels, jobID)
		if o.sessions[sessionID] == jobID {
			delete(o.sessions, sessionID)
		}
		o.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Job panicked",
				slog.String("job_id", jobID),
				slog.Any("panic", r),
			)
			o.registry.Fail(jobID, domain.KindInternal, fmt.Sprintf("internal failure: %v", r))
			o.settleTerminal(jobID)
		}
	}()

	if o.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.JobTimeout)
		defer cancel()
	}

	log := o.logger.With(slog.String("job_id", jobID))
	start := time.Now()

	err := o.execute(ctx, jobID, videoRef, log)
	if err != nil {
		switch kind := domain.Classify(err); kind {
		case domain.KindCancelled:
			o.registry.Cancel(jobID)
			log.Info("Job cancelled",
				slog.Duration("elapsed", time.Since(start)),
			)
		case domain.KindTimeout:
			o.registry.Fail(jobID, domain.KindTimeout, "job exceeded wall-clock timeout")
			log.Warn("Job timed out",
				slog.Duration("timeout", o.cfg.JobTimeout),
			)
		default:
			o.registry.Fail(jobID, kind, domain.Detail(err))
			log.Error("Job failed",
				slog.String("error_kind", string(kind)),
				slog.String("error", err.Error()),
			)
		}
	} else {
		log.Info("Job completed",
			slog.Duration("elapsed", time.Since(start)),
		)
	}

	o.settleTerminal(jobID)
}

// execute runs the stage sequence. Any returned error is classified by the
// caller; a nil return means the job was completed in the registry.
func (o *Orchestrator) execute(ctx context.Context, jobID, videoRef string, log *slog.Logger) error {
	// Acquiring: 0 -> 10.
	o.setStage(ctx, jobID, domain.StatusAcquiring, 0, "downloading video")

	video, err := o.source.Acquire(ctx, videoRef)
	if err != nil {
		return err
	}
	defer video.Cleanup()

	// Sampling: 10 -> 20.
	o.setStage(ctx, jobID, domain.StatusSampling, progressAcquired, "sampling frames")

	frames, err := o.sampler.Open(ctx, video.Path)
	if err != nil {
		return err
	}
	defer frames.Close()

	// Detecting: 20 -> 90, interleaved pull-and-score, one registry write
	// per processed frame.
	o.setStage(ctx, jobID, domain.StatusDetecting, progressSampled, "detecting slides")

	det := detector.New(o.cfg.SlideThreshold, log)
	processed := 0
	for {
		frame, err := frames.Next(ctx)
		if errors.Is(err, sampler.ErrEndOfStream) {
			break
		}
		if err != nil {
			return err
		}

		det.Process(frame)
		processed++

		o.registry.SetProgress(jobID,
			detectionProgress(processed, frames.EstimatedTotal()),
			fmt.Sprintf("analyzed %d frames, %d slides", processed, det.Count()),
		)
	}

	if det.Count() == 0 {
		return domain.NewPipelineError(domain.KindNoSlidesDetected,
			"video produced no frames to analyze", nil)
	}

	log.Info("Detection finished",
		slog.Int("frames", processed),
		slog.Int("slides", det.Count()),
	)

	// Rendering: 90 -> 100.
	o.setStage(ctx, jobID, domain.StatusRendering, progressDetectEnd, "rendering document")

	document, err := o.assembler.Assemble(ctx, det.Slides())
	if err != nil {
		return err
	}

	resultPath := filepath.Join(o.cfg.OutputDir, jobID+".pdf")
	if err := os.WriteFile(resultPath, document, 0o644); err != nil {
		return domain.NewPipelineError(domain.KindRenderError, "write rendered document", err)
	}

	o.registry.Complete(jobID, resultPath, det.Count())
	return nil
}

// setStage writes a stage transition and publishes it as a status event.
func (o *Orchestrator) setStage(ctx context.Context, jobID string, status domain.Status, progress int, message string) {
	o.registry.SetStage(jobID, status, progress, message)
	if o.publisher != nil {
		if job, ok := o.registry.Get(jobID); ok {
			o.publisher.PublishStatus(ctx, job)
		}
	}
}

// settleTerminal publishes and archives the terminal snapshot. Both are
// best-effort side channels; the registry already holds the truth.
func (o *Orchestrator) settleTerminal(jobID string) {
	job, ok := o.registry.Get(jobID)
	if !ok || !job.Status.Terminal() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.publisher != nil {
		o.publisher.PublishStatus(ctx, job)
	}
	if o.recorder != nil {
		if err := o.recorder.RecordTerminal(ctx, job); err != nil {
			o.logger.Warn("Failed to archive terminal job",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// detectionProgress maps frames processed onto the detection span. The
// estimate can undershoot (rounded duration), so the span is clamped one
// point short of the rendering checkpoint.
func detectionProgress(processed, estimatedTotal int) int {
	if estimatedTotal < processed {
		estimatedTotal = processed
	}
	if estimatedTotal == 0 {
		return progressSampled
	}
	p := progressSampled + progressDetectSpan*processed/estimatedTotal
	if p >= progressDetectEnd {
		p = progressDetectEnd - 1
	}
	return p
}
