package sampler

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// FFmpegSampler opens videos with the ffmpeg/ffprobe binaries. Extraction
// writes one JPEG per sampling interval into a scoped temp directory; the
// returned Source decodes them lazily, one frame per Next call, so peak
// memory stays at one decoded frame.
type FFmpegSampler struct {
	interval time.Duration
	tempDir  string
	logger   *slog.Logger
}

// NewFFmpegSampler creates a sampler extracting one frame per interval.
func NewFFmpegSampler(interval time.Duration, tempDir string, logger *slog.Logger) *FFmpegSampler {
	return &FFmpegSampler{
		interval: interval,
		tempDir:  tempDir,
		logger:   logger,
	}
}

// Open probes the video and extracts sampled frames, returning a lazy
// Source over them. The caller must Close the Source on every exit path.
func (s *FFmpegSampler) Open(ctx context.Context, videoPath string) (Source, error) {
	duration, err := probeDuration(ctx, videoPath)
	if err != nil {
		return nil, domain.NewPipelineError(domain.KindUnsupportedFormat, "could not probe video", err)
	}

	frameDir, err := os.MkdirTemp(s.tempDir, "frames-*")
	if err != nil {
		return nil, domain.NewPipelineError(domain.KindInternal, "create frame directory", err)
	}

	fps := 1.0 / s.interval.Seconds()
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%g", fps),
		"-y",
		filepath.Join(frameDir, "frame_%06d.jpg"),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(frameDir)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewPipelineError(domain.KindDecodeError,
			fmt.Sprintf("ffmpeg frame extraction failed: %s", tail(string(output), 300)), err)
	}

	paths, err := filepath.Glob(filepath.Join(frameDir, "frame_*.jpg"))
	if err != nil {
		os.RemoveAll(frameDir)
		return nil, domain.NewPipelineError(domain.KindInternal, "glob frames", err)
	}
	sort.Strings(paths)

	estimated := len(paths)
	if duration > 0 {
		estimated = int(math.Ceil(duration.Seconds() / s.interval.Seconds()))
	}

	s.logger.Info("Video sampled",
		slog.String("video", videoPath),
		slog.Duration("duration", duration),
		slog.Duration("interval", s.interval),
		slog.Int("frames", len(paths)),
	)

	return &frameFileSource{
		paths:     paths,
		frameDir:  frameDir,
		interval:  s.interval,
		estimated: estimated,
	}, nil
}

// frameFileSource iterates extracted frame files in timestamp order.
type frameFileSource struct {
	paths     []string
	frameDir  string
	interval  time.Duration
	estimated int
	next      int
}

func (f *frameFileSource) Next(ctx context.Context) (*domain.SampledFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.next >= len(f.paths) {
		return nil, ErrEndOfStream
	}

	path := f.paths[f.next]
	file, err := os.Open(path)
	if err != nil {
		return nil, domain.NewPipelineError(domain.KindDecodeError, fmt.Sprintf("open frame %s", filepath.Base(path)), err)
	}
	img, _, err := image.Decode(file)
	file.Close()
	if err != nil {
		return nil, domain.NewPipelineError(domain.KindDecodeError, fmt.Sprintf("decode frame %s", filepath.Base(path)), err)
	}

	frame := &domain.SampledFrame{
		Index:     f.next,
		Timestamp: time.Duration(f.next) * f.interval,
		Image:     img,
	}
	f.next++
	return frame, nil
}

func (f *frameFileSource) EstimatedTotal() int {
	return f.estimated
}

func (f *frameFileSource) Close() error {
	return os.RemoveAll(f.frameDir)
}

// probeDuration reads the container duration via ffprobe.
func probeDuration(ctx context.Context, videoPath string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseDuration(string(output))
}

func parseDuration(raw string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(raw), err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %g", seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// tail keeps the last n bytes of ffmpeg output, where the actual error is.
func tail(s string, n int) string {
	if len(s) <= n {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s[len(s)-n:])
}
