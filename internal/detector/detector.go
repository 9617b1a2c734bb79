// Package detector decides which sampled frames represent new slides.
//
// Each incoming frame is scored against the last accepted slide, not the
// previous sampled frame. Scoring frame-to-frame would let slow drift (a
// gradual lighting change, a progress bar) slip under the threshold forever;
// against the last committed slide the drift has to accumulate until it
// crosses the threshold once, producing a single new slide.
package detector

import (
	"log/slog"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// DefaultThreshold is the minimum difference score for a new slide. It is
// the inverse of a 0.85 histogram-correlation similarity cutoff.
const DefaultThreshold = 0.15

// Detector consumes sampled frames in order and accumulates accepted slides.
// It is deterministic: the same frame sequence and threshold always yield
// the same slide set. Not safe for concurrent use; each job owns one.
type Detector struct {
	threshold float64
	logger    *slog.Logger

	lastHist [histogramBins]float64
	hasSlide bool
	slides   []domain.Slide
}

// New creates a detector with the given threshold in [0, 1].
func New(threshold float64, logger *slog.Logger) *Detector {
	return &Detector{
		threshold: threshold,
		logger:    logger,
	}
}

// Process scores the frame and reports whether it was accepted as a slide.
// The first frame of a sequence is always accepted.
func (d *Detector) Process(frame *domain.SampledFrame) bool {
	hist := grayHistogram(frame.Image)

	if !d.hasSlide {
		d.accept(frame, hist)
		return true
	}

	score := difference(hist, d.lastHist)
	// Inclusive: ties favor acceptance, missing a real transition is worse
	// than an extra page.
	if score >= d.threshold {
		d.accept(frame, hist)
		d.logger.Debug("Slide accepted",
			slog.Int("frame_index", frame.Index),
			slog.Float64("score", score),
			slog.Int("slide_count", len(d.slides)),
		)
		return true
	}
	return false
}

func (d *Detector) accept(frame *domain.SampledFrame, hist [histogramBins]float64) {
	d.lastHist = hist
	d.hasSlide = true
	d.slides = append(d.slides, domain.Slide{
		Sequence:  len(d.slides) + 1,
		Timestamp: frame.Timestamp,
		Image:     frame.Image,
	})
}

// Slides returns the accepted slides in detection order.
func (d *Detector) Slides() []domain.Slide {
	return d.slides
}

// Count returns the number of accepted slides so far.
func (d *Detector) Count() int {
	return len(d.slides)
}
