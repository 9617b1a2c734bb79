package detector

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
	"github.com/sahilgala1234/SlideScribe/shared/logger"
)

// uniformFrame is a frame filled with a single gray level.
func uniformFrame(index int, gray uint8) *domain.SampledFrame {
	img := image.NewGray(image.Rect(0, 0, 32, 24))
	for i := range img.Pix {
		img.Pix[i] = gray
	}
	return &domain.SampledFrame{
		Index:     index,
		Timestamp: time.Duration(index) * time.Second,
		Image:     img,
	}
}

// mixedFrame fills the first `split` pixels with dark and the rest with
// light, so frames with different splits differ by a graded amount.
func mixedFrame(index, split int) *domain.SampledFrame {
	img := image.NewGray(image.Rect(0, 0, 32, 24))
	for i := range img.Pix {
		if i < split {
			img.Pix[i] = 20
		} else {
			img.Pix[i] = 220
		}
	}
	return &domain.SampledFrame{
		Index:     index,
		Timestamp: time.Duration(index) * time.Second,
		Image:     img,
	}
}

func runDetector(t *testing.T, frames []*domain.SampledFrame, threshold float64) []int {
	t.Helper()
	d := New(threshold, logger.NewDefault().Logger)

	var accepted []int
	for _, f := range frames {
		if d.Process(f) {
			accepted = append(accepted, f.Index)
		}
	}
	return accepted
}

func TestFirstFrameAlwaysAccepted(t *testing.T) {
	d := New(0.99, logger.NewDefault().Logger)
	require.True(t, d.Process(uniformFrame(0, 128)))
	assert.Equal(t, 1, d.Count())
}

func TestIdenticalFramesYieldOneSlide(t *testing.T) {
	for _, n := range []int{1, 2, 5, 20} {
		frames := make([]*domain.SampledFrame, n)
		for i := range frames {
			frames[i] = uniformFrame(i, 90)
		}
		accepted := runDetector(t, frames, 0.1)
		assert.Equal(t, []int{0}, accepted, "n=%d", n)
	}
}

func TestNonAdjacentRepeatsAreNotMerged(t *testing.T) {
	// A A B B A with d(A,B) over the threshold: slides at 0, 2 and 4.
	frames := []*domain.SampledFrame{
		uniformFrame(0, 30),
		uniformFrame(1, 30),
		uniformFrame(2, 200),
		uniformFrame(3, 200),
		uniformFrame(4, 30),
	}
	accepted := runDetector(t, frames, 0.3)
	assert.Equal(t, []int{0, 2, 4}, accepted)
}

func TestComparesAgainstLastAcceptedNotPreviousFrame(t *testing.T) {
	// Gradual drift: each step is below the threshold relative to its
	// neighbor, but drift accumulates against the last accepted slide.
	var frames []*domain.SampledFrame
	for i := 0; i < 10; i++ {
		frames = append(frames, mixedFrame(i, i*60))
	}

	accepted := runDetector(t, frames, 0.5)

	// Frame-vs-frame scoring would accept nothing after frame 0 or every
	// frame; against the committed slide the drift crosses once in a while.
	require.NotEmpty(t, accepted)
	assert.Equal(t, 0, accepted[0])
	assert.Less(t, len(accepted), len(frames))
	assert.Greater(t, len(accepted), 1)
}

func TestThresholdMonotonicity(t *testing.T) {
	var frames []*domain.SampledFrame
	for i := 0; i < 24; i++ {
		frames = append(frames, mixedFrame(i, i*31))
	}

	thresholds := []float64{0.05, 0.1, 0.2, 0.35, 0.5, 0.75, 0.9}
	prevCount := len(frames) + 1
	for _, th := range thresholds {
		count := len(runDetector(t, frames, th))
		assert.LessOrEqual(t, count, prevCount,
			"threshold %v must not yield more slides than a lower threshold", th)
		prevCount = count
	}
}

func TestDetectionIsDeterministic(t *testing.T) {
	var frames []*domain.SampledFrame
	for i := 0; i < 16; i++ {
		frames = append(frames, mixedFrame(i, (i*131)%768))
	}

	first := runDetector(t, frames, 0.25)
	second := runDetector(t, frames, 0.25)
	assert.Equal(t, first, second)
}

func TestSlidesKeepDetectionOrderAndTimestamps(t *testing.T) {
	frames := []*domain.SampledFrame{
		uniformFrame(0, 10),
		uniformFrame(1, 120),
		uniformFrame(2, 240),
	}

	d := New(0.2, logger.NewDefault().Logger)
	for _, f := range frames {
		d.Process(f)
	}

	slides := d.Slides()
	require.Len(t, slides, 3)
	for i, s := range slides {
		assert.Equal(t, i+1, s.Sequence)
		assert.Equal(t, time.Duration(i)*time.Second, s.Timestamp)
	}
}

func TestDifferenceScoreBounds(t *testing.T) {
	a := grayHistogram(uniformFrame(0, 0).Image)
	b := grayHistogram(uniformFrame(1, 255).Image)

	assert.Equal(t, 0.0, difference(a, a))
	d := difference(a, b)
	assert.Greater(t, d, 0.9)
	assert.LessOrEqual(t, d, 1.0)
}

func TestHistogramHandlesColorImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 90, A: 255})
		}
	}

	hist := grayHistogram(img)
	var sum float64
	for _, v := range hist {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
