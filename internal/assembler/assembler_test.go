package assembler

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
	"github.com/sahilgala1234/SlideScribe/internal/renderer"
	"github.com/sahilgala1234/SlideScribe/shared/logger"
)

// captureRenderer records the pages it was asked to render.
type captureRenderer struct {
	pages []renderer.Page
	err   error
}

func (c *captureRenderer) Render(ctx context.Context, pages []renderer.Page) ([]byte, error) {
	c.pages = pages
	if c.err != nil {
		return nil, c.err
	}
	return []byte("%PDF-fake"), nil
}

func slideWithGray(seq int, gray uint8) domain.Slide {
	img := image.NewGray(image.Rect(0, 0, 16, 12))
	for i := range img.Pix {
		img.Pix[i] = gray
	}
	return domain.Slide{
		Sequence:  seq,
		Timestamp: time.Duration(seq) * time.Second,
		Image:     img,
	}
}

func TestAssemblePreservesDetectionOrder(t *testing.T) {
	capture := &captureRenderer{}
	a := New(capture, logger.NewDefault().Logger)

	// Deliberately shuffled input; output must follow sequence order.
	slides := []domain.Slide{
		slideWithGray(3, 200),
		slideWithGray(1, 10),
		slideWithGray(2, 100),
	}

	out, err := a.Assemble(context.Background(), slides)
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	require.Len(t, capture.pages, 3)
	assert.Equal(t, "slide-1", capture.pages[0].Name)
	assert.Equal(t, "slide-2", capture.pages[1].Name)
	assert.Equal(t, "slide-3", capture.pages[2].Name)

	for _, page := range capture.pages {
		assert.Equal(t, 16, page.Width)
		assert.Equal(t, 12, page.Height)
		assert.NotEmpty(t, page.JPEG)
	}
}

func TestAssembleRejectsEmptySlideSet(t *testing.T) {
	a := New(&captureRenderer{}, logger.NewDefault().Logger)

	_, err := a.Assemble(context.Background(), nil)
	require.Error(t, err)
	var perr *domain.PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.KindNoSlidesDetected, perr.Kind)
}

func TestAssemblePropagatesRendererFailure(t *testing.T) {
	renderErr := domain.NewPipelineError(domain.KindRenderError, "disk full", nil)
	a := New(&captureRenderer{err: renderErr}, logger.NewDefault().Logger)

	_, err := a.Assemble(context.Background(), []domain.Slide{slideWithGray(1, 50)})
	require.Error(t, err)
	assert.Equal(t, domain.KindRenderError, domain.Classify(err))
}
