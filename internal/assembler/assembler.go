// Package assembler bridges accepted slides to the document renderer.
package assembler

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"sort"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
	"github.com/sahilgala1234/SlideScribe/internal/renderer"
)

const jpegQuality = 90

// Assembler encodes the ordered slide set and invokes the renderer once
// per job with the full set. Document page order equals detection order.
type Assembler struct {
	renderer renderer.DocumentRenderer
	logger   *slog.Logger
}

// New creates an assembler over the given document renderer.
func New(r renderer.DocumentRenderer, logger *slog.Logger) *Assembler {
	return &Assembler{renderer: r, logger: logger}
}

// Assemble renders the slides into document bytes.
func (a *Assembler) Assemble(ctx context.Context, slides []domain.Slide) ([]byte, error) {
	if len(slides) == 0 {
		return nil, domain.NewPipelineError(domain.KindNoSlidesDetected, "no slides to assemble", nil)
	}

	ordered := make([]domain.Slide, len(slides))
	copy(ordered, slides)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})

	pages := make([]renderer.Page, 0, len(ordered))
	for _, slide := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, slide.Image, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, domain.NewPipelineError(domain.KindRenderError,
				fmt.Sprintf("encode slide %d", slide.Sequence), err)
		}

		bounds := slide.Image.Bounds()
		pages = append(pages, renderer.Page{
			Name:   fmt.Sprintf("slide-%d", slide.Sequence),
			JPEG:   buf.Bytes(),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}

	a.logger.Debug("Slides assembled for rendering",
		slog.Int("pages", len(pages)),
	)

	return a.renderer.Render(ctx, pages)
}
