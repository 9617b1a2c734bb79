package renderer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/jung-kurt/gofpdf"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// A4 portrait dimensions and the pixel-to-millimeter factor at 96 DPI.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
	pageMarginMM = 10.0
	pxToMM       = 0.264583
)

// PDFRenderer renders slides one per A4 page, scaled to fit inside the
// margins and centered.
type PDFRenderer struct {
	logger *slog.Logger
}

// NewPDFRenderer creates a PDF document renderer.
func NewPDFRenderer(logger *slog.Logger) *PDFRenderer {
	return &PDFRenderer{logger: logger}
}

// Render builds the PDF. Page order equals the order of pages.
func (r *PDFRenderer) Render(ctx context.Context, pages []Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, domain.NewPipelineError(domain.KindRenderError, "no pages to render", nil)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if page.Width <= 0 || page.Height <= 0 {
			return nil, domain.NewPipelineError(domain.KindRenderError,
				fmt.Sprintf("page %s has invalid dimensions %dx%d", page.Name, page.Width, page.Height), nil)
		}

		pdf.AddPage()
		pdf.RegisterImageOptionsReader(page.Name,
			gofpdf.ImageOptions{ImageType: "JPG"},
			bytes.NewReader(page.JPEG),
		)

		widthMM := float64(page.Width) * pxToMM
		heightMM := float64(page.Height) * pxToMM

		scale := (pageWidthMM - 2*pageMarginMM) / widthMM
		if s := (pageHeightMM - 2*pageMarginMM) / heightMM; s < scale {
			scale = s
		}

		w := widthMM * scale
		h := heightMM * scale
		x := (pageWidthMM - w) / 2
		y := (pageHeightMM - h) / 2

		pdf.ImageOptions(page.Name, x, y, w, h, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, domain.NewPipelineError(domain.KindRenderError, "write pdf", err)
	}

	r.logger.Info("Document rendered",
		slog.Int("pages", len(pages)),
		slog.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}
