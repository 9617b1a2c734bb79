// Package renderer turns an ordered set of slide pages into a document.
package renderer

import "context"

// Page is one encoded slide image, in final document order.
type Page struct {
	Name   string // unique per document, used as the embedded image key
	JPEG   []byte
	Width  int // pixels
	Height int // pixels
}

// DocumentRenderer renders the full ordered page set into document bytes.
// Failures map to the RenderError kind at the orchestrator boundary.
type DocumentRenderer interface {
	Render(ctx context.Context, pages []Page) ([]byte, error)
}
