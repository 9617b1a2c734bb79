// Package sampler produces the ordered sequence of timestamped frames a
// job evaluates for slide detection.
package sampler

import (
	"context"
	"errors"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// ErrEndOfStream signals the normal end of a frame sequence.
var ErrEndOfStream = errors.New("end of frame stream")

// Source is a lazy, finite, ordered sequence of sampled frames. Frames come
// back strictly increasing in timestamp; a decode failure ends the sequence
// early, leaving previously returned frames valid. A Source is consumed
// once and is not safe for concurrent use.
type Source interface {
	// Next returns the next sampled frame, ErrEndOfStream when exhausted,
	// or a DecodeError-classified error on a failed decode.
	Next(ctx context.Context) (*domain.SampledFrame, error)

	// EstimatedTotal is the expected number of frames in the sequence,
	// derived from video duration and sampling interval. Used for
	// progress estimation; 0 when unknown.
	EstimatedTotal() int

	// Close releases the decoded frame storage.
	Close() error
}
