package domain

import (
	"image"
	"time"
)

// SampledFrame is one frame drawn from the video at the sampling interval.
type SampledFrame struct {
	Index     int
	Timestamp time.Duration
	Image     image.Image
}

// Slide is an accepted frame, kept in detection order.
type Slide struct {
	Sequence  int // 1-based, detection order
	Timestamp time.Duration
	Image     image.Image
}
