// Package provider acquires the raw video bytes behind a reference and
// hands the pipeline a local, decodable file.
package provider

import (
	"context"
	"net/url"
	"strings"
)

// LocalVideo is an acquired video on local disk. Cleanup must run on every
// exit path of the owning job.
type LocalVideo struct {
	Path    string
	Cleanup func()
}

// VideoSource acquires a video reference into a local file. Failures are
// classified as InvalidReference, NotFound, NetworkError or
// UnsupportedFormat through domain.PipelineError.
type VideoSource interface {
	Acquire(ctx context.Context, videoRef string) (*LocalVideo, error)
}

// ValidateReference checks that a video reference is a well-formed HTTP(S)
// URL before a job is even created.
func ValidateReference(videoRef string) bool {
	ref := strings.TrimSpace(videoRef)
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
