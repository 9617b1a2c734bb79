package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// HTTPProvider downloads videos over HTTP(S) into a scoped temp file.
type HTTPProvider struct {
	client   *http.Client
	tempDir  string
	maxBytes int64
	logger   *slog.Logger
}

// NewHTTPProvider creates a provider with a request timeout and a download
// size cap. maxBytes <= 0 disables the cap.
func NewHTTPProvider(timeout time.Duration, tempDir string, maxBytes int64, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		client:   &http.Client{Timeout: timeout},
		tempDir:  tempDir,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Acquire downloads the referenced video to a temp file. The returned
// Cleanup removes the file.
func (p *HTTPProvider) Acquire(ctx context.Context, videoRef string) (*LocalVideo, error) {
	if !ValidateReference(videoRef) {
		return nil, domain.NewPipelineError(domain.KindInvalidReference,
			fmt.Sprintf("not a valid http(s) video reference: %q", videoRef), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoRef, nil)
	if err != nil {
		return nil, domain.NewPipelineError(domain.KindInvalidReference, "build request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewPipelineError(domain.KindNetworkError, "download video", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, domain.NewPipelineError(domain.KindNetworkError,
			fmt.Sprintf("video not found (%d)", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, domain.NewPipelineError(domain.KindNetworkError,
			fmt.Sprintf("unexpected status %d from video source", resp.StatusCode), nil)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" && !supportedContentType(ct) {
		return nil, domain.NewPipelineError(domain.KindUnsupportedFormat,
			fmt.Sprintf("unsupported content type %q", ct), nil)
	}

	file, err := os.CreateTemp(p.tempDir, "video-*.mp4")
	if err != nil {
		return nil, domain.NewPipelineError(domain.KindInternal, "create temp video file", err)
	}
	cleanup := func() { os.Remove(file.Name()) }

	body := io.Reader(resp.Body)
	if p.maxBytes > 0 {
		body = io.LimitReader(resp.Body, p.maxBytes+1)
	}

	written, err := io.Copy(file, body)
	closeErr := file.Close()
	if err != nil {
		cleanup()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewPipelineError(domain.KindNetworkError, "stream video body", err)
	}
	if closeErr != nil {
		cleanup()
		return nil, domain.NewPipelineError(domain.KindInternal, "flush temp video file", closeErr)
	}
	if p.maxBytes > 0 && written > p.maxBytes {
		cleanup()
		return nil, domain.NewPipelineError(domain.KindUnsupportedFormat,
			fmt.Sprintf("video exceeds size cap of %d bytes", p.maxBytes), nil)
	}
	if written == 0 {
		cleanup()
		return nil, domain.NewPipelineError(domain.KindNetworkError, "downloaded video is empty", nil)
	}

	p.logger.Info("Video acquired",
		slog.String("reference", videoRef),
		slog.Int64("bytes", written),
	)

	return &LocalVideo{Path: file.Name(), Cleanup: cleanup}, nil
}

func supportedContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	switch ct {
	case "video/mp4", "video/webm", "video/quicktime", "video/x-matroska",
		"application/octet-stream", "binary/octet-stream":
		return true
	}
	return strings.HasPrefix(ct, "video/")
}
