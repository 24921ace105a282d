package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrNotReady means the server has no artifact yet (409).
	ErrNotReady = errors.New("job not completed")
	// ErrGone means the server produced the artifact but no longer has it (410).
	ErrGone = errors.New("file no longer available")
)

// HTTPDownloader implements ports.Downloader using standard HTTP.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates a new HTTPDownloader.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		client: &http.Client{
			Timeout: 10 * time.Minute, // spreadsheets with many sheets can be slow to stream
		},
	}
}

// Download fetches the artifact from the given URL.
func (d *HTTPDownloader) Download(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusConflict:
		resp.Body.Close()
		return nil, ErrNotReady
	case http.StatusGone:
		resp.Body.Close()
		return nil, ErrGone
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
}
