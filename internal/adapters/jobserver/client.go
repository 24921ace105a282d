package jobserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scrapemonitor/internal/core/domain"
)

const (
	submitPath   = "/scrape_sga"
	statusPath   = "/status/"
	downloadPath = "/download/"

	// maxErrorBody caps how much of a failed response is kept in StatusError.
	maxErrorBody = 4 << 10
)

// ErrJobNotFound is returned when the server does not know the job id.
var ErrJobNotFound = errors.New("job not found")

// StatusError is a non-success HTTP answer from the job server.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d, body: %s", e.Op, e.StatusCode, e.Body)
}

// Is lets errors.Is match ErrJobNotFound on a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrJobNotFound && e.StatusCode == http.StatusNotFound
}

// Client implements ports.JobAPI over the job server REST endpoints.
type Client struct {
	baseURL *url.URL
	client  *http.Client
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse job server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("job server url must be http or https, got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: u,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Submit posts one creation request.
func (c *Client) Submit(ctx context.Context, in domain.SubmitRequest) (*domain.SubmitResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(submitPath), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, newStatusError("start job", resp)
	}

	var out domain.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	if out.JobID == "" {
		return nil, fmt.Errorf("submit response has no job_id")
	}
	return &out, nil
}

// Status fetches the current job snapshot.
func (c *Client) Status(ctx context.Context, jobID string) (*domain.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(statusPath+url.PathEscape(jobID)), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp.StatusCode) {
		return nil, newStatusError("get status", resp)
	}

	var job domain.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	if job.ID == "" {
		job.ID = jobID
	}
	job.UpdatedAt = time.Now().UTC()
	return &job, nil
}

// DownloadURL returns file_url resolved against the server, or the
// /download/{id} route when only file_path is known.
func (c *Client) DownloadURL(job domain.Job) string {
	if job.FileURL != nil && *job.FileURL != "" {
		ref, err := url.Parse(*job.FileURL)
		if err != nil {
			return *job.FileURL
		}
		return c.baseURL.ResolveReference(ref).String()
	}
	return c.endpoint(downloadPath + url.PathEscape(job.ID))
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

func success(code int) bool {
	return code >= 200 && code < 300
}

func newStatusError(op string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
