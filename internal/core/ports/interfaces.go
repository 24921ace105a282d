package ports

import (
	"context"
	"io"

	"scrapemonitor/internal/core/domain"
)

// JobAPI defines the contract for talking to the scrape job server.
type JobAPI interface {
	// Submit creates one job for the given request.
	Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResponse, error)

	// Status fetches the current snapshot of a job.
	Status(ctx context.Context, jobID string) (*domain.Job, error)

	// DownloadURL returns the absolute URL of the job's artifact.
	DownloadURL(job domain.Job) string
}

// Downloader defines the contract for downloading job artifacts.
type Downloader interface {
	// Download fetches the artifact from the given URL.
	// Returns a ReadCloser that the caller must close.
	Download(ctx context.Context, fileURL string) (io.ReadCloser, error)
}

// Storage defines the contract for persisting downloaded artifacts.
type Storage interface {
	// InitJob creates the job directory structure.
	InitJob(ctx context.Context, jobID string) error

	// SaveSnapshot saves the last status snapshot of the job.
	SaveSnapshot(ctx context.Context, jobID string, data []byte) error

	// SaveArtifact saves the artifact from the provided reader and returns the
	// path it was written to and the bytes written.
	SaveArtifact(ctx context.Context, jobID string, reader io.Reader, filename string) (string, int64, error)

	// GetJobPath returns the filesystem path for a given job ID.
	GetJobPath(jobID string) string
}

// History records submitted jobs and their latest snapshots.
type History interface {
	RecordSubmission(ctx context.Context, batchID string, job domain.Job) error
	RecordSnapshot(ctx context.Context, job domain.Job) error
	Get(ctx context.Context, jobID string) (domain.Job, error)
	ListPending(ctx context.Context) ([]domain.Job, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Job, error)
}

// Notifier publishes job status changes.
type Notifier interface {
	Publish(evt domain.Event) error
}
