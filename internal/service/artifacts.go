package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"scrapemonitor/internal/core/domain"
	"scrapemonitor/internal/core/ports"
)

const defaultArtifactName = "download.csv"

// SavedArtifact describes a downloaded job file.
type SavedArtifact struct {
	JobID string
	Path  string
	Bytes int64
}

// ArtifactSaver downloads completed job files into local storage.
type ArtifactSaver struct {
	api        ports.JobAPI
	downloader ports.Downloader
	storage    ports.Storage
	logger     *zap.Logger
}

// NewArtifactSaver creates an ArtifactSaver. logger may be nil.
func NewArtifactSaver(api ports.JobAPI, downloader ports.Downloader, storage ports.Storage, logger *zap.Logger) *ArtifactSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactSaver{api: api, downloader: downloader, storage: storage, logger: logger}
}

// Save fetches the current snapshot of jobID and stores its artifact.
func (a *ArtifactSaver) Save(ctx context.Context, jobID string) (*SavedArtifact, error) {
	logger := a.logger.With(zap.String("job_id", jobID))

	job, err := a.api.Status(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	if job.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("job %s is %s, not completed", jobID, job.Status)
	}
	if !HasArtifact(*job) {
		return nil, fmt.Errorf("job %s has no file: %s", jobID, job.ErrorMessage())
	}

	if err := a.storage.InitJob(ctx, jobID); err != nil {
		return nil, err
	}
	snap, _ := json.MarshalIndent(job, "", "  ")
	if err := a.storage.SaveSnapshot(ctx, jobID, snap); err != nil {
		return nil, err
	}

	fileURL := a.api.DownloadURL(*job)
	logger.Info("downloading file", zap.String("url", fileURL))
	body, err := a.downloader.Download(ctx, fileURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer body.Close()

	name := ArtifactName(*job)
	savedPath, n, err := a.storage.SaveArtifact(ctx, jobID, body, name)
	if err != nil {
		return nil, err
	}

	saved := &SavedArtifact{
		JobID: jobID,
		Path:  savedPath,
		Bytes: n,
	}
	logger.Info("saved file", zap.String("path", saved.Path), zap.Int64("bytes", n))
	return saved, nil
}

// HasArtifact reports whether the server advertises a file for the job.
func HasArtifact(job domain.Job) bool {
	return (job.FileURL != nil && *job.FileURL != "") || (job.FilePath != nil && *job.FilePath != "")
}

// ArtifactName is the basename of file_path, or download.csv when only a
// file_url is known.
func ArtifactName(job domain.Job) string {
	if job.FilePath != nil && *job.FilePath != "" {
		switch name := path.Base(filepath.ToSlash(*job.FilePath)); name {
		case "/", ".", "..":
			return defaultArtifactName
		default:
			return name
		}
	}
	if job.FileURL != nil && *job.FileURL != "" {
		return defaultArtifactName
	}
	return ""
}
