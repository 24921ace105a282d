package localstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements ports.Storage for the local filesystem.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// InitJob creates the job directory.
func (s *LocalStorage) InitJob(ctx context.Context, jobID string) error {
	path := s.GetJobPath(jobID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create job directory %s: %w", path, err)
	}
	return nil
}

// SaveSnapshot writes status.json next to the artifact.
func (s *LocalStorage) SaveSnapshot(ctx context.Context, jobID string, data []byte) error {
	path := filepath.Join(s.GetJobPath(jobID), "status.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save status.json: %w", err)
	}
	return nil
}

// SaveArtifact streams the downloaded file into the job directory and
// returns the path it was written to.
func (s *LocalStorage) SaveArtifact(ctx context.Context, jobID string, reader io.Reader, filename string) (string, int64, error) {
	path := filepath.Join(s.GetJobPath(jobID), fileName(filename))

	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	n, err := io.Copy(file, reader)
	if err != nil {
		return path, n, fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return path, n, nil
}

// fileName reduces name to a plain file name, download.csv when nothing
// usable is left.
func fileName(name string) string {
	name = filepath.Base(filepath.FromSlash(name))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "download.csv"
	}
	return name
}

// GetJobPath returns the path for a job directory.
func (s *LocalStorage) GetJobPath(jobID string) string {
	return filepath.Join(s.BaseDir, "jobs", filepath.Base(jobID))
}
