package localstorage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveArtifact(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	if err := s.InitJob(ctx, "job-1"); err != nil {
		t.Fatalf("InitJob returned error: %v", err)
	}
	path, n, err := s.SaveArtifact(ctx, "job-1", strings.NewReader("a,b\n"), "/srv/outputs/acme.csv")
	if err != nil {
		t.Fatalf("SaveArtifact returned error: %v", err)
	}
	if want := filepath.Join(dir, "jobs", "job-1", "acme.csv"); path != want {
		t.Fatalf("path = %s, want %s", path, want)
	}
	if n != 4 {
		t.Fatalf("expected 4 bytes, got %d", n)
	}
	data, err := os.ReadFile(filepath.Join(dir, "jobs", "job-1", "acme.csv"))
	if err != nil || string(data) != "a,b\n" {
		t.Fatalf("unexpected file content %q (err %v)", data, err)
	}
}

func TestSaveArtifactDefaultName(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()
	_ = s.InitJob(ctx, "job-1")

	for _, name := range []string{"", "/", ".", ".."} {
		path, _, err := s.SaveArtifact(ctx, "job-1", strings.NewReader("x"), name)
		if err != nil {
			t.Fatalf("SaveArtifact(%q) returned error: %v", name, err)
		}
		if want := filepath.Join(dir, "jobs", "job-1", "download.csv"); path != want {
			t.Fatalf("SaveArtifact(%q) path = %s, want %s", name, path, want)
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			t.Fatalf("SaveArtifact(%q) did not write a file: %v", name, err)
		}
	}
}

func TestGetJobPathStaysInsideBaseDir(t *testing.T) {
	s := NewLocalStorage("/data")
	if got := s.GetJobPath("../../etc"); got != filepath.Join("/data", "jobs", "etc") {
		t.Fatalf("unexpected job path %s", got)
	}
}

func TestSaveSnapshot(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()
	_ = s.InitJob(ctx, "job-1")

	if err := s.SaveSnapshot(ctx, "job-1", []byte(`{"status":"completed"}`)); err != nil {
		t.Fatalf("SaveSnapshot returned error: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(s.GetJobPath("job-1"), "status.json"))
	if string(data) != `{"status":"completed"}` {
		t.Fatalf("unexpected status.json %q", data)
	}
}
