package history

import (
	"context"
	"errors"
	"testing"

	"scrapemonitor/internal/core/domain"
)

func setupTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordSnapshotKeepsBatchPlacement(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.RecordSubmission(ctx, "batch-1", domain.Job{ID: "a", Status: domain.StatusQueued, URL: "http://a.com", Index: 2})
	if err != nil {
		t.Fatalf("RecordSubmission returned error: %v", err)
	}
	msg := "Failed to extract"
	if err := db.RecordSnapshot(ctx, domain.Job{ID: "a", Status: domain.StatusFailed, Error: &msg}); err != nil {
		t.Fatalf("RecordSnapshot returned error: %v", err)
	}

	got, err := db.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != domain.StatusFailed || got.ErrorMessage() != msg {
		t.Fatalf("snapshot not stored: %+v", got)
	}
	if got.URL != "http://a.com" || got.Index != 2 {
		t.Fatalf("batch placement lost: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt should be set from the row")
	}
}

func TestGetUnknownJob(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	jobs := []domain.Job{
		{ID: "a", Status: domain.StatusQueued, URL: "http://a.com", Index: 1},
		{ID: "b", Status: domain.StatusQueued, URL: "http://b.com", Index: 2},
		{ID: "c", Status: domain.StatusQueued, URL: "http://c.com", Index: 3},
	}
	for _, j := range jobs {
		if err := db.RecordSubmission(ctx, "batch-1", j); err != nil {
			t.Fatalf("RecordSubmission returned error: %v", err)
		}
	}
	_ = db.RecordSnapshot(ctx, domain.Job{ID: "a", Status: domain.StatusCompleted})
	_ = db.RecordSnapshot(ctx, domain.Job{ID: "b", Status: domain.StatusRunning})

	pending, err := db.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending returned error: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "b" || pending[1].ID != "c" {
		t.Fatalf("unexpected pending jobs: %+v", pending)
	}
}

func TestListRecentLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := db.RecordSubmission(ctx, "batch-1", domain.Job{ID: id, Status: domain.StatusQueued}); err != nil {
			t.Fatalf("RecordSubmission returned error: %v", err)
		}
	}

	recent, err := db.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(recent))
	}

	all, err := db.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected default limit to return all 3 jobs, got %d", len(all))
	}
}
