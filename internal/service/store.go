package service

import (
	"sync"

	"scrapemonitor/internal/core/domain"
)

// JobStore owns the job records of one monitor, keyed by job id.
// Records are never removed.
type JobStore struct {
	mu    sync.RWMutex
	jobs  map[string]domain.Job
	order []string
}

// NewJobStore returns an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]domain.Job)}
}

// Put inserts or replaces a record as given.
func (s *JobStore) Put(job domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		s.order = append(s.order, job.ID)
	}
	s.jobs[job.ID] = job
}

// Apply replaces the record with a server snapshot. The snapshot wins on
// every field except batch placement: index, and url when the server sent
// none, carry over from the previous record.
func (s *JobStore) Apply(snapshot domain.Job) (prev domain.Job, existed bool, merged domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed = s.jobs[snapshot.ID]
	merged = snapshot
	if existed {
		if merged.Index == 0 {
			merged.Index = prev.Index
		}
		if merged.URL == "" {
			merged.URL = prev.URL
		}
	} else {
		s.order = append(s.order, snapshot.ID)
	}
	s.jobs[snapshot.ID] = merged
	return prev, existed, merged
}

// Get returns the record for id.
func (s *JobStore) Get(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Snapshot returns a copy of every record in insertion order.
func (s *JobStore) Snapshot() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id])
	}
	return out
}

// Len is the number of records.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
