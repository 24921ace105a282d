package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scrapemonitor/internal/core/domain"
	"scrapemonitor/internal/core/ports"
	"scrapemonitor/internal/metrics"
)

const (
	DefaultTimeout      = 30
	DefaultPollInterval = 2 * time.Second
)

// ErrNoURLs is returned by Submit before any request when the list is empty.
var ErrNoURLs = errors.New("no URLs provided")

// Monitor submits scrape jobs, polls them to completion and reports every
// change to an optional render hook.
type Monitor struct {
	api      ports.JobAPI
	store    *JobStore
	history  ports.History
	notifier ports.Notifier
	logger   *zap.Logger
	interval time.Duration

	renderMu sync.Mutex
	onChange func([]domain.Job)

	mu    sync.Mutex
	tasks map[string]*PollTask
	wg    sync.WaitGroup
}

// NewMonitor creates a Monitor. history and notifier may be nil.
func NewMonitor(
	api ports.JobAPI,
	store *JobStore,
	history ports.History,
	notifier ports.Notifier,
	logger *zap.Logger,
	interval time.Duration,
) *Monitor {
	if store == nil {
		store = NewJobStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		api:      api,
		store:    store,
		history:  history,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		tasks:    make(map[string]*PollTask),
	}
}

// OnChange registers fn to receive the full job list after every change.
// Calls are serialized.
func (m *Monitor) OnChange(fn func([]domain.Job)) {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	m.onChange = fn
}

// Store exposes the job records.
func (m *Monitor) Store() *JobStore { return m.store }

// Submit creates one job per URL concurrently and starts polling each
// created job under ctx. A failed URL is logged and leaves an empty slot in
// the result; it never fails the batch.
func (m *Monitor) Submit(ctx context.Context, urls []string, timeout int) (domain.BatchResult, error) {
	if len(urls) == 0 {
		return domain.BatchResult{}, ErrNoURLs
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	result := domain.BatchResult{
		BatchID:   uuid.NewString(),
		Requested: len(urls),
		JobIDs:    make([]string, len(urls)),
	}
	logger := m.logger.With(zap.String("batch_id", result.BatchID))
	logger.Info("starting separate jobs", zap.Int("count", len(urls)), zap.Int("timeout", timeout))

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			id, err := m.submitOne(ctx, result.BatchID, u, i+1, timeout)
			if err != nil {
				metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
				logger.Error("error starting job", zap.String("url", u), zap.Error(err))
				return
			}
			metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
			result.JobIDs[i] = id
		}(i, u)
	}
	wg.Wait()

	logger.Info(result.Message(), zap.Int("started", result.Started()), zap.Int("requested", result.Requested))
	return result, nil
}

func (m *Monitor) submitOne(ctx context.Context, batchID, rawURL string, index, timeout int) (string, error) {
	resp, err := m.api.Submit(ctx, domain.SubmitRequest{
		URLs:        []string{rawURL},
		Timeout:     timeout,
		Fallback:    true,
		Prediscover: true,
	})
	if err != nil {
		return "", err
	}

	job := domain.Job{
		ID:        resp.JobID,
		Status:    resp.Status,
		URL:       rawURL,
		Index:     index,
		UpdatedAt: time.Now().UTC(),
	}
	m.store.Put(job)
	if m.history != nil {
		if err := m.history.RecordSubmission(ctx, batchID, job); err != nil {
			m.logger.Warn("failed to record submission", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	m.publish(domain.Event{
		JobID:      job.ID,
		URL:        job.URL,
		Status:     job.Status,
		HappenedAt: time.Now().Unix(),
	})
	m.changed()
	m.Watch(ctx, job.ID)
	return job.ID, nil
}

// Track adds a known job, for example one loaded from history, without
// contacting the server.
func (m *Monitor) Track(job domain.Job) {
	m.store.Put(job)
	m.changed()
}

// Watch starts the poll loop for jobID under ctx. A job that already has a
// running loop gets the existing handle back.
func (m *Monitor) Watch(ctx context.Context, jobID string) *PollTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tasks[jobID]; ok && t.running() {
		return t
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &PollTask{JobID: jobID, cancel: cancel, done: make(chan struct{})}
	m.tasks[jobID] = t

	m.wg.Add(1)
	metrics.ActivePollers.Inc()
	go func() {
		defer m.wg.Done()
		defer metrics.ActivePollers.Dec()
		defer close(t.done)
		defer cancel()
		m.poll(ctx, jobID)
	}()
	return t
}

// Wait blocks until every poll loop has exited.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

// Stop cancels every poll loop and waits for them to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	for _, t := range m.tasks {
		t.Stop()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Refresh fetches every job once, without starting poll loops.
func (m *Monitor) Refresh(ctx context.Context, jobIDs []string) []error {
	var errs []error
	for _, id := range jobIDs {
		job, err := m.api.Status(ctx, id)
		if err != nil {
			errs = append(errs, err)
			m.logger.Warn("status fetch failed", zap.String("job_id", id), zap.Error(err))
			continue
		}
		m.apply(ctx, *job)
	}
	return errs
}

// apply stores a server snapshot and fans the change out.
func (m *Monitor) apply(ctx context.Context, snapshot domain.Job) domain.Job {
	prev, existed, merged := m.store.Apply(snapshot)

	if m.history != nil {
		if err := m.history.RecordSnapshot(ctx, merged); err != nil {
			m.logger.Warn("failed to record snapshot", zap.String("job_id", merged.ID), zap.Error(err))
		}
	}

	if !existed || prev.Status != merged.Status {
		m.publish(domain.Event{
			JobID:        merged.ID,
			URL:          merged.URL,
			Previous:     prev.Status,
			Status:       merged.Status,
			SpeakerCount: merged.Speakers(),
			Error:        merged.ErrorMessage(),
			HappenedAt:   time.Now().Unix(),
		})
		if merged.Status.Terminal() {
			metrics.TerminalJobsTotal.WithLabelValues(string(merged.Status)).Inc()
		}
	}

	m.changed()
	return merged
}

func (m *Monitor) publish(evt domain.Event) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(evt); err != nil {
		m.logger.Warn("publish event failed", zap.String("job_id", evt.JobID), zap.Error(err))
	}
}

func (m *Monitor) changed() {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()
	if m.onChange != nil {
		m.onChange(m.store.Snapshot())
	}
}
