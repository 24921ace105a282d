package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"scrapemonitor/internal/metrics"
)

// PollTask is the handle of one job's poll loop.
type PollTask struct {
	JobID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the loop. It does not wait for the in-flight request.
func (t *PollTask) Stop() { t.cancel() }

// Done is closed once the loop has exited.
func (t *PollTask) Done() <-chan struct{} { return t.done }

func (t *PollTask) running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// poll fetches the job status until it is terminal or ctx ends. Requests are
// strictly sequential. Every failure is retried after the same interval,
// without limit.
func (m *Monitor) poll(ctx context.Context, jobID string) {
	logger := m.logger.With(zap.String("job_id", jobID))
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			logger.Debug("polling stopped", zap.Error(ctx.Err()))
			return
		case <-timer.C:
		}

		job, err := m.api.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("polling stopped", zap.Error(ctx.Err()))
				return
			}
			metrics.PollsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			logger.Warn("polling error", zap.Int("attempt", attempt), zap.Error(err))
		} else {
			metrics.PollsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
			merged := m.apply(ctx, *job)
			if merged.Status.Terminal() {
				logger.Info("job finished",
					zap.String("status", string(merged.Status)),
					zap.Int("speaker_count", merged.Speakers()),
					zap.Int("polls", attempt))
				return
			}
		}

		timer.Reset(m.interval)
	}
}
