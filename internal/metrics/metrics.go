package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gauges
var (
	ActivePollers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scrape_monitor_active_pollers",
		Help: "Number of poll tasks currently running",
	})
)

// Counters
var (
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_monitor_submissions_total",
		Help: "Job creation requests by outcome",
	}, []string{"outcome"})
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_monitor_polls_total",
		Help: "Status requests by outcome",
	}, []string{"outcome"})
	TerminalJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_monitor_terminal_jobs_total",
		Help: "Jobs observed reaching a terminal status",
	}, []string{"status"})
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
