package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"JOB_SERVER_URL", "SCRAPE_TIMEOUT", "POLL_INTERVAL", "HTTP_TIMEOUT", "DATA_DIR", "HISTORY_DB", "NATS_URL", "NATS_SUBJECT", "METRICS_ADDR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8000" {
		t.Fatalf("unexpected server url: %s", cfg.ServerURL)
	}
	if cfg.Timeout != 30 {
		t.Fatalf("unexpected timeout: %d", cfg.Timeout)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval)
	}
	if cfg.HistoryDB != "" || cfg.NATSURL != "" || cfg.MetricsAddr != "" {
		t.Fatalf("optional integrations should be disabled by default: %+v", cfg)
	}
	if cfg.NATSSubject != "scrape.jobs.status" {
		t.Fatalf("unexpected subject: %s", cfg.NATSSubject)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JOB_SERVER_URL", "http://jobs:9000")
	t.Setenv("SCRAPE_TIMEOUT", "15")
	t.Setenv("POLL_INTERVAL", "500ms")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.ServerURL != "http://jobs:9000" || cfg.Timeout != 15 || cfg.PollInterval != 500*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestFromEnvInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SCRAPE_TIMEOUT", "not-a-number"},
		{"SCRAPE_TIMEOUT", "0"},
		{"POLL_INTERVAL", "soon"},
		{"POLL_INTERVAL", "-1s"},
		{"HTTP_TIMEOUT", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
