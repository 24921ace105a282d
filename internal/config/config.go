package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the client configuration.
type Config struct {
	ServerURL    string
	Timeout      int // seconds the server may spend on one job
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	DataDir      string
	HistoryDB    string
	NATSURL      string
	NATSSubject  string
	MetricsAddr  string
	LogLevel     string
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	// A missing .env is fine, variables may be set manually.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		ServerURL:   getenv("JOB_SERVER_URL", "http://localhost:8000"),
		DataDir:     getenv("DATA_DIR", "./data"),
		HistoryDB:   getenv("HISTORY_DB", ""),
		NATSURL:     getenv("NATS_URL", ""),
		NATSSubject: getenv("NATS_SUBJECT", "scrape.jobs.status"),
		MetricsAddr: getenv("METRICS_ADDR", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}

	timeout, err := parsePositiveInt(getenv("SCRAPE_TIMEOUT", "30"), "SCRAPE_TIMEOUT")
	if err != nil {
		return Config{}, err
	}
	cfg.Timeout = timeout

	interval, err := parsePositiveDuration(getenv("POLL_INTERVAL", "2s"), "POLL_INTERVAL")
	if err != nil {
		return Config{}, err
	}
	cfg.PollInterval = interval

	httpTimeout, err := parsePositiveDuration(getenv("HTTP_TIMEOUT", "30s"), "HTTP_TIMEOUT")
	if err != nil {
		return Config{}, err
	}
	cfg.HTTPTimeout = httpTimeout

	return cfg, nil
}

func parsePositiveInt(value string, name string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero (got %d)", name, v)
	}
	return v, nil
}

func parsePositiveDuration(value string, name string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero (got %s)", name, d)
	}
	return d, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
