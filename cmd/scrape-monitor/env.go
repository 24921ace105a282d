package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"scrapemonitor/internal/adapters/history"
	"scrapemonitor/internal/adapters/jobserver"
	"scrapemonitor/internal/adapters/natsbus"
	"scrapemonitor/internal/config"
	"scrapemonitor/internal/core/ports"
	"scrapemonitor/internal/logging"
	"scrapemonitor/internal/metrics"
	"scrapemonitor/internal/service"
)

// env holds everything a command needs, built from config and global flags.
type env struct {
	cfg      config.Config
	logger   *zap.Logger
	api      *jobserver.Client
	history  *history.SQLite
	notifier ports.Notifier
	closers  []func()
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := applyFlags(c, &cfg); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, c.Bool("debug"))
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, notifier: natsbus.Nop{}}
	e.closers = append(e.closers, func() { _ = logger.Sync() })

	api, err := jobserver.NewClient(cfg.ServerURL, cfg.HTTPTimeout)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.api = api

	if cfg.HistoryDB != "" {
		h, err := history.Open(cfg.HistoryDB)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.history = h
		e.closers = append(e.closers, func() { _ = h.Close() })
	}

	if cfg.NATSURL != "" {
		pub, err := natsbus.Connect(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logger.Warn("nats unavailable, events disabled", zap.String("url", cfg.NATSURL), zap.Error(err))
		} else {
			e.notifier = pub
			e.closers = append(e.closers, pub.Close)
		}
	}

	if cfg.MetricsAddr != "" {
		e.serveMetrics(cfg.MetricsAddr)
	}
	return e, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("server") {
		cfg.ServerURL = c.String("server")
	}
	if c.IsSet("interval") {
		if c.Duration("interval") <= 0 {
			return fmt.Errorf("--interval must be greater than zero (got %s)", c.Duration("interval"))
		}
		cfg.PollInterval = c.Duration("interval")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("history-db") {
		cfg.HistoryDB = c.String("history-db")
	}
	if c.IsSet("nats-url") {
		cfg.NATSURL = c.String("nats-url")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return nil
}

func (e *env) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		e.logger.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	e.closers = append(e.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

func (e *env) monitor() *service.Monitor {
	var h ports.History
	if e.history != nil {
		h = e.history
	}
	return service.NewMonitor(e.api, nil, h, e.notifier, e.logger, e.cfg.PollInterval)
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}
