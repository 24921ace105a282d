package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"scrapemonitor/internal/core/domain"
	"scrapemonitor/internal/devserver"
	"scrapemonitor/internal/logging"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	steps := flag.Int("steps", 3, "status reads before a job finishes")
	delay := flag.Duration("delay", 0, "delay added to every status read")
	failHost := flag.String("fail-host", "", "jobs for URLs containing this text fail with an error")
	debug := flag.Bool("debug", false, "human readable logs")
	flag.Parse()

	logger, err := logging.New("info", *debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := devserver.Options{StepsToFinish: *steps, StatusDelay: *delay}
	if *failHost != "" {
		opts.Resolve = func(rawURL string) devserver.Outcome {
			if strings.Contains(rawURL, *failHost) {
				return devserver.Outcome{Status: domain.StatusFailed, Error: "scrape timed out"}
			}
			return devserver.DefaultOutcome(rawURL)
		}
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      devserver.New(opts).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		logger.Info("devserver listening", zap.String("addr", *addr), zap.Int("steps", *steps))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("devserver failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
