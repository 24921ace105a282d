package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"scrapemonitor/internal/adapters/downloader"
	"scrapemonitor/internal/adapters/history"
	"scrapemonitor/internal/adapters/localstorage"
	"scrapemonitor/internal/core/domain"
	"scrapemonitor/internal/render"
	"scrapemonitor/internal/service"
)

func submitAction(c *cli.Context) error {
	urls, err := readURLs(c.Args().Slice(), c.String("file"), c.App.Reader)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return cli.Exit("Please enter at least one URL.", 1)
	}
	if c.IsSet("timeout") && c.Int("timeout") <= 0 {
		return cli.Exit(fmt.Sprintf("--timeout must be greater than zero (got %d)", c.Int("timeout")), 1)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	timeout := e.cfg.Timeout
	if c.IsSet("timeout") {
		timeout = c.Int("timeout")
	}

	out := c.App.Writer
	table := render.NewTable(out, e.cfg.ServerURL)
	var (
		outMu  sync.Mutex
		footer string
	)
	m := e.monitor()
	m.OnChange(func(jobs []domain.Job) {
		outMu.Lock()
		defer outMu.Unlock()
		if err := table.Render(jobs); err != nil {
			e.logger.Warn("render failed", zap.Error(err))
		}
		if footer != "" {
			fmt.Fprintln(out, footer)
		}
	})
	defer m.Stop()

	res, err := m.Submit(c.Context, urls, timeout)
	if err != nil {
		return err
	}

	outMu.Lock()
	footer = res.Message()
	fmt.Fprintln(out, footer)
	outMu.Unlock()

	if res.Started() == 0 {
		return cli.Exit("no job could be started", 2)
	}
	if c.Bool("no-wait") {
		m.Stop()
		for _, id := range res.JobIDs {
			if id != "" {
				fmt.Fprintln(out, id)
			}
		}
		return nil
	}

	m.Wait()
	fmt.Fprintln(out, summarize(m.Store().Snapshot()))
	return nil
}

func watchAction(c *cli.Context) error {
	ids := c.Args().Slice()
	pending := c.Bool("pending")
	if len(ids) == 0 && !pending {
		return cli.Exit("Please give at least one job id.", 1)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()
	if pending && e.history == nil {
		return cli.Exit("--pending needs a history database (--history-db or HISTORY_DB)", 1)
	}

	var jobs []domain.Job
	if pending {
		jobs, err = e.history.ListPending(c.Context)
		if err != nil {
			return fmt.Errorf("failed to list pending jobs: %w", err)
		}
	}
	for _, id := range ids {
		jobs = append(jobs, e.known(c, id))
	}
	out := c.App.Writer
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No pending jobs.")
		return nil
	}

	table := render.NewTable(out, e.cfg.ServerURL)
	m := e.monitor()
	m.OnChange(func(jobs []domain.Job) {
		if err := table.Render(jobs); err != nil {
			e.logger.Warn("render failed", zap.Error(err))
		}
	})
	defer m.Stop()

	for _, job := range jobs {
		m.Track(job)
	}
	for _, job := range jobs {
		m.Watch(c.Context, job.ID)
	}
	m.Wait()
	fmt.Fprintln(out, summarize(m.Store().Snapshot()))
	return nil
}

func statusAction(c *cli.Context) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return cli.Exit("Please give at least one job id.", 1)
	}
	format := c.String("format")
	if !validFormat(format) {
		return cli.Exit(fmt.Sprintf("unknown format %q (want table, json or yaml)", format), 1)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	m := e.monitor()
	if e.history != nil {
		for _, id := range ids {
			if job, err := e.history.Get(c.Context, id); err == nil {
				m.Track(job)
			}
		}
	}

	errs := m.Refresh(c.Context, ids)
	for _, err := range errs {
		fmt.Fprintln(c.App.ErrWriter, err)
	}
	if err := writeJobs(c.App.Writer, format, m.Store().Snapshot(), e.cfg.ServerURL); err != nil {
		return err
	}
	if len(errs) == len(ids) {
		return cli.Exit("no status could be fetched", 2)
	}
	return nil
}

func downloadAction(c *cli.Context) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return cli.Exit("Please give at least one job id.", 1)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	saver := service.NewArtifactSaver(e.api, downloader.NewHTTPDownloader(), localstorage.NewLocalStorage(e.cfg.DataDir), e.logger)
	failed := 0
	for _, id := range ids {
		saved, err := saver.Save(c.Context, id)
		if err != nil {
			failed++
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", id, err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", id, saved.Path, humanize.Bytes(uint64(saved.Bytes)))
	}
	if failed == len(ids) {
		return cli.Exit("no file could be downloaded", 2)
	}
	return nil
}

func historyAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()
	if e.history == nil {
		return cli.Exit("no history database configured (--history-db or HISTORY_DB)", 1)
	}

	jobs, err := e.history.ListRecent(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	out := c.App.Writer
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}
	if err := writeJobs(out, "table", jobs, e.cfg.ServerURL); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nTotal: %d jobs\n", len(jobs))
	return nil
}

// known returns the recorded job for id, or a queued placeholder.
func (e *env) known(c *cli.Context, id string) domain.Job {
	if e.history != nil {
		job, err := e.history.Get(c.Context, id)
		if err == nil {
			return job
		}
		if !errors.Is(err, history.ErrNotFound) {
			e.logger.Warn("history lookup failed", zap.String("job_id", id), zap.Error(err))
		}
	}
	return domain.Job{ID: id, Status: domain.StatusQueued}
}
