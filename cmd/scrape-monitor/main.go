package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "scrape-monitor",
		Usage: "submit speaker scrape jobs and watch them finish",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Usage: "job server base URL (JOB_SERVER_URL)"},
			&cli.DurationFlag{Name: "interval", Usage: "delay between status polls (POLL_INTERVAL)"},
			&cli.StringFlag{Name: "data-dir", Usage: "download destination (DATA_DIR)"},
			&cli.StringFlag{Name: "history-db", Usage: "SQLite job history file (HISTORY_DB)"},
			&cli.StringFlag{Name: "nats-url", Usage: "publish status changes to this NATS server (NATS_URL)"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address (METRICS_ADDR)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (LOG_LEVEL)"},
			&cli.BoolFlag{Name: "debug", Usage: "human readable logs"},
		},
		Commands: []*cli.Command{
			{
				Name:      "submit",
				Usage:     "start one job per URL and poll them to completion",
				ArgsUsage: "[url...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read URLs from a file, one per line"},
					&cli.IntFlag{Name: "timeout", Usage: "seconds the server may spend per job (SCRAPE_TIMEOUT)"},
					&cli.BoolFlag{Name: "no-wait", Usage: "print the job ids and exit without polling"},
				},
				Action: submitAction,
			},
			{
				Name:      "watch",
				Usage:     "poll existing jobs until they finish",
				ArgsUsage: "[job-id...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pending", Usage: "also watch every unfinished job in the history"},
				},
				Action: watchAction,
			},
			{
				Name:      "status",
				Usage:     "fetch the current status of jobs once",
				ArgsUsage: "<job-id...>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "table", Usage: "table, json or yaml"},
				},
				Action: statusAction,
			},
			{
				Name:      "download",
				Usage:     "save the file of completed jobs under the data directory",
				ArgsUsage: "<job-id...>",
				Action:    downloadAction,
			},
			{
				Name:  "history",
				Usage: "list recently recorded jobs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 25, Usage: "maximum number of jobs"},
				},
				Action: historyAction,
			},
		},
	}
}
