package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"scrapemonitor/internal/core/domain"
	"scrapemonitor/internal/render"
)

func validFormat(format string) bool {
	switch format {
	case "table", "json", "yaml":
		return true
	}
	return false
}

// writeJobs prints jobs once in the requested format.
func writeJobs(w io.Writer, format string, jobs []domain.Job, baseURL string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(jobs); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		t := render.NewTable(w, baseURL)
		t.SetClear(false)
		return t.Render(jobs)
	}
	return fmt.Errorf("unknown format %q", format)
}

// summarize is the closing line printed once polling ends.
func summarize(jobs []domain.Job) string {
	var completed, failed, open int
	for _, j := range jobs {
		switch j.Status {
		case domain.StatusCompleted:
			completed++
		case domain.StatusFailed:
			failed++
		default:
			open++
		}
	}
	s := fmt.Sprintf("%d completed, %d failed", completed, failed)
	if open > 0 {
		s += fmt.Sprintf(", %d unfinished", open)
	}
	return s
}
