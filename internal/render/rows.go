// Package render turns job records into table rows and draws them.
package render

import (
	"fmt"

	"scrapemonitor/internal/core/domain"
	"scrapemonitor/internal/service"
)

const urlDisplayLimit = 40

// Tone hints how a cell should be highlighted.
type Tone int

const (
	ToneNormal Tone = iota
	ToneWarning
)

// Row is the display form of one job. Hrefs are server-relative unless the
// server sent an absolute file_url.
type Row struct {
	JobID        string
	Label        string // "{index}. {url}" or "Job {short id}"
	Title        string // full url, or id
	Status       domain.Status
	StatusText   string
	StatusTone   Tone
	Tooltip      string
	Website      string
	FileName     string
	FileHref     string
	FileText     string
	FileTone     Tone
	DownloadHref string
	DownloadText string
}

const downloadLabel = "Download File"

// Rows maps jobs to rows in the same order. It holds no state.
func Rows(jobs []domain.Job) []Row {
	rows := make([]Row, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, RowFor(job))
	}
	return rows
}

// RowFor computes the display row of one job.
func RowFor(job domain.Job) Row {
	r := Row{
		JobID:      job.ID,
		Label:      label(job),
		Title:      job.ID,
		Status:     job.Status,
		StatusText: string(job.Status),
		FileHref:   fileHref(job),
		FileName:   service.ArtifactName(job),
	}
	if job.URL != "" {
		r.Title = job.URL
	}
	if job.WebsiteName != nil {
		r.Website = *job.WebsiteName
	}

	errMsg := job.ErrorMessage()
	speakers := job.Speakers()

	switch {
	case job.Status == domain.StatusCompleted && speakers > 0:
		r.StatusText = fmt.Sprintf("%s (%d speakers)", job.Status, speakers)
	case job.Status == domain.StatusCompleted && errMsg != "":
		r.StatusText = "Failed to extract"
		r.StatusTone = ToneWarning
	case job.Status == domain.StatusFailed && errMsg != "":
		r.StatusText = "failed"
		r.Tooltip = errMsg
	}

	switch {
	case errMsg != "" && job.SpeakerCount != nil && speakers == 0:
		r.FileText = "⚠️ " + errMsg
		r.FileTone = ToneWarning
		r.Tooltip = errMsg
	case r.FileHref != "":
		r.FileText = r.FileName
		if r.Website != "" {
			r.FileText = r.Website + " / " + r.FileName
		}
	case r.Website != "":
		r.FileText = r.Website
	default:
		r.FileText = "–"
	}

	if job.Status == domain.StatusCompleted && r.FileHref != "" && speakers > 0 {
		r.DownloadHref = r.FileHref
		r.DownloadText = downloadLabel
	}
	return r
}

func label(job domain.Job) string {
	if job.URL == "" {
		return "Job " + shortID(job.ID)
	}
	u := []rune(job.URL)
	shown := job.URL
	if len(u) > urlDisplayLimit {
		shown = string(u[:urlDisplayLimit]) + "..."
	}
	if job.Index > 0 {
		return fmt.Sprintf("%d. %s", job.Index, shown)
	}
	return shown
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func fileHref(job domain.Job) string {
	if job.FileURL != nil && *job.FileURL != "" {
		return *job.FileURL
	}
	if job.FilePath != nil && *job.FilePath != "" {
		return "/download/" + job.ID
	}
	return ""
}
