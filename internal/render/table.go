package render

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"scrapemonitor/internal/core/domain"
)

const clearScreen = "\033[H\033[2J"

// Table draws the job table to a writer, one full redraw per call.
type Table struct {
	w       io.Writer
	baseURL *url.URL
	clear   bool
	now     func() time.Time
}

// NewTable returns a Table writing to w. Relative links are resolved against
// baseURL when it parses. The screen is cleared between redraws only when w
// is a terminal.
func NewTable(w io.Writer, baseURL string) *Table {
	t := &Table{w: w, now: time.Now}
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		t.baseURL = u
	}
	if f, ok := w.(*os.File); ok {
		t.clear = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return t
}

// SetClear overrides terminal detection.
func (t *Table) SetClear(clear bool) { t.clear = clear }

// Render redraws the whole table for jobs.
func (t *Table) Render(jobs []domain.Job) error {
	var b strings.Builder
	if t.clear {
		b.WriteString(clearScreen)
	}
	if err := t.write(&b, Rows(jobs), jobs); err != nil {
		return err
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Table) write(w io.Writer, rows []Row, jobs []domain.Job) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSTATUS\tFILE\tDOWNLOAD\tNOTE\tUPDATED")
	if len(rows) == 0 {
		fmt.Fprintln(tw, "(no jobs)\t\t\t\t\t")
	}
	for i, r := range rows {
		status := r.StatusText
		if r.StatusTone == ToneWarning {
			status = "! " + status
		}
		download := ""
		if r.DownloadHref != "" {
			download = fmt.Sprintf("%s (%s)", r.DownloadText, t.resolve(r.DownloadHref))
		}
		updated := "–"
		if !jobs[i].UpdatedAt.IsZero() {
			updated = humanize.RelTime(jobs[i].UpdatedAt, t.now(), "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Label, status, r.FileText, download, r.Tooltip, updated)
	}
	return tw.Flush()
}

func (t *Table) resolve(href string) string {
	if t.baseURL == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return t.baseURL.ResolveReference(ref).String()
}
