// Package devserver is an in-process stand-in for the scrape job server.
// It answers the same three routes with scripted outcomes and never scrapes.
package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"scrapemonitor/internal/core/domain"
)

// Outcome is what a finished job reports.
type Outcome struct {
	Status       domain.Status
	SpeakerCount int
	Error        string
	FileName     string
	FileURL      string
	Content      []byte
	Gone         bool // download answers 410
}

// Options scripts how the fake server behaves.
type Options struct {
	// StepsToFinish is how many status reads a job spends queued/running
	// before it reports its outcome.
	StepsToFinish int
	// Resolve decides the outcome for a URL. Defaults to 3 speakers and a CSV.
	Resolve func(rawURL string) Outcome
	// RejectURL makes job creation answer 500 for matching URLs.
	RejectURL func(rawURL string) bool
	// FlakyStatus makes the first N status reads of every job answer 503.
	FlakyStatus int
	// StatusDelay is slept before answering each status read.
	StatusDelay time.Duration
}

type job struct {
	id       string
	url      string
	reads    int
	inFlight int
	outcome  Outcome
}

// Server is a fake job server holding its jobs in memory.
type Server struct {
	opts Options

	mu          sync.Mutex
	jobs        map[string]*job
	submissions []domain.SubmitRequest
	statusCalls map[string]int
	maxInFlight int
}

// New returns a Server with defaults filled in.
func New(opts Options) *Server {
	if opts.StepsToFinish <= 0 {
		opts.StepsToFinish = 2
	}
	if opts.Resolve == nil {
		opts.Resolve = DefaultOutcome
	}
	return &Server{
		opts:        opts,
		jobs:        make(map[string]*job),
		statusCalls: make(map[string]int),
	}
}

// DefaultOutcome completes every URL with three speakers.
func DefaultOutcome(rawURL string) Outcome {
	name := WebsiteName(rawURL)
	return Outcome{
		Status:       domain.StatusCompleted,
		SpeakerCount: 3,
		FileName:     name + "_speakers.csv",
		Content:      []byte("full_name,company,position\nAda Lovelace,Analytical,Keynote\n"),
	}
}

// Router serves the job routes plus /healthz.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/scrape_sga", s.handleStart)
	r.Get("/status/{id}", s.handleStatus)
	r.Get("/download/{id}", s.handleDownload)
	return r
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusUnprocessableEntity, fmt.Errorf("invalid body: %w", err))
		return
	}

	s.mu.Lock()
	s.submissions = append(s.submissions, req)
	s.mu.Unlock()

	if len(req.URLs) == 0 {
		writeErr(w, http.StatusBadRequest, errors.New("No URLs provided"))
		return
	}
	if s.opts.RejectURL != nil && s.opts.RejectURL(req.URLs[0]) {
		writeErr(w, http.StatusInternalServerError, errors.New("could not queue job"))
		return
	}
	j := &job{
		id:      uuid.NewString(),
		url:     req.URLs[0],
		outcome: s.opts.Resolve(req.URLs[0]),
	}
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": j.id, "status": domain.StatusQueued})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	s.statusCalls[id]++
	calls := s.statusCalls[id]
	j, ok := s.jobs[id]
	if ok {
		j.inFlight++
		if j.inFlight > s.maxInFlight {
			s.maxInFlight = j.inFlight
		}
	}
	s.mu.Unlock()

	if !ok {
		writeErr(w, http.StatusNotFound, errors.New("Job not found"))
		return
	}
	defer func() {
		s.mu.Lock()
		j.inFlight--
		s.mu.Unlock()
	}()

	if s.opts.StatusDelay > 0 {
		time.Sleep(s.opts.StatusDelay)
	}
	if calls <= s.opts.FlakyStatus {
		writeErr(w, http.StatusServiceUnavailable, errors.New("try again"))
		return
	}

	s.mu.Lock()
	j.reads++
	body := s.snapshot(j)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, body)
}

// snapshot mirrors the shapes the real server stores per state.
func (s *Server) snapshot(j *job) map[string]any {
	switch {
	case j.reads < s.opts.StepsToFinish && j.reads <= 1:
		return map[string]any{"job_id": j.id, "status": domain.StatusQueued, "file_path": nil, "error": nil}
	case j.reads < s.opts.StepsToFinish:
		return map[string]any{"job_id": j.id, "status": domain.StatusRunning, "file_path": nil, "error": nil}
	}

	o := j.outcome
	body := map[string]any{
		"job_id":        j.id,
		"status":        o.Status,
		"file_path":     nil,
		"error":         nil,
		"speaker_count": o.SpeakerCount,
		"website_name":  WebsiteName(j.url),
		"url":           j.url,
	}
	if o.Status == domain.StatusFailed {
		body["website_name"] = nil
		delete(body, "url")
	}
	if o.Error != "" {
		body["error"] = o.Error
	}
	if o.FileName != "" {
		body["file_path"] = "/srv/outputs/" + o.FileName
	}
	if o.FileURL != "" {
		body["file_url"] = o.FileURL
	}
	return body
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	j, ok := s.jobs[id]
	var (
		done    bool
		outcome Outcome
	)
	if ok {
		done = j.reads >= s.opts.StepsToFinish
		outcome = j.outcome
	}
	s.mu.Unlock()

	if !ok {
		writeErr(w, http.StatusNotFound, errors.New("Job not found"))
		return
	}
	if !done || outcome.Status != domain.StatusCompleted || outcome.FileName == "" {
		writeErr(w, http.StatusConflict, errors.New("Job not completed"))
		return
	}
	if outcome.Gone {
		writeErr(w, http.StatusGone, errors.New("File no longer available"))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outcome.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(outcome.Content)
}

// Submissions returns every creation body received, in arrival order.
func (s *Server) Submissions() []domain.SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SubmitRequest, len(s.submissions))
	copy(out, s.submissions)
	return out
}

// StatusCalls counts status reads for a job id, including failed ones.
func (s *Server) StatusCalls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls[id]
}

// MaxInFlight is the highest number of concurrent status reads seen for any
// single job.
func (s *Server) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

// WebsiteName is the first label of the host without "www.".
func WebsiteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"detail": err.Error()})
}
