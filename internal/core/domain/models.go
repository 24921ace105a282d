package domain

import (
	"fmt"
	"time"
)

// Status is the job state reported by the job server.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether polling should stop at this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job represents a single scraping job as last reported by the server.
type Job struct {
	ID           string  `json:"job_id" yaml:"job_id"`
	Status       Status  `json:"status" yaml:"status"`
	URL          string  `json:"url,omitempty" yaml:"url,omitempty"`
	Index        int     `json:"index,omitempty" yaml:"index,omitempty"` // 1-based position in its batch
	FilePath     *string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	FileURL      *string `json:"file_url,omitempty" yaml:"file_url,omitempty"`
	SpeakerCount *int    `json:"speaker_count,omitempty" yaml:"speaker_count,omitempty"`
	Error        *string `json:"error,omitempty" yaml:"error,omitempty"`
	WebsiteName  *string `json:"website_name,omitempty" yaml:"website_name,omitempty"`
	StrategyUsed string  `json:"strategy_used,omitempty" yaml:"strategy_used,omitempty"`
	WebsiteType  string  `json:"website_type,omitempty" yaml:"website_type,omitempty"`

	UpdatedAt time.Time `json:"-" yaml:"-"`
}

// Speakers returns the speaker count, zero when the server sent none.
func (j Job) Speakers() int {
	if j.SpeakerCount == nil {
		return 0
	}
	return *j.SpeakerCount
}

// ErrorMessage returns the server error, empty when absent.
func (j Job) ErrorMessage() string {
	if j.Error == nil {
		return ""
	}
	return *j.Error
}

// SubmitRequest is the body of a job creation call.
type SubmitRequest struct {
	URLs        []string `json:"urls"`
	Timeout     int      `json:"timeout"`
	Fallback    bool     `json:"fallback"`
	Prediscover bool     `json:"prediscover"`
}

// SubmitResponse is what the server answers on creation.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status Status `json:"status"`
}

// BatchResult holds the outcome of one submit call.
type BatchResult struct {
	BatchID   string
	Requested int
	// JobIDs has one slot per requested URL; failed submissions stay empty.
	JobIDs []string
}

// Started counts the successful submissions.
func (b BatchResult) Started() int {
	n := 0
	for _, id := range b.JobIDs {
		if id != "" {
			n++
		}
	}
	return n
}

// Message is the one-line batch summary shown after submission.
func (b BatchResult) Message() string {
	return fmt.Sprintf("Started %d/%d jobs successfully", b.Started(), b.Requested)
}

// Event is published whenever a job changes status.
type Event struct {
	JobID        string `json:"job_id"`
	URL          string `json:"url,omitempty"`
	Previous     Status `json:"previous,omitempty"`
	Status       Status `json:"status"`
	SpeakerCount int    `json:"speaker_count,omitempty"`
	Error        string `json:"error,omitempty"`
	HappenedAt   int64  `json:"happened_at"`
}
