package pipeline

import (
	"fmt"
	"time"
)

// Status is the outcome of one pipeline run.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusError       Status = "error"
	StatusInterrupted Status = "interrupted"
)

// Result summarises one run.
type Result struct {
	RunID     string        `json:"run_id"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Scraped   int           `json:"scraped"`
	Processed int           `json:"processed"`
	Published int           `json:"published"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

func (r Result) String() string {
	if r.Status == StatusError {
		return fmt.Sprintf("status=%s message=%q duration=%s", r.Status, r.Message, r.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("status=%s scraped=%d processed=%d published=%d duration=%s",
		r.Status, r.Scraped, r.Processed, r.Published, r.Duration.Round(time.Millisecond))
}
