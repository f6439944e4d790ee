// Package report holds the structured outcome of a deferred-command run
// and a store for retrieving it by run ID.
package report

import (
	"fmt"
	"time"

	"github.com/deixis/rebootcmds/internal/runner"
)

// Step statuses.
const (
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusSkipped = "skipped"
)

// Store persists and retrieves run reports.
type Store interface {
	Save(run *Run) error
	Load(runID string) (*Run, error)
}

// Run is the outcome of one processor invocation. It is a diagnostic
// record; nothing reads it back to resume a later run.
type Run struct {
	ID        string    `json:"id"`
	Marker    string    `json:"marker"`
	Pending   bool      `json:"pending"`
	StartedAt time.Time `json:"started_at"`
	Steps     []Step    `json:"steps,omitempty"`
	FailedIdx int       `json:"failed_idx"` // -1 if no step failed
}

// Step is the outcome of one deferred command.
type Step struct {
	Command  runner.Command `json:"command"`
	Status   string         `json:"status"`
	ExitCode *int           `json:"exit_code,omitempty"` // nil when never started or skipped
	Stdout   string         `json:"stdout,omitempty"`
	Stderr   string         `json:"stderr,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration_ns,omitempty"`
}

// Failed reports whether a step failed.
func (r *Run) Failed() bool {
	return r.FailedIdx >= 0
}

// Step returns the step at index i.
func (r *Run) Step(i int) (*Step, error) {
	if i < 0 || i >= len(r.Steps) {
		return nil, fmt.Errorf("run %s has no step %d (%d steps)", r.ID, i, len(r.Steps))
	}
	return &r.Steps[i], nil
}

// ExitCodeText renders the step's exit code, or "none" when the command
// never produced one.
func (s *Step) ExitCodeText() string {
	if s.ExitCode == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *s.ExitCode)
}
