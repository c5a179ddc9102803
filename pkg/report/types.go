// Package report writes the machine-readable result of a run.
//
// report.json in the debug directory is rewritten atomically after every
// case, so a crashed run still leaves a consistent file behind.
package report

import (
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
	StatusFlaky   Status = "flaky"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusFlaky:
		return true
	}
	return false
}

// FromCaseStatus converts the runner's status.
func FromCaseStatus(s core.CaseStatus) Status {
	switch s {
	case core.StatusRunning:
		return StatusRunning
	case core.StatusPassed:
		return StatusPassed
	case core.StatusFailed:
		return StatusFailed
	case core.StatusErrored:
		return StatusErrored
	case core.StatusSkipped:
		return StatusSkipped
	case core.StatusFlaky:
		return StatusFlaky
	}
	return StatusPending
}

// Index is the report file.
type Index struct {
	Version     string      `json:"version"`
	RunID       string      `json:"runId"`
	Status      Status      `json:"status"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
	LastUpdated time.Time   `json:"lastUpdated"`
	Runner      RunnerInfo  `json:"runner"`
	App         App         `json:"app"`
	Summary     Summary     `json:"summary"`
	Cases       []CaseEntry `json:"cases"`
}

// RunnerInfo describes the runner.
type RunnerInfo struct {
	Version string `json:"version"`
	Backend string `json:"backend"` // webdriver, cdp
}

// App describes the application under test.
type App struct {
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
	Flaky   int `json:"flaky"`
	Pending int `json:"pending"`
}

// CaseEntry is the result of one case.
type CaseEntry struct {
	Index     int               `json:"index"`
	ID        string            `json:"id"` // Class/Case
	Class     string            `json:"class"`
	Name      string            `json:"name"`
	Status    Status            `json:"status"`
	Attempts  int               `json:"attempts"`
	StartTime *time.Time        `json:"startTime,omitempty"`
	Duration  *int64            `json:"duration,omitempty"` // milliseconds
	Error     *string           `json:"error,omitempty"`
	Category  string            `json:"category,omitempty"`
	Artifacts []core.Attachment `json:"artifacts,omitempty"`
}

// CaseRef names a case before it runs.
type CaseRef struct {
	Class string
	Name  string
}

// ID is the Class/Case identifier used in filters and the report.
func (r CaseRef) ID() string {
	return r.Class + "/" + r.Name
}

// CaseUpdate is the outcome handed to Writer.Finish.
type CaseUpdate struct {
	Status    core.CaseStatus
	Attempts  int
	StartTime time.Time
	Duration  time.Duration
	Err       error
	Artifacts []core.Attachment
}
