package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// BuilderConfig contains configuration for building the report skeleton.
type BuilderConfig struct {
	RunnerVersion string
	Backend       string
	App           App
}

// BuildSkeleton creates the initial report with every selected case pending.
func BuildSkeleton(cases []CaseRef, cfg BuilderConfig) *Index {
	now := time.Now()
	index := &Index{
		Version:     Version,
		RunID:       uuid.NewString(),
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Runner: RunnerInfo{
			Version: cfg.RunnerVersion,
			Backend: cfg.Backend,
		},
		App:   cfg.App,
		Cases: make([]CaseEntry, len(cases)),
	}
	for i, c := range cases {
		index.Cases[i] = CaseEntry{
			Index:  i,
			ID:     c.ID(),
			Class:  c.Class,
			Name:   c.Name,
			Status: StatusPending,
		}
	}
	index.Summary = computeSummary(index.Cases)
	return index
}

// Writer provides thread-safe updates to report.json.
type Writer struct {
	mu    sync.Mutex
	path  string
	index *Index
}

// NewWriter creates a writer for <dir>/report.json.
func NewWriter(dir string, index *Index) *Writer {
	return &Writer{
		path:  filepath.Join(dir, "report.json"),
		index: index,
	}
}

// Path returns the report file path.
func (w *Writer) Path() string {
	return w.path
}

// Start marks the run as started.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.Status = StatusRunning
	w.index.StartTime = now
	return w.flushLocked()
}

// Begin marks a case as running.
func (w *Writer) Begin(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c := w.find(id); c != nil {
		now := time.Now()
		c.Status = StatusRunning
		c.StartTime = &now
	}
	return w.flushLocked()
}

// Finish records the outcome of a case.
func (w *Writer) Finish(id string, u CaseUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.find(id)
	if c == nil {
		return fmt.Errorf("unknown case %s", id)
	}
	c.Status = FromCaseStatus(u.Status)
	c.Attempts = u.Attempts
	if !u.StartTime.IsZero() {
		start := u.StartTime
		c.StartTime = &start
	}
	ms := u.Duration.Milliseconds()
	c.Duration = &ms
	if u.Err != nil {
		msg := u.Err.Error()
		c.Error = &msg
		c.Category = core.CategoryOf(u.Err).String()
	}
	c.Artifacts = u.Artifacts
	return w.flushLocked()
}

// End marks the run as complete.
func (w *Writer) End() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = computeRunStatus(w.index.Cases)
	return w.flushLocked()
}

// Index returns the current index (for reading).
func (w *Writer) Index() *Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *Writer) find(id string) *CaseEntry {
	for i := range w.index.Cases {
		if w.index.Cases[i].ID == id {
			return &w.index.Cases[i]
		}
	}
	return nil
}

func (w *Writer) flushLocked() error {
	w.index.LastUpdated = time.Now()
	w.index.Summary = computeSummary(w.index.Cases)
	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Error("Failed to write report: %v", err)
		return err
	}
	return nil
}

// computeSummary calculates summary from case statuses.
func computeSummary(cases []CaseEntry) Summary {
	var s Summary
	for _, c := range cases {
		s.Total++
		switch c.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusErrored:
			s.Errored++
		case StatusSkipped:
			s.Skipped++
		case StatusFlaky:
			s.Flaky++
		default:
			s.Pending++
		}
	}
	return s
}

// computeRunStatus determines overall run status from cases.
func computeRunStatus(cases []CaseEntry) Status {
	hasFailure := false
	for _, c := range cases {
		if !c.Status.IsTerminal() {
			return StatusRunning
		}
		if c.Status == StatusFailed || c.Status == StatusErrored {
			hasFailure = true
		}
	}
	if hasFailure {
		return StatusFailed
	}
	return StatusPassed
}

// atomicWriteJSON writes v next to path and renames it into place.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a report file.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &index, nil
}
