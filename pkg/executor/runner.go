// Package executor runs suite classes case by case, connecting the session to reports.
package executor

import (
	"context"
	"io"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/report"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
)

// RunnerConfig configures the test runner.
type RunnerConfig struct {
	DebugDir  string              // report.json and failure artifacts
	Artifacts core.ArtifactConfig // when and what to capture
	Out       io.Writer           // case durations are printed here, nil discards

	// Grab captures the whole display. Nil skips the screen artifact.
	Grab func(path string) error

	// Report metadata
	RunnerVersion string
	Backend       string
	App           report.App

	// Live progress callbacks
	OnCaseStart func(idx, total int, class, name string)
	OnCaseEnd   func(res CaseResult)
}

// RunResult contains the outcome of a test run.
type RunResult struct {
	Status      report.Status
	Total       int
	Passed      int
	Failed      int
	Errored     int
	Skipped     int
	Flaky       int
	Duration    time.Duration
	ReportPath  string
	ReportErr   error // first report update that failed
	CaseResults []CaseResult
}

// Success is true when no case failed or errored.
func (r *RunResult) Success() bool {
	return r.Failed == 0 && r.Errored == 0
}

// CaseResult contains the outcome of a single case.
type CaseResult struct {
	ID         string
	Class      string
	Name       string
	Status     core.CaseStatus
	Attempts   int
	StartTime  time.Time
	Duration   time.Duration
	Err        error
	SkipReason string
	Artifacts  []core.Attachment
}

// Runner orchestrates case execution.
type Runner struct {
	config RunnerConfig
	suite  *suite.Suite
	now    func() time.Time

	reportErr error
}

// New creates a new Runner.
func New(s *suite.Suite, cfg RunnerConfig) *Runner {
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Runner{
		config: cfg,
		suite:  s,
		now:    time.Now,
	}
}

// Plan lists the cases of classes in execution order.
func Plan(classes []suite.Class) []report.CaseRef {
	var refs []report.CaseRef
	for _, c := range classes {
		for _, tc := range c.Cases {
			refs = append(refs, report.CaseRef{Class: c.Name, Name: tc.Name})
		}
	}
	return refs
}

// Run executes every case of classes in order and writes the report.
// Cancelling ctx skips the cases that have not started yet.
func (r *Runner) Run(ctx context.Context, classes []suite.Class) (*RunResult, error) {
	index := report.BuildSkeleton(Plan(classes), report.BuilderConfig{
		RunnerVersion: r.config.RunnerVersion,
		Backend:       r.config.Backend,
		App:           r.config.App,
	})

	r.reportErr = nil
	var writer *report.Writer
	if r.config.DebugDir != "" {
		writer = report.NewWriter(r.config.DebugDir, index)
		if err := writer.Start(); err != nil {
			return nil, err
		}
	}
	logger.Info("Run %s: %d cases", index.RunID, len(index.Cases))

	start := r.now()
	total := len(index.Cases)
	var results []CaseResult
	for _, class := range classes {
		if ctx.Err() != nil {
			results = append(results, r.skipClass(class, writer, "run cancelled")...)
			continue
		}
		cr := &classRunner{runner: r, class: class, writer: writer, total: total, offset: len(results)}
		results = append(results, cr.run(ctx)...)
	}

	result := buildRunResult(results)
	result.Duration = r.now().Sub(start)
	if writer != nil {
		err := writer.End()
		r.reportWrite(err)
		result.ReportErr = r.reportErr
		if err != nil {
			return result, err
		}
		result.ReportPath = writer.Path()
	}
	return result, nil
}

func (r *Runner) skipClass(class suite.Class, writer *report.Writer, reason string) []CaseResult {
	var results []CaseResult
	for _, tc := range class.Cases {
		res := CaseResult{
			ID:         suite.CaseID(class.Name, tc.Name),
			Class:      class.Name,
			Name:       tc.Name,
			Status:     core.StatusSkipped,
			SkipReason: reason,
		}
		r.record(writer, res)
		results = append(results, res)
	}
	return results
}

func (r *Runner) record(writer *report.Writer, res CaseResult) {
	if writer != nil {
		r.reportWrite(writer.Finish(res.ID, toUpdate(res)))
	}
	if r.config.OnCaseEnd != nil {
		r.config.OnCaseEnd(res)
	}
}

// reportWrite keeps the first report update error.
func (r *Runner) reportWrite(err error) {
	if err != nil && r.reportErr == nil {
		r.reportErr = err
	}
}

// buildRunResult aggregates case results into a run result.
func buildRunResult(results []CaseResult) *RunResult {
	result := &RunResult{
		Total:       len(results),
		CaseResults: results,
	}
	for _, cr := range results {
		switch cr.Status {
		case core.StatusPassed:
			result.Passed++
		case core.StatusFailed:
			result.Failed++
		case core.StatusErrored:
			result.Errored++
		case core.StatusSkipped:
			result.Skipped++
		case core.StatusFlaky:
			result.Flaky++
		}
	}
	if result.Success() {
		result.Status = report.StatusPassed
	} else {
		result.Status = report.StatusFailed
	}
	return result
}
