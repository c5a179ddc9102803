package executor

import (
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/report"
)

// toUpdate converts a case result for the report writer.
func toUpdate(res CaseResult) report.CaseUpdate {
	return report.CaseUpdate{
		Status:    res.Status,
		Attempts:  res.Attempts,
		StartTime: res.StartTime,
		Duration:  res.Duration,
		Err:       res.Err,
		Artifacts: res.Artifacts,
	}
}

// classify maps a failed attempt to failed or errored.
// Broken infrastructure and programming defects are errors, everything
// else is a failed expectation.
func classify(err error, panicked bool) core.CaseStatus {
	if panicked {
		return core.StatusErrored
	}
	switch core.CategoryOf(err) {
	case core.ErrCategoryConnection, core.ErrCategoryApp, core.ErrCategoryConfig, core.ErrCategoryMenu:
		return core.StatusErrored
	}
	return core.StatusFailed
}
