package core

import "errors"

// CaseStatus represents the execution status of a test case
type CaseStatus int

const (
	StatusPending CaseStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Assertion failed (expected behavior didn't occur)
	StatusErrored                   // Unexpected error (infrastructure, timeout, crash)
	StatusSkipped                   // Filtered out or class setup failed
	StatusFlaky                     // Failed once, passed on the repeated run
)

// String returns the string representation of CaseStatus
func (s CaseStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusErrored:
		return "errored"
	case StatusSkipped:
		return "skipped"
	case StatusFlaky:
		return "flaky"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s CaseStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusErrored, StatusSkipped, StatusFlaky:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success (passed or flaky)
func (s CaseStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusFlaky
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Element not found, text mismatch, visibility check failed
	ErrCategoryTimeout                         // Poller deadline exceeded
	ErrCategoryConnection                      // Driver or data API connection lost
	ErrCategoryApp                             // App crashed or not responding
	ErrCategoryConfig                          // Invalid configuration, missing required field
	ErrCategoryMenu                            // Menu path or skip map does not match the layout
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryApp:
		return "app"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryMenu:
		return "menu"
	default:
		return "unknown"
	}
}

// CategoryOf extracts the category of err, or ErrCategoryNone for plain errors.
func CategoryOf(err error) ErrorCategory {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return ErrCategoryNone
}
