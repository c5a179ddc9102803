package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestExecutionError_WithMessage(t *testing.T) {
	original := ErrWaitTimeout
	newErr := original.WithMessage("Adding note by hotkey failed")

	if newErr.Message != "Adding note by hotkey failed" {
		t.Errorf("Message = %q", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == "Adding note by hotkey failed" {
		t.Error("WithMessage() modified original error")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	original := &ExecutionError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{"segment": "Focus"})

	if newErr.Details["segment"] != "Focus" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["segment"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestExecutionError_IsMatchesCode(t *testing.T) {
	derived := ErrWaitTimeout.WithMessage("custom")
	if !errors.Is(derived, ErrWaitTimeout) {
		t.Error("derived timeout should match ErrWaitTimeout")
	}
	if errors.Is(derived, ErrMenuResolution) {
		t.Error("timeout should not match ErrMenuResolution")
	}

	wrapped := fmt.Errorf("case failed: %w", derived)
	if !errors.Is(wrapped, ErrWaitTimeout) {
		t.Error("wrapped timeout should still match")
	}

	cause := errors.New("root cause")
	if !errors.Is(ErrServerUnreachable.WithCause(cause), cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestNewTimeoutError(t *testing.T) {
	err := NewTimeoutError("Adding notebook by top menu failed")
	if err.Error() != "Adding notebook by top menu failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Category != ErrCategoryTimeout {
		t.Errorf("Category = %s, want timeout", err.Category)
	}

	if NewTimeoutError("").Message == "" {
		t.Error("empty message should fall back to the default")
	}
}

func TestNewMenuResolutionError(t *testing.T) {
	err := NewMenuResolutionError("Nope", []string{"File", "Edit"})

	if !errors.Is(err, ErrMenuResolution) {
		t.Error("should match ErrMenuResolution")
	}
	if !strings.Contains(err.Error(), `"Nope"`) || !strings.Contains(err.Error(), "File, Edit") {
		t.Errorf("Error() = %q, should name segment and siblings", err.Error())
	}
	if err.Details["segment"] != "Nope" {
		t.Errorf("Details[segment] = %v", err.Details["segment"])
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrElementNotFound, ErrCategoryAssertion, "element_not_found"},
		{ErrConditionNotMet, ErrCategoryAssertion, "condition_not_met"},
		{ErrWaitTimeout, ErrCategoryTimeout, "wait_timeout"},
		{ErrServerUnreachable, ErrCategoryConnection, "server_unreachable"},
		{ErrAPIUnavailable, ErrCategoryConnection, "api_unavailable"},
		{ErrAppNotResponding, ErrCategoryApp, "app_not_responding"},
		{ErrInvalidConfig, ErrCategoryConfig, "invalid_config"},
		{ErrMenuResolution, ErrCategoryMenu, "menu_resolution"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}
