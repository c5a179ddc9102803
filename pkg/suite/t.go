package suite

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// T is handed to a running case. It satisfies require.TestingT, so
// require.Equal(t, ...) ends the attempt on the first mismatch.
//
// FailNow and Skip stop the calling goroutine; the runner executes every
// attempt on its own goroutine for that reason.
type T struct {
	*Env

	name string

	mu         sync.Mutex
	failed     bool
	skipped    bool
	skipReason string
	messages   []string
	cause      error
}

// NewT creates the state of one attempt.
func NewT(env *Env, name string) *T {
	return &T{Env: env, name: name}
}

// Name returns the case name.
func (t *T) Name() string { return t.name }

// Helper is a no-op; testify calls it when available.
func (t *T) Helper() {}

// Logf writes to the run log.
func (t *T) Logf(format string, args ...interface{}) {
	logger.Info("%s: %s", t.name, fmt.Sprintf(format, args...))
}

// Errorf records a failure and lets the case continue.
func (t *T) Errorf(format string, args ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	logger.Error("%s: %s", t.name, msg)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
	t.messages = append(t.messages, msg)
}

// FailNow marks the case failed and ends the attempt.
func (t *T) FailNow() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
	runtime.Goexit()
}

// Check ends the attempt when err is not nil, keeping err as the cause.
func (t *T) Check(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	if t.cause == nil {
		t.cause = err
	}
	t.mu.Unlock()
	t.Errorf("%v", err)
	t.FailNow()
}

// Skip ends the attempt without failing it.
func (t *T) Skip(reason string) {
	t.mu.Lock()
	t.skipped = true
	t.skipReason = reason
	t.mu.Unlock()
	logger.Info("%s: skipped: %s", t.name, reason)
	runtime.Goexit()
}

// Failed reports whether the attempt failed.
func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// Skipped reports whether the attempt was skipped and why.
func (t *T) Skipped() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.skipped, t.skipReason
}

// Err is nil for a passed or skipped attempt.
// A single failure passed to Check is returned as it is.
func (t *T) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.failed {
		return nil
	}
	if t.cause != nil && len(t.messages) == 1 {
		return t.cause
	}
	msg := strings.Join(t.messages, "; ")
	if msg == "" {
		msg = "case failed"
	}
	return core.ErrConditionNotMet.WithMessage(msg).WithCause(t.cause)
}

// Require returns assertions bound to t.
func (t *T) Require() *require.Assertions {
	return require.New(t)
}

// AssertContains fails unless element is rendered inside container.
func (t *T) AssertContains(container, element core.Element) {
	inner, err := element.Attribute("outerHTML")
	t.Check(err)
	outer, err := container.Attribute("outerHTML")
	t.Check(err)
	require.NotEqual(t, "", strings.TrimSpace(inner), "element has no markup")
	require.Contains(t, outer, inner)
}

// AssertFocused fails unless element has the keyboard focus.
func (t *T) AssertFocused(element core.Element) {
	ok, err := t.IsFocused(element)
	t.Check(err)
	require.True(t, ok, "element %s is not focused", element.ID())
}
