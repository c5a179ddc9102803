// Package wait bridges the gap between a UI action and its observable effect.
//
// For polls a condition until it holds or a deadline passes. Conditions are
// plain closures, so a DOM query, a data API call or any other check can be
// awaited the same way.
package wait

import (
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// Defaults used when no option overrides them.
const (
	DefaultTimeout  = time.Second
	DefaultInterval = 100 * time.Millisecond
)

// Condition reports whether the awaited state has been reached.
// A returned error aborts the wait immediately.
type Condition func() (bool, error)

// Options configure a single wait.
type Options struct {
	Timeout      time.Duration
	Interval     time.Duration
	InitialDelay bool   // sleep one interval before the first evaluation
	Message      string // carried by the timeout error
}

// Option mutates Options.
type Option func(*Options)

// Timeout sets the total time budget.
func Timeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// Interval sets the pause between evaluations.
func Interval(d time.Duration) Option {
	return func(o *Options) { o.Interval = d }
}

// InitialDelay skips the immediate evaluation.
func InitialDelay() Option {
	return func(o *Options) { o.InitialDelay = true }
}

// Message sets the diagnostic carried by the timeout error.
func Message(msg string) Option {
	return func(o *Options) { o.Message = msg }
}

func buildOptions(opts []Option) Options {
	o := Options{
		Timeout:  DefaultTimeout,
		Interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// For blocks until cond reports true or the timeout elapses.
//
// The deadline is fixed on entry. Without InitialDelay the condition is
// checked once right away; afterwards every iteration sleeps one interval,
// checks the deadline and evaluates again. Errors from cond are returned
// as they are. On expiry the result is a core.ErrWaitTimeout carrying the
// configured message.
func For(cond Condition, opts ...Option) error {
	return poll(realClock{}, cond, buildOptions(opts))
}

func poll(c clock, cond Condition, o Options) error {
	deadline := c.Now().Add(o.Timeout)

	if !o.InitialDelay {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	for {
		c.Sleep(o.Interval)
		if c.Now().After(deadline) {
			logger.Debug("wait timed out after %s: %s", o.Timeout, o.Message)
			return core.NewTimeoutError(o.Message)
		}
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}
