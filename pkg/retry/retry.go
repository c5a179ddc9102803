// Package retry gives flaky UI steps a second chance.
package retry

import (
	"fmt"

	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// Func is a unit of work that either succeeds or fails.
type Func func() error

// Refocuser brings the application window back into focus.
type Refocuser interface {
	Click() error
}

// Once wraps fn so that a failed first run is followed by exactly one more.
//
// Between the runs a warning is written to the log and stdout, and refocus
// (when not nil) is invoked; its error is logged and otherwise ignored.
// The second run's error is returned unchanged.
func Once(name string, fn Func, refocus Refocuser) Func {
	return func() error {
		err := fn()
		if err == nil {
			return nil
		}
		logger.Debug("%s: first attempt error: %v", name, err)

		msg := fmt.Sprintf("%s: first run failed! Repeat once...", name)
		logger.Warn("%s", msg)
		fmt.Println(msg)

		if refocus != nil {
			if err := refocus.Click(); err != nil {
				logger.Warn("%s: refocus failed: %v", name, err)
			}
		}
		return fn()
	}
}

// Do runs fn under Once.
func Do(name string, fn Func, refocus Refocuser) error {
	return Once(name, fn, refocus)()
}
