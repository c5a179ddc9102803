package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/report"
	"github.com/devicelab-dev/joplin-runner/pkg/retry"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
)

// artifactTimeFormat prefixes failure artifact names.
const artifactTimeFormat = "2006_01_02_15_04_05"

// classRunner executes the cases of one class between its setup and teardown.
type classRunner struct {
	runner *Runner
	class  suite.Class
	writer *report.Writer
	env    *suite.Env
	total  int // cases in the whole run
	offset int // index of the first case of this class
}

func (cr *classRunner) run(ctx context.Context) []CaseResult {
	cr.env = suite.NewEnv(cr.runner.suite, cr.class.Name)
	defer cr.tearDown()

	if err := cr.setUp(); err != nil {
		logger.Error("Class %s setup failed: %v", cr.class.Name, err)
		return cr.errorAll(fmt.Errorf("class setup: %w", err))
	}

	var results []CaseResult
	for i, tc := range cr.class.Cases {
		if ctx.Err() != nil {
			rest := cr.class
			rest.Cases = cr.class.Cases[i:]
			return append(results, cr.runner.skipClass(rest, cr.writer, "run cancelled")...)
		}
		results = append(results, cr.runCase(cr.offset+i, tc))
	}
	return results
}

func (cr *classRunner) setUp() error {
	if err := cr.env.SetUp(); err != nil {
		return err
	}
	if cr.class.SetUp != nil {
		return cr.class.SetUp(cr.env)
	}
	return nil
}

// tearDown runs even after a failed setup so fixtures never leak into the next class.
func (cr *classRunner) tearDown() {
	if cr.class.TearDown != nil {
		if err := cr.class.TearDown(cr.env); err != nil {
			logger.Warn("Class %s teardown: %v", cr.class.Name, err)
		}
	}
	if err := cr.env.TearDown(); err != nil {
		logger.Warn("Class %s cleanup: %v", cr.class.Name, err)
	}
}

func (cr *classRunner) errorAll(err error) []CaseResult {
	var results []CaseResult
	for i, tc := range cr.class.Cases {
		cr.notifyStart(cr.offset+i, tc)
		res := CaseResult{
			ID:        suite.CaseID(cr.class.Name, tc.Name),
			Class:     cr.class.Name,
			Name:      tc.Name,
			Status:    core.StatusErrored,
			StartTime: cr.runner.now(),
			Err:       err,
		}
		cr.runner.record(cr.writer, res)
		results = append(results, res)
	}
	return results
}

func (cr *classRunner) notifyStart(idx int, tc suite.Case) {
	if cr.writer != nil {
		cr.runner.reportWrite(cr.writer.Begin(suite.CaseID(cr.class.Name, tc.Name)))
	}
	if fn := cr.runner.config.OnCaseStart; fn != nil {
		fn(idx, cr.total, cr.class.Name, tc.Name)
	}
}

// runCase runs one case, retrying it once when marked, and cleans up after it.
func (cr *classRunner) runCase(idx int, tc suite.Case) CaseResult {
	r := cr.runner
	id := suite.CaseID(cr.class.Name, tc.Name)
	cr.notifyStart(idx, tc)
	logger.Debug("Starting test %s", id)

	res := CaseResult{
		ID:        id,
		Class:     cr.class.Name,
		Name:      tc.Name,
		StartTime: r.now(),
	}

	var last attempt
	run := func() error {
		res.Attempts++
		last = cr.attempt(tc)
		return last.err()
	}
	var err error
	if tc.Retry {
		err = retry.Do(tc.Name, run, r.suite.Pointer)
	} else {
		err = run()
	}
	res.Duration = r.now().Sub(res.StartTime)
	fmt.Fprintf(r.config.Out, "%.3f s, ", res.Duration.Seconds())

	skipped, reason := last.t.Skipped()
	switch {
	case skipped:
		res.Status = core.StatusSkipped
		res.SkipReason = reason
	case err == nil && res.Attempts > 1:
		res.Status = core.StatusFlaky
	case err == nil:
		res.Status = core.StatusPassed
	default:
		res.Status = classify(err, last.panicked)
		res.Err = err
		logger.Error("%s %s: %v", id, res.Status, err)
	}

	if r.config.Artifacts.ShouldCapture(res.Status) {
		res.Artifacts = cr.captureArtifacts(res)
	}

	// close any dialog the case left open
	if r.suite.Keyboard != nil {
		if err := r.suite.Keyboard.Press("esc", 1); err != nil {
			logger.Warn("%s: esc: %v", id, err)
		}
	}

	r.record(cr.writer, res)
	return res
}

type attempt struct {
	t        *suite.T
	panicked bool
	panicErr error
}

func (a attempt) err() error {
	if a.panicked {
		return a.panicErr
	}
	return a.t.Err()
}

// attempt runs the case body on its own goroutine, so FailNow can stop it
// and a panic fails only this case.
func (cr *classRunner) attempt(tc suite.Case) attempt {
	a := attempt{t: suite.NewT(cr.env, tc.Name)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if p := recover(); p != nil {
				logger.Error("%s: panic: %v\n%s", tc.Name, p, debug.Stack())
				a.panicked = true
				a.panicErr = fmt.Errorf("panic: %v", p)
			}
		}()
		tc.Run(a.t)
	}()
	<-done
	return a
}

// captureArtifacts saves the window screenshot, a grab of the whole
// display and the browser log to the debug directory.
func (cr *classRunner) captureArtifacts(res CaseResult) []core.Attachment {
	r := cr.runner
	dir := r.config.DebugDir
	if dir == "" {
		return nil
	}
	cfg := r.config.Artifacts
	base := fmt.Sprintf("%s_%s.%s", r.now().Format(artifactTimeFormat), res.Class, res.Name)

	var out []core.Attachment
	if cfg.Screenshot {
		name := base + "_webdriver.png"
		data, err := r.suite.Session.Screenshot()
		if err == nil {
			err = os.WriteFile(filepath.Join(dir, name), data, 0644)
		}
		if err != nil {
			logger.Warn("%s: screenshot: %v", res.ID, err)
		} else {
			out = append(out, core.NewScreenshotAttachment(name, nil))
		}
	}

	if cfg.Screen && r.config.Grab != nil {
		name := base + "_xvfb.png"
		if err := r.config.Grab(filepath.Join(dir, name)); err != nil {
			logger.Warn("%s: screen grab: %v", res.ID, err)
		} else {
			out = append(out, core.NewScreenAttachment(name, nil))
		}
	}

	if cfg.BrowserLog {
		name := base + "_browser_log.txt"
		entries, err := r.suite.Session.BrowserLog()
		if err == nil {
			att := core.NewBrowserLogAttachment(name, entries)
			if err = os.WriteFile(filepath.Join(dir, name), att.Body, 0644); err == nil {
				att.Body = nil
				out = append(out, att)
			}
		}
		if err != nil {
			logger.Warn("%s: browser log: %v", res.ID, err)
		}
	}
	return out
}
