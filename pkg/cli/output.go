package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/executor"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = os.Getenv("NO_COLOR") == "" &&
	(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// progress prints live case results, one line or one character per case.
type progress struct {
	out       io.Writer
	verbosity int
	started   map[string]bool
}

func newProgress(out io.Writer, verbosity int) *progress {
	return &progress{out: out, verbosity: verbosity, started: make(map[string]bool)}
}

// durationWriter receives the per-case duration the runner prints; only
// the line-per-case mode shows it.
func (p *progress) durationWriter() io.Writer {
	if p.verbosity >= 2 {
		return p.out
	}
	return io.Discard
}

func (p *progress) caseStart(idx, total int, class, name string) {
	p.started[class+"/"+name] = true
	if p.verbosity < 2 {
		return
	}
	fmt.Fprintf(p.out, "%s[%d/%d]%s %s (%s) ... ",
		color(colorCyan), idx+1, total, color(colorReset), name, class)
}

func (p *progress) caseEnd(res executor.CaseResult) {
	switch {
	case p.verbosity >= 2:
		if !p.started[res.ID] {
			// skipped before it could start
			fmt.Fprintf(p.out, "%s (%s) ... ", res.Name, res.Class)
		}
		fmt.Fprintf(p.out, "%s%s%s\n", statusColor(res.Status), statusWord(res), color(colorReset))
	case p.verbosity == 1:
		fmt.Fprint(p.out, statusLetter(res.Status))
	}
}

func statusColor(s core.CaseStatus) string {
	switch s {
	case core.StatusPassed:
		return color(colorGreen)
	case core.StatusFlaky, core.StatusSkipped:
		return color(colorYellow)
	default:
		return color(colorRed)
	}
}

func statusWord(res executor.CaseResult) string {
	switch res.Status {
	case core.StatusPassed:
		return "ok"
	case core.StatusFlaky:
		return fmt.Sprintf("ok (passed on attempt %d)", res.Attempts)
	case core.StatusSkipped:
		return fmt.Sprintf("skipped %q", res.SkipReason)
	case core.StatusErrored:
		return "ERROR"
	default:
		return "FAIL"
	}
}

func statusLetter(s core.CaseStatus) string {
	switch s {
	case core.StatusPassed, core.StatusFlaky:
		return "."
	case core.StatusSkipped:
		return "s"
	case core.StatusErrored:
		return "E"
	default:
		return "F"
	}
}

// summary prints the failures and the totals after a run.
func (p *progress) summary(result *executor.RunResult) {
	if p.verbosity == 1 {
		fmt.Fprintln(p.out)
	}

	for _, res := range result.CaseResults {
		if res.Status != core.StatusFailed && res.Status != core.StatusErrored {
			continue
		}
		fmt.Fprintln(p.out, strings.Repeat("=", 70))
		fmt.Fprintf(p.out, "%s%s: %s (%s)%s\n", color(colorBold), statusWord(res), res.Name, res.Class, color(colorReset))
		fmt.Fprintln(p.out, strings.Repeat("-", 70))
		if res.Err != nil {
			fmt.Fprintln(p.out, res.Err.Error())
		}
		for _, a := range res.Artifacts {
			fmt.Fprintf(p.out, "  %s╰─%s %s\n", color(colorGray), color(colorReset), a.Path)
		}
	}

	fmt.Fprintln(p.out, strings.Repeat("-", 70))
	fmt.Fprintf(p.out, "Ran %d cases in %s\n\n", result.Total, formatDuration(result.Duration))

	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", label, n))
		}
	}
	add(result.Failed, "failures")
	add(result.Errored, "errors")
	add(result.Skipped, "skipped")
	add(result.Flaky, "flaky")

	verdict := color(colorGreen) + "OK" + color(colorReset)
	if !result.Success() {
		verdict = color(colorRed) + "FAILED" + color(colorReset)
	}
	if len(parts) > 0 {
		verdict += " (" + strings.Join(parts, ", ") + ")"
	}
	fmt.Fprintln(p.out, verdict)
	if result.ReportPath != "" {
		fmt.Fprintf(p.out, "Report: %s\n", result.ReportPath)
	}
	if result.ReportErr != nil {
		fmt.Fprintf(p.out, "%sReport incomplete: %v%s\n", color(colorYellow), result.ReportErr, color(colorReset))
	}
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.3fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
