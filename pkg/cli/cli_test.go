package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/config"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/executor"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
)

func init() {
	colorsEnabled = false
}

func TestParseSkip_Valid(t *testing.T) {
	skip, err := parseSkip([]string{"Go=1", "Focus=0"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skip["Go"] != 1 || skip["Focus"] != 0 {
		t.Errorf("unexpected skip map: %v", skip)
	}
}

func TestParseSkip_Invalid(t *testing.T) {
	for _, v := range []string{"Go", "=1", "Go=x", "Go=-1"} {
		if _, err := parseSkip([]string{v}); !errors.Is(err, core.ErrInvalidConfig) {
			t.Errorf("parseSkip(%q): expected invalid config error, got %v", v, err)
		}
	}
}

func TestCompact(t *testing.T) {
	got := compact([]string{"alt", "right", "right", "right", "down", "down", "enter"})
	if got != "alt right×3 down×2 enter" {
		t.Errorf("unexpected sequence: %s", got)
	}
	if compact(nil) != "" {
		t.Error("expected empty sequence")
	}
}

var testLayout = menu.Layout{
	menu.E("File", menu.E("New"), menu.E("Open")),
	menu.E("Go", menu.E("Back"), menu.E("Forward"), menu.E("Focus", menu.E("Sidebar"))),
}

func TestPrintMenu(t *testing.T) {
	var buf bytes.Buffer
	if err := printMenu(&buf, testLayout, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"File\n",
		"  Focus\n",
		"alt down enter",
		"alt right down×2 enter",
		"alt right down×3 enter×2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintMenu_Skip(t *testing.T) {
	var buf bytes.Buffer
	if err := printMenu(&buf, testLayout, menu.SkipMap{"Go": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	// Back cannot be reached once an entry above it is skipped
	if !strings.Contains(out, "exceeds its index") {
		t.Errorf("expected a resolution error for Back:\n%s", out)
	}
	if !strings.Contains(out, "alt right down×2 enter×2") {
		t.Errorf("expected skipped sequence for Sidebar:\n%s", out)
	}
}

func TestPrintMenu_InvalidLayout(t *testing.T) {
	layout := menu.Layout{menu.E("File", menu.E("New"), menu.E("New"))}
	if err := printMenu(&bytes.Buffer{}, layout, nil); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestProgress_LinePerCase(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 2)

	p.caseStart(0, 3, "Sidebar", "synchronise_button")
	p.durationWriter().Write([]byte("0.500 s, "))
	p.caseEnd(executor.CaseResult{ID: "Sidebar/synchronise_button", Class: "Sidebar", Name: "synchronise_button", Status: core.StatusPassed})

	p.caseStart(1, 3, "Tag", "add_tag_hotkey")
	p.caseEnd(executor.CaseResult{ID: "Tag/add_tag_hotkey", Class: "Tag", Name: "add_tag_hotkey", Status: core.StatusFlaky, Attempts: 2})

	p.caseEnd(executor.CaseResult{ID: "Go/go_back_forward", Class: "Go", Name: "go_back_forward", Status: core.StatusSkipped, SkipReason: "run cancelled"})

	want := "[1/3] synchronise_button (Sidebar) ... 0.500 s, ok\n" +
		"[2/3] add_tag_hotkey (Tag) ... ok (passed on attempt 2)\n" +
		"go_back_forward (Go) ... skipped \"run cancelled\"\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestProgress_Dots(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 1)
	if p.durationWriter() == &buf {
		t.Error("durations should be hidden")
	}
	for _, s := range []core.CaseStatus{core.StatusPassed, core.StatusFailed, core.StatusErrored, core.StatusSkipped, core.StatusFlaky} {
		p.caseStart(0, 1, "C", "c")
		p.caseEnd(executor.CaseResult{ID: "C/c", Class: "C", Name: "c", Status: s})
	}
	if buf.String() != ".FEs." {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestProgress_Quiet(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 0)
	p.caseStart(0, 1, "C", "c")
	p.caseEnd(executor.CaseResult{ID: "C/c", Status: core.StatusFailed})
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSummary_Failed(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, 2)
	p.summary(&executor.RunResult{
		Total:    3,
		Passed:   1,
		Failed:   1,
		Skipped:  1,
		Duration: 2500 * time.Millisecond,
		CaseResults: []executor.CaseResult{
			{Class: "Sidebar", Name: "synchronise_button", Status: core.StatusPassed},
			{
				Class:     "Notebook",
				Name:      "add_notebook_hotkey",
				Status:    core.StatusFailed,
				Err:       errors.New("Adding notebook by hotkey failed."),
				Artifacts: []core.Attachment{{Path: "x_webdriver.png"}},
			},
			{Class: "Go", Name: "zoom_top_menu", Status: core.StatusSkipped},
		},
		ReportPath: "debug/report.json",
	})
	out := buf.String()

	for _, want := range []string{
		"FAIL: add_notebook_hotkey (Notebook)",
		"Adding notebook by hotkey failed.",
		"x_webdriver.png",
		"Ran 3 cases in 2.500s",
		"FAILED (failures=1, skipped=1)",
		"Report: debug/report.json",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "synchronise_button") {
		t.Error("passed cases should not be listed")
	}
}

func TestSummary_OK(t *testing.T) {
	var buf bytes.Buffer
	newProgress(&buf, 2).summary(&executor.RunResult{Total: 1, Passed: 1, Duration: 20 * time.Millisecond})
	if !strings.Contains(buf.String(), "Ran 1 cases in 20ms\n\nOK\n") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}

func TestSummary_ReportIncomplete(t *testing.T) {
	var buf bytes.Buffer
	newProgress(&buf, 2).summary(&executor.RunResult{
		Total:     1,
		Passed:    1,
		ReportErr: errors.New("no space left on device"),
	})
	if !strings.Contains(buf.String(), "Report incomplete: no space left on device") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.500s"},
		{125 * time.Second, "2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}

func TestLoadConfig_BackendOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("backend: webdriver\napp:\n  path: /opt/joplin\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(&RunConfig{ConfigPath: path, Backend: config.BackendCDP})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend != config.BackendCDP {
		t.Errorf("expected cdp backend, got %s", cfg.Backend)
	}
	if cfg.App.Path != "/opt/joplin" {
		t.Errorf("expected app path from file, got %s", cfg.App.Path)
	}

	if _, err := loadConfig(&RunConfig{ConfigPath: path, Backend: "selenium"}); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestLoadLayout(t *testing.T) {
	layout, err := loadLayout(config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(layout) != len(menu.TopMenu) {
		t.Errorf("expected the built-in menu")
	}

	cfg := config.Default()
	cfg.MenuLayout = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := loadLayout(cfg); err == nil {
		t.Error("expected error for a missing layout file")
	}
}

func TestRun_UnknownTestName(t *testing.T) {
	dir := t.TempDir()
	code := run([]string{"joplin-runner", "test", "--debug-dir", filepath.Join(dir, "debug"), "--testname", "Nope/none"})
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "debug", "test.log")); err != nil {
		t.Errorf("expected the log to be created: %v", err)
	}
}

func TestRun_Menu(t *testing.T) {
	if code := run([]string{"joplin-runner", "--no-color", "menu", "--skip", "Go=1"}); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if code := run([]string{"joplin-runner", "menu", "--skip", "Go"}); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}
