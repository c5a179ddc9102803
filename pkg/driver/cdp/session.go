// Package cdp implements core.Session over the Chrome DevTools Protocol using
// playwright. The application must be started with --remote-debugging-port.
package cdp

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// Session is a core.Session bound to the first window of a CDP target.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	mu   sync.Mutex
	logs []core.LogEntry

	seq atomic.Int64

	// onClose runs after the connection is gone (stops a launched app).
	onClose func() error
}

// Connect attaches to the DevTools endpoint (http://127.0.0.1:9222 style).
func Connect(endpoint string, timeout time.Duration) (*Session, error) {
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.ConnectOverCDP(endpoint, playwright.BrowserTypeConnectOverCDPOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, core.ErrServerUnreachable.WithCause(err).WithMessage("connect over CDP to " + endpoint)
	}

	page, err := firstPage(browser)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, err
	}

	s := &Session{pw: pw, browser: browser, page: page}
	page.OnConsole(s.collect)
	logger.Info("CDP session attached to %s (%s)", endpoint, page.URL())
	return s, nil
}

func firstPage(browser playwright.Browser) (playwright.Page, error) {
	for _, ctx := range browser.Contexts() {
		if pages := ctx.Pages(); len(pages) > 0 {
			return pages[0], nil
		}
	}
	return nil, core.ErrAppNotResponding.WithMessage("no application window found on CDP target")
}

func (s *Session) collect(msg playwright.ConsoleMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, core.LogEntry{
		Timestamp: time.Now(),
		Level:     consoleLevel(msg.Type()),
		Source:    "console",
		Message:   msg.Text(),
	})
}

func consoleLevel(t string) string {
	switch t {
	case "error", "assert":
		return "error"
	case "warning":
		return "warn"
	case "debug", "trace":
		return "debug"
	}
	return "info"
}

// selector translates a locator into playwright selector syntax.
func selector(by core.By, value string) string {
	switch by {
	case core.ByXPath:
		return "xpath=" + value
	case core.ByClassName:
		return "css=." + value
	default:
		return "css=" + value
	}
}

// wrapScript turns a WebDriver style script body, which reads arguments[i]
// and may return a value, into a playwright page function taking an array.
func wrapScript(script string) string {
	return "(args) => (function() {\n" + script + "\n}).apply(null, args)"
}

func (s *Session) wrap(h playwright.ElementHandle) *Element {
	return &Element{s: s, h: h, id: fmt.Sprintf("cdp-%d", s.seq.Add(1))}
}

func (s *Session) wrapAll(hs []playwright.ElementHandle) []core.Element {
	elems := make([]core.Element, len(hs))
	for i, h := range hs {
		elems[i] = s.wrap(h)
	}
	return elems
}

// FindElement implements core.Session.
func (s *Session) FindElement(by core.By, value string) (core.Element, error) {
	h, err := s.page.QuerySelector(selector(by, value))
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, core.ErrElementNotFound.WithMessage(fmt.Sprintf("no such element: %s=%s", by, value))
	}
	return s.wrap(h), nil
}

// FindElements implements core.Session.
func (s *Session) FindElements(by core.By, value string) ([]core.Element, error) {
	hs, err := s.page.QuerySelectorAll(selector(by, value))
	if err != nil {
		return nil, err
	}
	return s.wrapAll(hs), nil
}

// ActiveElement implements core.Session.
func (s *Session) ActiveElement() (core.Element, error) {
	handle, err := s.page.EvaluateHandle("() => document.activeElement")
	if err != nil {
		return nil, err
	}
	el := handle.AsElement()
	if el == nil {
		return nil, fmt.Errorf("no active element")
	}
	return s.wrap(el), nil
}

// ExecuteScript implements core.Session. Element arguments are passed as
// DOM nodes; results are returned as JSON values.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	wire := make([]interface{}, len(args))
	for i, a := range args {
		if el, ok := a.(*Element); ok {
			wire[i] = el.h
			continue
		}
		wire[i] = a
	}
	result, err := s.page.Evaluate(wrapScript(script), wire)
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	return result, nil
}

// Screenshot implements core.Session.
func (s *Session) Screenshot() ([]byte, error) {
	return s.page.Screenshot()
}

// BrowserLog implements core.Session. The buffer is drained.
func (s *Session) BrowserLog() ([]core.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.logs
	s.logs = nil
	return out, nil
}

// Close implements core.Session.
func (s *Session) Close() error {
	var errs []string
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := s.pw.Stop(); err != nil {
		errs = append(errs, err.Error())
	}
	if s.onClose != nil {
		if err := s.onClose(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close CDP session: %s", strings.Join(errs, "; "))
	}
	return nil
}
