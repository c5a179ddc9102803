package webdriver

import (
	"fmt"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// DefaultExcludeSwitches are chromedriver's default Chrome switches that an
// Electron binary rejects as unknown flags.
var DefaultExcludeSwitches = []string{
	"allow-pre-commit-input",
	"disable-background-networking",
	"disable-client-side-phishing-detection",
	"disable-default-apps",
	"disable-hang-monitor",
	"disable-popup-blocking",
	"disable-prompt-on-repost",
	"disable-sync",
	"enable-automation",
	"enable-blink-features",
	"log-level",
	"no-first-run",
	"no-service-autorun",
	"password-store",
	"test-type",
	"use-mock-keychain",
	"user-data-dir",
}

// ChromeOptions describes how chromedriver launches the application.
type ChromeOptions struct {
	Binary          string
	Args            []string
	ExcludeSwitches []string
}

// Capabilities builds the alwaysMatch capabilities for opts.
func Capabilities(opts ChromeOptions) map[string]interface{} {
	exclude := opts.ExcludeSwitches
	if exclude == nil {
		exclude = DefaultExcludeSwitches
	}
	args := opts.Args
	if args == nil {
		args = []string{}
	}
	return map[string]interface{}{
		"goog:chromeOptions": map[string]interface{}{
			"binary":          opts.Binary,
			"args":            args,
			"excludeSwitches": exclude,
		},
		"goog:loggingPrefs": map[string]interface{}{
			"browser": "ALL",
		},
	}
}

// Session implements core.Session on top of a Client.
type Session struct {
	client *Client
}

// Connect starts the application through the WebDriver server at serverURL.
func Connect(serverURL string, opts ChromeOptions) (*Session, error) {
	client := NewClient(serverURL)
	logger.Info("Creating WebDriver session at %s for %s", serverURL, opts.Binary)
	if err := client.NewSession(Capabilities(opts)); err != nil {
		return nil, err
	}
	logger.Info("WebDriver session %s created", client.SessionID())
	return &Session{client: client}, nil
}

// NewSession wraps an already connected client.
func NewSession(client *Client) *Session {
	return &Session{client: client}
}

// Client exposes the underlying protocol client.
func (s *Session) Client() *Client {
	return s.client
}

func (s *Session) wrap(ids []string) []core.Element {
	elems := make([]core.Element, len(ids))
	for i, id := range ids {
		elems[i] = &Element{client: s.client, id: id}
	}
	return elems
}

// FindElement implements core.Session.
func (s *Session) FindElement(by core.By, value string) (core.Element, error) {
	id, err := s.client.FindElement("", by, value)
	if err != nil {
		return nil, err
	}
	return &Element{client: s.client, id: id}, nil
}

// FindElements implements core.Session.
func (s *Session) FindElements(by core.By, value string) ([]core.Element, error) {
	ids, err := s.client.FindElements("", by, value)
	if err != nil {
		return nil, err
	}
	return s.wrap(ids), nil
}

// ActiveElement implements core.Session.
func (s *Session) ActiveElement() (core.Element, error) {
	id, err := s.client.GetActiveElement()
	if err != nil {
		return nil, err
	}
	return &Element{client: s.client, id: id}, nil
}

// ExecuteScript implements core.Session. Element arguments are sent as
// references and element results come back as Elements.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	wire := make([]interface{}, len(args))
	for i, a := range args {
		if el, ok := a.(core.Element); ok {
			wire[i] = ElementRef(el.ID())
			continue
		}
		wire[i] = a
	}
	result, err := s.client.ExecuteScript(script, wire)
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	return s.unwrap(result), nil
}

func (s *Session) unwrap(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if id := extractElementID(t); id != "" {
			return &Element{client: s.client, id: id}
		}
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = s.unwrap(item)
		}
		return out
	}
	return v
}

// Screenshot implements core.Session.
func (s *Session) Screenshot() ([]byte, error) {
	return s.client.Screenshot()
}

// BrowserLog implements core.Session.
func (s *Session) BrowserLog() ([]core.LogEntry, error) {
	return s.client.Log("browser")
}

// Close implements core.Session.
func (s *Session) Close() error {
	return s.client.DeleteSession()
}

// Element implements core.Element for a WebDriver element reference.
type Element struct {
	client *Client
	id     string
}

// ID implements core.Element.
func (e *Element) ID() string { return e.id }

// Click implements core.Element.
func (e *Element) Click() error { return e.client.ClickElement(e.id) }

// ContextClick implements core.Element.
func (e *Element) ContextClick() error { return e.client.ContextClickElement(e.id) }

// Text implements core.Element.
func (e *Element) Text() (string, error) { return e.client.GetElementText(e.id) }

// Attribute implements core.Element.
func (e *Element) Attribute(name string) (string, error) {
	return e.client.GetElementAttribute(e.id, name)
}

// Displayed implements core.Element.
func (e *Element) Displayed() (bool, error) { return e.client.IsElementDisplayed(e.id) }

// Enabled implements core.Element.
func (e *Element) Enabled() (bool, error) { return e.client.IsElementEnabled(e.id) }

// SendKeys implements core.Element.
func (e *Element) SendKeys(text string) error { return e.client.ElementSendKeys(e.id, text) }

// FindElement implements core.Element.
func (e *Element) FindElement(by core.By, value string) (core.Element, error) {
	id, err := e.client.FindElement(e.id, by, value)
	if err != nil {
		return nil, err
	}
	return &Element{client: e.client, id: id}, nil
}

// FindElements implements core.Element.
func (e *Element) FindElements(by core.By, value string) ([]core.Element, error) {
	ids, err := e.client.FindElements(e.id, by, value)
	if err != nil {
		return nil, err
	}
	elems := make([]core.Element, len(ids))
	for i, id := range ids {
		elems[i] = &Element{client: e.client, id: id}
	}
	return elems, nil
}
