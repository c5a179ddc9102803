// Package mock provides fake sessions and input devices for testing without a running app.
package mock

import (
	"fmt"
	"sync"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

type locator struct {
	by    core.By
	value string
}

// Session is an in-memory core.Session.
type Session struct {
	mu       sync.Mutex
	elements map[locator][]core.Element

	// Active is returned by ActiveElement.
	Active core.Element
	// FindErr, when set, is returned by every lookup.
	FindErr error
	// ScriptResult computes ExecuteScript results. Nil returns nil.
	ScriptResult func(script string, args []interface{}) (interface{}, error)
	// Scripts records every executed script.
	Scripts []string
	// Log is returned by BrowserLog.
	Log []core.LogEntry
	// PNG is returned by Screenshot.
	PNG []byte

	Lookups int
	Closed  bool
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		elements: make(map[locator][]core.Element),
		PNG:      []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	}
}

// Set replaces the elements matched by a locator.
func (s *Session) Set(by core.By, value string, elems ...core.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[locator{by, value}] = elems
}

// FindElement returns the first match or core.ErrElementNotFound.
func (s *Session) FindElement(by core.By, value string) (core.Element, error) {
	elems, err := s.FindElements(by, value)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, core.ErrElementNotFound.WithMessage(fmt.Sprintf("no such element: %s=%s", by, value))
	}
	return elems[0], nil
}

// FindElements returns every registered match.
func (s *Session) FindElements(by core.By, value string) ([]core.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups++
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	return append([]core.Element(nil), s.elements[locator{by, value}]...), nil
}

// ActiveElement returns Active.
func (s *Session) ActiveElement() (core.Element, error) {
	if s.Active == nil {
		return nil, fmt.Errorf("no active element")
	}
	return s.Active, nil
}

// ExecuteScript records the script and delegates to ScriptResult.
func (s *Session) ExecuteScript(script string, args ...interface{}) (interface{}, error) {
	s.mu.Lock()
	s.Scripts = append(s.Scripts, script)
	fn := s.ScriptResult
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(script, args)
}

// Screenshot returns PNG.
func (s *Session) Screenshot() ([]byte, error) {
	return s.PNG, nil
}

// BrowserLog returns Log.
func (s *Session) BrowserLog() ([]core.LogEntry, error) {
	return s.Log, nil
}

// Close marks the session closed.
func (s *Session) Close() error {
	s.Closed = true
	return nil
}

// Element is an in-memory core.Element.
type Element struct {
	Ref     string
	Content string
	Attrs   map[string]string
	Hidden  bool
	Disable bool

	Clicks        int
	ContextClicks int
	Typed         []string
	ClickErr      error

	// OnClick runs after a successful click.
	OnClick func()
	// OnKeys runs after SendKeys with the typed text.
	OnKeys func(text string)

	children map[locator][]core.Element
}

// NewElement creates a visible, enabled element.
func NewElement(ref, text string) *Element {
	return &Element{
		Ref:      ref,
		Content:  text,
		Attrs:    make(map[string]string),
		children: make(map[locator][]core.Element),
	}
}

// SetChildren registers elements found below e.
func (e *Element) SetChildren(by core.By, value string, elems ...core.Element) {
	e.children[locator{by, value}] = elems
}

// ID returns Ref.
func (e *Element) ID() string { return e.Ref }

// Click counts clicks.
func (e *Element) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

// ContextClick counts right clicks.
func (e *Element) ContextClick() error {
	e.ContextClicks++
	return nil
}

// Text returns Content.
func (e *Element) Text() (string, error) { return e.Content, nil }

// Attribute returns Attrs[name]. The "value" attribute reflects typed text.
func (e *Element) Attribute(name string) (string, error) {
	return e.Attrs[name], nil
}

// Displayed reports !Hidden.
func (e *Element) Displayed() (bool, error) { return !e.Hidden, nil }

// Enabled reports !Disable.
func (e *Element) Enabled() (bool, error) { return !e.Disable, nil }

// SendKeys records text and keeps the "value" attribute in sync.
// A backspace removes the last character, mirroring an input field.
func (e *Element) SendKeys(text string) error {
	e.Typed = append(e.Typed, text)
	value := []rune(e.Attrs["value"])
	for _, r := range text {
		switch string(r) {
		case core.KeyBackspace:
			if len(value) > 0 {
				value = value[:len(value)-1]
			}
		case core.KeyEnter, core.KeyEscape, core.KeyDelete:
		default:
			value = append(value, r)
		}
	}
	e.Attrs["value"] = string(value)
	if e.OnKeys != nil {
		e.OnKeys(text)
	}
	return nil
}

// FindElement returns the first registered child.
func (e *Element) FindElement(by core.By, value string) (core.Element, error) {
	elems := e.children[locator{by, value}]
	if len(elems) == 0 {
		return nil, core.ErrElementNotFound.WithMessage(fmt.Sprintf("no such element: %s=%s", by, value))
	}
	return elems[0], nil
}

// FindElements returns every registered child.
func (e *Element) FindElements(by core.By, value string) ([]core.Element, error) {
	return append([]core.Element(nil), e.children[locator{by, value}]...), nil
}
