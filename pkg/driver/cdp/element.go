package cdp

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

// Element is a core.Element backed by a playwright element handle.
type Element struct {
	s  *Session
	h  playwright.ElementHandle
	id string
}

// ID implements core.Element. IDs are per handle, so two lookups of the same
// node yield different IDs; compare nodes with a script instead.
func (e *Element) ID() string { return e.id }

// Click implements core.Element.
func (e *Element) Click() error { return e.h.Click() }

// ContextClick implements core.Element.
func (e *Element) ContextClick() error {
	return e.h.Click(playwright.ElementHandleClickOptions{
		Button: playwright.MouseButtonRight,
	})
}

// Text implements core.Element.
func (e *Element) Text() (string, error) { return e.h.InnerText() }

// Attribute implements core.Element. DOM properties win over markup attributes.
func (e *Element) Attribute(name string) (string, error) {
	v, err := e.h.Evaluate("(el, name) => el[name]", name)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case bool, int, float64:
		return fmt.Sprint(t), nil
	}
	return e.h.GetAttribute(name)
}

// Displayed implements core.Element.
func (e *Element) Displayed() (bool, error) { return e.h.IsVisible() }

// Enabled implements core.Element.
func (e *Element) Enabled() (bool, error) { return e.h.IsEnabled() }

// keyNames maps WebDriver key code points to playwright key names.
var keyNames = map[rune]string{
	[]rune(core.KeyBackspace)[0]: "Backspace",
	[]rune(core.KeyEnter)[0]:     "Enter",
	[]rune(core.KeyEscape)[0]:    "Escape",
	[]rune(core.KeyDelete)[0]:    "Delete",
}

type keyChunk struct {
	text string
	key  string
}

// splitKeys separates plain text from special keys, keeping order.
func splitKeys(text string) []keyChunk {
	var chunks []keyChunk
	var b strings.Builder
	for _, r := range text {
		if name, ok := keyNames[r]; ok {
			if b.Len() > 0 {
				chunks = append(chunks, keyChunk{text: b.String()})
				b.Reset()
			}
			chunks = append(chunks, keyChunk{key: name})
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		chunks = append(chunks, keyChunk{text: b.String()})
	}
	return chunks
}

// SendKeys implements core.Element.
func (e *Element) SendKeys(text string) error {
	for _, c := range splitKeys(text) {
		var err error
		if c.key != "" {
			err = e.h.Press(c.key)
		} else {
			err = e.h.Type(c.text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// FindElement implements core.Element.
func (e *Element) FindElement(by core.By, value string) (core.Element, error) {
	h, err := e.h.QuerySelector(selector(by, value))
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, core.ErrElementNotFound.WithMessage(fmt.Sprintf("no such element: %s=%s", by, value))
	}
	return e.s.wrap(h), nil
}

// FindElements implements core.Element.
func (e *Element) FindElements(by core.By, value string) ([]core.Element, error) {
	hs, err := e.h.QuerySelectorAll(selector(by, value))
	if err != nil {
		return nil, err
	}
	return e.s.wrapAll(hs), nil
}
