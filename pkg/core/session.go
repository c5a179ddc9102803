package core

import "time"

// By is a locator strategy understood by every Session implementation.
type By string

// Locator strategies
const (
	ByCSS       By = "css selector"
	ByXPath     By = "xpath"
	ByTagName   By = "tag name"
	ByClassName By = "class name" // translated to a CSS selector by W3C backends
)

// Session is the remote-control handle to the running application window.
// Implementations: W3C WebDriver (chromedriver), CDP (playwright).
// Waits and navigation consume a Session; they never own it.
type Session interface {
	// FindElement returns the first element matching the locator.
	FindElement(by By, value string) (Element, error)

	// FindElements returns every matching element (possibly none).
	FindElements(by By, value string) ([]Element, error)

	// ActiveElement returns the element that currently has focus.
	ActiveElement() (Element, error)

	// ExecuteScript runs a synchronous script. Arguments are available as
	// arguments[0..n]; Element arguments are passed as DOM references.
	ExecuteScript(script string, args ...interface{}) (interface{}, error)

	// Screenshot captures the application window as PNG
	Screenshot() ([]byte, error)

	// BrowserLog returns the renderer console log collected so far
	BrowserLog() ([]LogEntry, error)

	// Close ends the session and quits the application
	Close() error
}

// Element is a handle to a DOM node inside the application window.
type Element interface {
	// ID is the backend's reference for the element.
	ID() string

	Click() error
	ContextClick() error
	Text() (string, error)
	Attribute(name string) (string, error)
	Displayed() (bool, error)
	Enabled() (bool, error)

	// SendKeys types text into the element. Special keys use the Key* constants.
	SendKeys(text string) error

	FindElement(by By, value string) (Element, error)
	FindElements(by By, value string) ([]Element, error)
}

// W3C key codes accepted by Element.SendKeys
const (
	KeyBackspace = "\uE003"
	KeyEnter     = "\uE007"
	KeyEscape    = "\uE00C"
	KeyDelete    = "\uE017"
)

// LogEntry represents a single log message captured during execution
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`  // debug, info, warn, error
	Source    string    `json:"source"` // console, network, driver
	Message   string    `json:"message"`
}
