// Package webdriver implements core.Session over the W3C WebDriver protocol,
// as spoken by chromedriver in front of an Electron application.
package webdriver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Client handles HTTP communication with chromedriver.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
}

// NewClient creates a new WebDriver client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Minute, // app start happens inside session creation
		},
	}
}

// NewSession creates a session with the given capabilities.
func (c *Client) NewSession(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}
	return nil
}

// DeleteSession closes the session, which quits the application.
func (c *Client) DeleteSession() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Status reports whether the server accepts new sessions.
func (c *Client) Status() (bool, error) {
	resp, err := c.get("/status")
	if err != nil {
		return false, err
	}
	value, _ := resp["value"].(map[string]interface{})
	ready, _ := value["ready"].(bool)
	return ready, nil
}

// Element Operations

// translate maps locator strategies W3C does not know onto CSS.
func translate(by core.By, value string) (string, string) {
	if by == core.ByClassName {
		return string(core.ByCSS), "." + value
	}
	return string(by), value
}

// FindElement finds a single element. parent may be empty to search the document.
func (c *Client) FindElement(parent string, by core.By, value string) (string, error) {
	using, v := translate(by, value)
	resp, err := c.post(c.searchRoot(parent)+"/element", map[string]interface{}{
		"using": using,
		"value": v,
	})
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", core.ErrElementNotFound.WithMessage(fmt.Sprintf("no such element: %s=%s", by, value))
	}
	return extractElementID(elemValue), nil
}

// FindElements finds multiple elements. parent may be empty to search the document.
func (c *Client) FindElements(parent string, by core.By, value string) ([]string, error) {
	using, v := translate(by, value)
	resp, err := c.post(c.searchRoot(parent)+"/elements", map[string]interface{}{
		"using": using,
		"value": v,
	})
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// GetActiveElement returns the currently focused element.
func (c *Client) GetActiveElement() (string, error) {
	resp, err := c.get(c.sessionPath() + "/element/active")
	if err != nil {
		return "", err
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		return extractElementID(value), nil
	}
	return "", fmt.Errorf("no active element")
}

// ClickElement clicks an element.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", map[string]interface{}{})
	return err
}

// ContextClickElement right-clicks the center of an element.
func (c *Client) ContextClickElement(elementID string) error {
	return c.performActions([]map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "mouse",
			"parameters": map[string]interface{}{"pointerType": "mouse"},
			"actions": []map[string]interface{}{
				{
					"type":     "pointerMove",
					"duration": 0,
					"x":        0,
					"y":        0,
					"origin":   map[string]interface{}{w3cElementKey: elementID},
				},
				{"type": "pointerDown", "button": 2},
				{"type": "pointerUp", "button": 2},
			},
		},
	})
}

// GetElementText returns an element's rendered text.
func (c *Client) GetElementText(elementID string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// GetElementAttribute returns the DOM property name, falling back to the
// markup attribute. Properties reflect live state such as an input's value.
func (c *Client) GetElementAttribute(elementID, name string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/property/" + name)
	if err != nil {
		return "", err
	}
	if v, ok := resp["value"]; ok && v != nil {
		return stringify(v), nil
	}

	resp, err = c.get(c.elementPath(elementID) + "/attribute/" + name)
	if err != nil {
		return "", err
	}
	value, _ := resp["value"].(string)
	return value, nil
}

// IsElementDisplayed checks if element is visible.
func (c *Client) IsElementDisplayed(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// IsElementEnabled checks if element is enabled.
func (c *Client) IsElementEnabled(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/enabled")
	if err != nil {
		return false, err
	}
	enabled, _ := resp["value"].(bool)
	return enabled, nil
}

// ElementSendKeys types text into an element.
func (c *Client) ElementSendKeys(elementID, text string) error {
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

func (c *Client) performActions(payload []map[string]interface{}) error {
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Scripts

// ExecuteScript runs a synchronous script. Element IDs in args must already
// be wrapped with ElementRef.
func (c *Client) ExecuteScript(script string, args []interface{}) (interface{}, error) {
	if args == nil {
		args = []interface{}{}
	}
	resp, err := c.post(c.sessionPath()+"/execute/sync", map[string]interface{}{
		"script": script,
		"args":   args,
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// ElementRef wraps an element ID for use as a script argument.
func ElementRef(id string) map[string]interface{} {
	return map[string]interface{}{w3cElementKey: id}
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Log fetches and clears a log buffer ("browser", "driver") through the
// Selenium log extension chromedriver still serves.
func (c *Client) Log(logType string) ([]core.LogEntry, error) {
	resp, err := c.post(c.sessionPath()+"/se/log", map[string]interface{}{
		"type": logType,
	})
	if err != nil {
		return nil, err
	}
	values, _ := resp["value"].([]interface{})

	entries := make([]core.LogEntry, 0, len(values))
	for _, v := range values {
		m, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		ts, _ := m["timestamp"].(float64)
		level, _ := m["level"].(string)
		msg, _ := m["message"].(string)
		entries = append(entries, core.LogEntry{
			Timestamp: time.UnixMilli(int64(ts)),
			Level:     strings.ToLower(level),
			Source:    logType,
			Message:   msg,
		})
	}
	return entries, nil
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) searchRoot(parent string) string {
	if parent == "" {
		return c.sessionPath()
	}
	return c.elementPath(parent)
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return nil, core.ErrServerUnreachable.WithCause(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errType, ok := errValue["error"].(string); ok {
			errMsg, _ := errValue["message"].(string)
			return result, wireError(errType, errMsg)
		}
	}

	return result, nil
}

func wireError(errType, msg string) error {
	switch errType {
	case "no such element", "stale element reference":
		return core.ErrElementNotFound.WithMessage(fmt.Sprintf("%s: %s", errType, msg))
	case "invalid session id":
		return core.ErrAppNotResponding.WithMessage(fmt.Sprintf("%s: %s", errType, msg))
	}
	return fmt.Errorf("%s: %s", errType, msg)
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%g", t)
	}
	data, _ := json.Marshal(v)
	return string(data)
}
