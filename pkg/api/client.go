// Package api is a client for the application's local data API (the Web
// Clipper service). Tests use it to seed data and to verify what the UI did.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// DefaultBaseURL is where the clipper service listens.
const DefaultBaseURL = "http://localhost:41184"

// Option configures a Client via functional options.
type Option func(*Client)

// Client talks to the data API. Every request carries the token as a query
// parameter.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. Pass Options to override defaults.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithToken sets the API token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout overrides the default HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Token returns the configured token.
func (c *Client) Token() string {
	return c.token
}

// SetToken sets the token directly (e.g. after discovering it in the UI).
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks that the service is running.
func (c *Client) Ping() error {
	data, err := c.do(http.MethodGet, "/ping", nil, nil)
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), "JoplinClipperServer") {
		return core.ErrAPIUnavailable.WithMessage(fmt.Sprintf("unexpected ping response %q", data))
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if c.token != "" {
		query.Set("token", c.token)
	}
	u := c.baseURL + path
	if enc := query.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (c *Client) do(method, path string, query url.Values, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debug("API: %s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.ErrAPIUnavailable.WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned HTTP %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type page[T any] struct {
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}

// list fetches every page of a collection.
func list[T any](c *Client, path, fields string) ([]T, error) {
	var all []T
	for p := 1; ; p++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(p))
		if fields != "" {
			q.Set("fields", fields)
		}
		data, err := c.do(http.MethodGet, path, q, nil)
		if err != nil {
			return nil, err
		}
		var pg page[T]
		if err := json.Unmarshal(data, &pg); err != nil {
			return nil, fmt.Errorf("parse %s page %d: %w", path, p, err)
		}
		all = append(all, pg.Items...)
		if !pg.HasMore {
			return all, nil
		}
	}
}

func create[T any](c *Client, path string, in interface{}) (T, error) {
	var out T
	data, err := c.do(http.MethodPost, path, nil, in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("parse %s response: %w", path, err)
	}
	return out, nil
}
