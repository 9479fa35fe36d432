package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 30 * time.Second

// Client provides common HTTP functionality for integration clients.
// It joins paths onto a base URL and merges per-call headers over the
// configured defaults. The Client owns no retry logic: call sites wrap
// requests with the retry package so one policy governs every outbound
// integration.
//
// A Client may be shared by sequential calls from the same integration;
// the underlying *http.Client is safe for concurrent use.
type Client struct {
	client         *http.Client
	baseURL        string
	serviceName    string
	defaultHeaders map[string]string
	timeout        time.Duration
}

// Config holds configuration for Client.
type Config struct {
	Client         *http.Client
	BaseURL        string
	ServiceName    string
	DefaultHeaders map[string]string
	Timeout        time.Duration // default per-request timeout
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfg Config) *Client {
	c := &Client{
		client:         cfg.Client,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:    cfg.ServiceName,
		defaultHeaders: cfg.DefaultHeaders,
		timeout:        cfg.Timeout,
	}

	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RequestOptions customizes a single request.
type RequestOptions struct {
	// Headers are merged over the client's default headers.
	Headers map[string]string

	// Query parameters appended to the URL.
	Query url.Values

	// Body is JSON-encoded when non-nil.
	Body any

	// Timeout overrides the client's default timeout for this call.
	Timeout time.Duration
}

// Do executes a single request and returns the raw response. Transport
// failures (connection refused, timeout) are logged with the failing
// method and URL before being returned. Status-code handling is the
// caller's responsibility; see CheckStatus and the parse helpers.
func (c *Client) Do(ctx context.Context, method, path string, opts *RequestOptions) (*http.Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	// Absolute URLs bypass the base URL, for clients that fetch from
	// caller-supplied locations.
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}
	if len(opts.Query) > 0 {
		u += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	// Copy the shared client so the per-call timeout does not leak into
	// other callers.
	hc := *c.client
	hc.Timeout = opts.Timeout
	if hc.Timeout <= 0 {
		hc.Timeout = c.timeout
	}

	resp, err := hc.Do(req)
	if err != nil {
		slog.Warn("request failed",
			"service", c.serviceName, "method", method, "url", u, "error", err)
		return nil, fmt.Errorf("%s: %s %s: %w", c.serviceName, method, u, err)
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, opts *RequestOptions) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, opts *RequestOptions) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, opts)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts *RequestOptions) (*http.Response, error) {
	return c.Do(ctx, http.MethodPut, path, opts)
}
