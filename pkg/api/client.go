// Package api implements the HTTP client for the Distributed Cloud REST API.
//
// Every request is retried according to a RetryConfig. Each attempt runs
// under its own timeout, and a timed-out attempt is reported as HTTP 408. The
// client also validates the configured API token and probes connectivity.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/f5xc/xcsh/pkg/profiling"
	"github.com/f5xc/xcsh/pkg/secrets"
	"github.com/pterm/pterm"
)

const (
	// DefaultTimeout is the per-attempt timeout.
	DefaultTimeout = 15 * time.Second
	// StartupTimeout bounds token validation during process start.
	StartupTimeout = 3 * time.Second
	// ConnectivityTimeout bounds the HEAD reachability probe.
	ConnectivityTimeout = 2 * time.Second

	tokenProbePath = "/api/web/namespaces"
)

// Config configures a Client.
type Config struct {
	ServerURL  string
	APIToken   string
	Timeout    time.Duration
	Retry      *RetryConfig
	HTTPClient *http.Client
	Logger     *pterm.Logger
	Profiler   profiling.Sink
}

// Client is a retrying JSON client for the API.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	retry      RetryConfig
	httpClient *http.Client
	logger     *pterm.Logger
	sink       profiling.Sink

	sleep               func(context.Context, time.Duration) error
	rnd                 func() float64
	startupTimeout      time.Duration
	connectivityTimeout time.Duration

	mu              sync.Mutex
	validated       bool
	validationError string
}

// NewClient creates a client from config.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	base := strings.TrimRight(strings.TrimSpace(config.ServerURL), "/")
	if base == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	c := &Client{
		baseURL:             base,
		token:               config.APIToken,
		timeout:             config.Timeout,
		retry:               DefaultRetryConfig(),
		httpClient:          config.HTTPClient,
		logger:              config.Logger,
		sink:                config.Profiler,
		sleep:               sleepContext,
		rnd:                 rand.Float64,
		startupTimeout:      StartupTimeout,
		connectivityTimeout: ConnectivityTimeout,
	}
	if config.Retry != nil {
		c.retry = *config.Retry
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	if c.sink == nil {
		c.sink = profiling.NoopSink{}
	}
	return c, nil
}

// ServerURL returns the normalized base URL.
func (c *Client) ServerURL() string { return c.baseURL }

// HasToken reports whether an API token is configured.
func (c *Client) HasToken() bool { return c.token != "" }

// RequestOptions describes one logical request.
type RequestOptions struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Timeout overrides the per-attempt timeout.
	Timeout time.Duration
	// MaxRetries overrides the configured retry budget.
	MaxRetries *int
}

// Response is a successful API response.
type Response struct {
	OK         bool
	StatusCode int
	Headers    http.Header
	// Data is the decoded JSON body, the raw text when the body is not JSON,
	// or an empty object when the body is empty.
	Data any
	Size int
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodGet, Path: path, Query: query})
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodPost, Path: path, Body: body})
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodPut, Path: path, Body: body})
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodDelete, Path: path})
}

// Do executes a request with retries. The returned error is always an
// *APIError unless the request could not be built.
func (c *Client) Do(ctx context.Context, opts RequestOptions) (*Response, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}
	fullURL := c.BuildURL(opts.Path, opts.Query)
	operation := method + " " + opts.Path

	var payload []byte
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = b
	}

	cfg := c.retry
	if opts.MaxRetries != nil {
		cfg.MaxRetries = *opts.MaxRetries
	}
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	spanID := c.sink.StartNetworkSpan(fullURL, method)
	retrier := NewRetrier(cfg, ShouldRetry, c.sleep, c.rnd)
	retrier.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Debug("retrying request", c.logger.Args(
			"operation", operation, "attempt", attempt+1, "delay", delay.String(), "error", err.Error()))
	}

	var resp *Response
	err := retrier.Run(ctx, func(ctx context.Context, attempt int) error {
		r, err := c.attempt(ctx, method, fullURL, operation, payload, timeout)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	result := profiling.SpanResult{RetryCount: retrier.Retries()}
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok {
			result.StatusCode = apiErr.StatusCode
		}
		result.Error = err.Error()
		c.sink.EndNetworkSpan(spanID, result)
		return nil, err
	}
	result.StatusCode = resp.StatusCode
	result.ResponseSize = resp.Size
	c.sink.EndNetworkSpan(spanID, result)
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, method, fullURL, operation string, payload []byte, timeout time.Duration) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "APIToken "+c.token)
	}

	c.logger.Debug("sending request", c.logger.Args(
		"method", method, "url", fullURL, "token", secrets.MaskValue(c.token)))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(operation, timeout, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, transportError(operation, timeout, err)
	}
	data := decodeBody(raw)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		c.logger.Debug("request failed", c.logger.Args("operation", operation, "status", httpResp.StatusCode))
		return nil, &APIError{
			Message:      errorMessage(data, httpResp.StatusCode),
			StatusCode:   httpResp.StatusCode,
			ResponseBody: data,
			Operation:    operation,
		}
	}

	return &Response{
		OK:         true,
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Data:       data,
		Size:       len(raw),
	}, nil
}

func transportError(operation string, timeout time.Duration, err error) *APIError {
	if classifyTransportError(err) == failureTimeout {
		return &APIError{
			Message:    fmt.Sprintf("Request timed out after %dms", timeout.Milliseconds()),
			StatusCode: http.StatusRequestTimeout,
			Operation:  operation,
			Err:        err,
		}
	}
	return &APIError{
		Message:   "Network error: " + err.Error(),
		Operation: operation,
		Err:       err,
	}
}

func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// BuildURL joins the base URL, path and query. A duplicate "/api" segment
// between the base URL and the path is collapsed.
func (c *Client) BuildURL(path string, query url.Values) string {
	base := c.baseURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if strings.HasSuffix(base, "/api") && (path == "/api" || strings.HasPrefix(path, "/api/")) {
		base = strings.TrimSuffix(base, "/api")
	}
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Connectivity is the result of CheckConnectivity.
type Connectivity struct {
	Reachable bool
	Latency   time.Duration
}

// CheckConnectivity sends a HEAD request to the server URL. Any response
// counts as reachable. It never returns an error.
func (c *Client) CheckConnectivity(ctx context.Context) Connectivity {
	ctx, cancel := context.WithTimeout(ctx, c.connectivityTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return Connectivity{}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("connectivity probe failed", c.logger.Args("error", err.Error()))
		return Connectivity{}
	}
	_ = resp.Body.Close()
	return Connectivity{Reachable: true, Latency: time.Since(start)}
}
