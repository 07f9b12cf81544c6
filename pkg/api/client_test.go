package api

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/f5xc/xcsh/pkg/profiling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	roundTripFunc func(*http.Request) (*http.Response, error)
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.roundTripFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, cfg *Config, rt func(*http.Request) (*http.Response, error)) *Client {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = "https://tenant.console.example.com/api"
	}
	if rt != nil {
		cfg.HTTPClient = &http.Client{Transport: &mockTransport{roundTripFunc: rt}}
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	c.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	c.rnd = func() float64 { return 0 }
	return c
}

func refusedError() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)

	_, err = NewClient(&Config{})
	assert.Error(t, err)

	c, err := NewClient(&Config{ServerURL: "https://x.example.com///"})
	require.NoError(t, err)
	assert.Equal(t, "https://x.example.com", c.ServerURL())
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, DefaultRetryConfig(), c.retry)
}

func TestClientHappyPath(t *testing.T) {
	var gotAuth, gotAccept, gotContentType, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	c, err := NewClient(&Config{ServerURL: server.URL + "/api", APIToken: "secret-token"})
	require.NoError(t, err)

	resp, err := c.Get(context.Background(), "/api/web/namespaces", nil)
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"items": []any{}}, resp.Data)

	assert.Equal(t, "/api/web/namespaces", gotPath)
	assert.Equal(t, "APIToken secret-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "application/json", gotContentType)
}

func TestClientBuildURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		path  string
		query url.Values
		want  string
	}{
		{name: "collapse api", base: "https://t.example.com/api", path: "/api/web/namespaces", want: "https://t.example.com/api/web/namespaces"},
		{name: "no api in base", base: "https://t.example.com", path: "/api/web/namespaces", want: "https://t.example.com/api/web/namespaces"},
		{name: "relative path", base: "https://t.example.com/api", path: "config/x", want: "https://t.example.com/api/config/x"},
		{name: "apis is not api", base: "https://t.example.com/api", path: "/apis/x", want: "https://t.example.com/api/apis/x"},
		{name: "query", base: "https://t.example.com", path: "/api/x", query: url.Values{"a": {"1 2"}}, want: "https://t.example.com/api/x?a=1+2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(&Config{ServerURL: tt.base})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.BuildURL(tt.path, tt.query))
		})
	}
}

func TestClientResponseDecoding(t *testing.T) {
	tests := []struct {
		name string
		body string
		want any
	}{
		{name: "empty body", body: "", want: map[string]any{}},
		{name: "plain text", body: "hello", want: "hello"},
		{name: "json array", body: `[1]`, want: []any{float64(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, nil, func(*http.Request) (*http.Response, error) {
				return jsonResponse(200, tt.body), nil
			})
			resp, err := c.Get(context.Background(), "/api/x", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Data)
		})
	}
}

func TestClientRequestBody(t *testing.T) {
	var body string
	c := newTestClient(t, nil, func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		return jsonResponse(201, `{}`), nil
	})
	_, err := c.Post(context.Background(), "/api/x", map[string]any{"metadata": map[string]any{"name": "a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"metadata":{"name":"a"}}`, body)
}

func TestClientRetryBound(t *testing.T) {
	for _, status := range []int{408, 429, 500, 502, 503, 504} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var attempts int32
			c := newTestClient(t, nil, func(*http.Request) (*http.Response, error) {
				atomic.AddInt32(&attempts, 1)
				return jsonResponse(status, `{"message":"try later"}`), nil
			})

			_, err := c.Get(context.Background(), "/api/x", nil)
			require.Error(t, err)
			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, status, apiErr.StatusCode)
			assert.Equal(t, "try later", apiErr.Message)
			assert.Equal(t, "GET /api/x", apiErr.Operation)
			assert.Equal(t, int32(DefaultRetryConfig().MaxRetries+1), atomic.LoadInt32(&attempts))
		})
	}
}

func TestClientNoRetryOnClientError(t *testing.T) {
	var attempts int32
	c := newTestClient(t, nil, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		return jsonResponse(404, `{}`), nil
	})
	_, err := c.Get(context.Background(), "/api/x", nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, "HTTP 404", apiErr.Message)
	assert.Equal(t, int32(1), attempts)
}

func TestClientPermanentErrorShortCircuit(t *testing.T) {
	retries := 5
	var attempts int32
	c := newTestClient(t, &Config{Retry: &RetryConfig{MaxRetries: retries, InitialDelay: time.Millisecond, Multiplier: 2}},
		func(*http.Request) (*http.Response, error) {
			atomic.AddInt32(&attempts, 1)
			return nil, refusedError()
		})

	_, err := c.Get(context.Background(), "/api/x", nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.True(t, strings.HasPrefix(apiErr.Message, "Network error: "))
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED))
	assert.Equal(t, int32(1), attempts)
}

func TestClientTransientErrorRetried(t *testing.T) {
	var attempts int32
	c := newTestClient(t, nil, func(*http.Request) (*http.Response, error) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return nil, &net.OpError{Op: "read", Net: "tcp", Err: &os.SyscallError{Syscall: "read", Err: syscall.ECONNRESET}}
		}
		return jsonResponse(200, `{"ok":true}`), nil
	})

	resp, err := c.Get(context.Background(), "/api/x", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, int32(3), attempts)
}

func hangingTransport(attempts *int32) func(*http.Request) (*http.Response, error) {
	return func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(attempts, 1)
		<-r.Context().Done()
		return nil, r.Context().Err()
	}
}

func TestClientAttemptTimeout(t *testing.T) {
	var attempts int32
	c := newTestClient(t, &Config{Timeout: 20 * time.Millisecond}, hangingTransport(&attempts))

	_, err := c.Get(context.Background(), "/api/x", nil)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusRequestTimeout, apiErr.StatusCode)
	assert.Equal(t, "Request timed out after 20ms", apiErr.Message)
	assert.True(t, apiErr.IsTimeout())
	assert.Equal(t, int32(3), attempts, "timeouts are retried")
}

func TestClientPerRequestOverrides(t *testing.T) {
	var attempts int32
	c := newTestClient(t, nil, hangingTransport(&attempts))
	zero := 0

	_, err := c.Do(context.Background(), RequestOptions{Method: "get", Path: "/api/x", Timeout: 10 * time.Millisecond, MaxRetries: &zero})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Request timed out after 10ms", apiErr.Message)
	assert.Equal(t, int32(1), attempts)
}

func TestClientParentCancellationStopsRetries(t *testing.T) {
	var attempts int32
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, nil, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&attempts, 1)
		cancel()
		return jsonResponse(503, `{}`), nil
	})

	_, err := c.Get(ctx, "/api/x", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts)
}

func TestClientRecordsSpans(t *testing.T) {
	profiler := profiling.NewProfiler()
	c := newTestClient(t, &Config{Profiler: profiler}, func(*http.Request) (*http.Response, error) {
		return jsonResponse(500, `{}`), nil
	})

	_, err := c.Get(context.Background(), "/api/x", nil)
	require.Error(t, err)

	spans := profiler.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET", spans[0].Method)
	assert.Equal(t, 500, spans[0].StatusCode)
	assert.Equal(t, 2, spans[0].RetryCount)
	assert.NotEmpty(t, spans[0].Error)
}

func TestCheckConnectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c, err := NewClient(&Config{ServerURL: server.URL})
	require.NoError(t, err)
	assert.True(t, c.CheckConnectivity(context.Background()).Reachable)

	down := newTestClient(t, nil, func(*http.Request) (*http.Response, error) { return nil, refusedError() })
	got := down.CheckConnectivity(context.Background())
	assert.False(t, got.Reachable)
	assert.Zero(t, got.Latency)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("boom"), ExitGenericError},
		{&APIError{StatusCode: 0}, ExitConnectionError},
		{&APIError{StatusCode: 408}, ExitConnectionError},
		{&APIError{StatusCode: 401}, ExitAuthError},
		{&APIError{StatusCode: 403}, ExitAuthError},
		{&APIError{StatusCode: 404}, ExitNotFoundError},
		{&APIError{StatusCode: 409}, ExitConflictError},
		{&APIError{StatusCode: 429}, ExitRateLimitError},
		{&APIError{StatusCode: 500}, ExitGenericError},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
