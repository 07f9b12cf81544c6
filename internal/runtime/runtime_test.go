package runtime

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f5xc/xcsh/pkg/config"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/profile"
)

type mockTransport struct {
	mu       sync.Mutex
	requests []*http.Request
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(`{"items":[{"name":"web","namespace":"default"}]}`)),
		Request:    req,
	}, nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range config.EnvVars {
		t.Setenv(e.Name, "")
	}
}

func newRuntime(t *testing.T, transport *mockTransport) (*Runtime, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	stderr := &bytes.Buffer{}
	rt := New(&Options{
		Version:    "1.0.0",
		ConfigFile: filepath.Join(dir, "config.yaml"),
		ProfileDir: filepath.Join(dir, "profiles"),
		Stdin:      strings.NewReader(""),
		Stdout:     &bytes.Buffer{},
		Stderr:     stderr,
		HTTPClient: &http.Client{Transport: transport},
		Opener:     func(string) error { return nil },
	})
	return rt, stderr, dir
}

func TestInitDisconnected(t *testing.T) {
	clearEnv(t)
	rt, _, _ := newRuntime(t, &mockTransport{})
	require.NoError(t, rt.Init(context.Background()))
	defer rt.Dispose()

	assert.Nil(t, rt.Session.Client())
	assert.Equal(t, config.DefaultNamespace, rt.Session.Namespace())
	assert.Equal(t, config.DefaultOutput, rt.Session.OutputFormat())

	names := rt.Registry.Names()
	for _, want := range []string{"console", "dns", "login", "virtual"} {
		assert.Contains(t, names, want)
	}

	v := rt.ValidateConnection(context.Background())
	assert.False(t, v.Valid)
	assert.Contains(t, v.Error, "Not connected")

	assert.Error(t, rt.Init(context.Background()), "second Init")
}

func TestInitFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvAPIURL, "https://acme.console.ves.volterra.io")
	t.Setenv(config.EnvAPIToken, "secret")
	t.Setenv(config.EnvNamespace, "shared")

	transport := &mockTransport{}
	rt, _, _ := newRuntime(t, transport)
	require.NoError(t, rt.Init(context.Background()))
	defer rt.Dispose()

	require.NotNil(t, rt.Session.Client())
	assert.Equal(t, "shared", rt.Session.Namespace())

	res := rt.Shell.ExecuteArgs(context.Background(), []string{"virtual", "list", "http_loadbalancer", "-o", "json"})
	out := domains.Flatten(res)
	require.Empty(t, out.Error, out.Output)
	assert.Contains(t, strings.Join(out.Output, "\n"), `"name": "web"`)

	require.Len(t, transport.requests, 1)
	req := transport.requests[0]
	assert.Equal(t, "/api/config/namespaces/shared/http_loadbalancers", req.URL.Path)
	assert.Equal(t, "APIToken secret", req.Header.Get("Authorization"))
}

func TestInitWithActiveProfile(t *testing.T) {
	clearEnv(t)
	rt, _, dir := newRuntime(t, &mockTransport{})

	profiles, err := profile.NewManager(&profile.ManagerConfig{Dir: filepath.Join(dir, "profiles")})
	require.NoError(t, err)
	require.NoError(t, profiles.Save(context.Background(), &profile.Profile{
		Name:             "prod",
		APIURL:           "https://acme.console.ves.volterra.io/api",
		APIToken:         "secret",
		DefaultNamespace: "team-a",
	}))
	require.NoError(t, profiles.SetActive("prod"))

	require.NoError(t, rt.Init(context.Background()))
	defer rt.Dispose()

	assert.Equal(t, "prod", rt.Session.ProfileName())
	assert.Equal(t, "team-a", rt.Session.Namespace())
	require.NotNil(t, rt.Session.Client())
	assert.Equal(t, "acme", rt.Session.Tenant())
}

func TestInitInvalidConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvOutput, "xml")
	rt, _, _ := newRuntime(t, &mockTransport{})
	err := rt.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.NoError(t, rt.Dispose())
}

func TestSpec(t *testing.T) {
	clearEnv(t)
	rt, _, _ := newRuntime(t, &mockTransport{})
	require.NoError(t, rt.Init(context.Background()))
	defer rt.Dispose()

	spec := rt.Spec()
	assert.Equal(t, "xcsh", spec.Name)
	assert.Equal(t, "1.0.0", spec.Version)
	assert.Equal(t, config.EnvVars, spec.EnvVars)

	byName := map[string]DomainSpec{}
	for _, d := range spec.Domains {
		byName[d.Name] = d
	}
	assert.Equal(t, "merged", byName["virtual"].Source)
	assert.Equal(t, "generated", byName["dns"].Source)
	assert.Equal(t, "extension", byName["console"].Source)
	assert.Equal(t, "builtin", byName["login"].Source)
	assert.Equal(t, "status", byName["login"].Default)

	var virtualCommands []string
	for _, c := range byName["virtual"].Commands {
		virtualCommands = append(virtualCommands, c.Name)
	}
	assert.Contains(t, virtualCommands, "overview")
	assert.Contains(t, virtualCommands, "add-labels")

	require.Len(t, byName["login"].Subcommands, 1)
	assert.Equal(t, "profile", byName["login"].Subcommands[0].Name)
}

func TestDisposeWritesNetworkReport(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvAPIURL, "https://acme.console.ves.volterra.io")
	t.Setenv(config.EnvAPIToken, "secret")
	t.Setenv(config.EnvDebug, "true")

	rt, stderr, _ := newRuntime(t, &mockTransport{})
	require.NoError(t, rt.Init(context.Background()))

	res := rt.Shell.ExecuteArgs(context.Background(), []string{"virtual", "list", "origin_pool"})
	require.False(t, domains.IsFailure(res))

	require.NoError(t, rt.Dispose())
	assert.Contains(t, stderr.String(), "/api/config/namespaces/default/origin_pools")

	stderr.Reset()
	require.NoError(t, rt.Dispose())
	assert.Empty(t, stderr.String())
}
