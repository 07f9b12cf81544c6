package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/catalog"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/extensions"
)

type mockTransport struct {
	roundTripFunc func(*http.Request) (*http.Response, error)
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.roundTripFunc(req)
}

// recordedRequest is one call seen by the fake API.
type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeAPI answers by "METHOD path" and records every request.
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	requests  []recordedRequest
}

type fakeResponse struct {
	status int
	body   string
}

func (f *fakeAPI) on(method, path string, status int, body string) {
	if f.responses == nil {
		f.responses = map[string]fakeResponse{}
	}
	f.responses[method+" "+path] = fakeResponse{status: status, body: body}
}

func (f *fakeAPI) roundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := recordedRequest{Method: req.Method, Path: req.URL.Path}
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}
	}
	f.requests = append(f.requests, rec)

	resp, ok := f.responses[req.Method+" "+req.URL.Path]
	if !ok {
		resp = fakeResponse{status: http.StatusNotFound, body: `{"message":"not found"}`}
	}
	return &http.Response{
		StatusCode: resp.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(resp.body)),
		Request:    req,
	}, nil
}

func (f *fakeAPI) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Method + " " + r.Path
	}
	return out
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type testSession struct {
	ns          string
	output      string
	client      *api.Client
	interactive bool
}

func (s *testSession) Namespace() string      { return s.ns }
func (s *testSession) SetNamespace(ns string) { s.ns = ns }
func (s *testSession) OutputFormat() string   { return s.output }
func (s *testSession) Client() *api.Client    { return s.client }
func (s *testSession) Interactive() bool      { return s.interactive }

type harness struct {
	exec     *Executor
	api      *fakeAPI
	session  *testSession
	warnings *bytes.Buffer
	prompts  []Confirmation
	answer   bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cat, err := catalog.Load(context.Background(), nil)
	require.NoError(t, err)

	h := &harness{api: &fakeAPI{}, warnings: &bytes.Buffer{}}
	h.exec, err = NewExecutor(&Config{
		Catalog: cat,
		ErrOut:  h.warnings,
		Stdin:   strings.NewReader(""),
		Confirm: func(c Confirmation) (bool, error) {
			h.prompts = append(h.prompts, c)
			return h.answer, nil
		},
	})
	require.NoError(t, err)

	client, err := api.NewClient(&api.Config{
		ServerURL:  "https://acme.console.ves.volterra.io/api",
		APIToken:   "token",
		Retry:      &api.RetryConfig{MaxRetries: 0},
		HTTPClient: &http.Client{Transport: &mockTransport{roundTripFunc: h.api.roundTrip}},
	})
	require.NoError(t, err)
	h.session = &testSession{ns: "default", output: "text", client: client}
	return h
}

func (h *harness) run(domain string, action Action, line string) domains.Outcome {
	return domains.Flatten(h.exec.Run(context.Background(), domain, action, strings.Fields(line), h.session))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "body.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewExecutor(t *testing.T) {
	_, err := NewExecutor(nil)
	assert.Error(t, err)
	_, err = NewExecutor(&Config{})
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	for _, a := range Actions {
		got, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAction("explode")
	assert.Error(t, err)
	assert.Equal(t, "unknown", Action(0).String())
}

func TestList(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET", "/api/config/namespaces/shared/http_loadbalancers", 200, `{"items":[
		{"name":"web","namespace":"shared","labels":{"env":"prod"}},
		{"name":"api","namespace":"shared","labels":{"env":"dev"}}
	]}`)

	out := h.run("virtual", ActionList, "http-loadbalancers -ns shared")
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"shared\tweb\tmap[env:prod]", "shared\tapi\tmap[env:dev]"}, out.Output)

	out = h.run("virtual", ActionList, `http_loadbalancer --namespace shared --filter labels.env=="dev"`)
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"shared\tapi\tmap[env:dev]"}, out.Output)

	out = h.run("virtual", ActionList, "http_loadbalancer extra")
	assert.Contains(t, out.Error, "Unexpected arguments")
}

func TestArgumentErrors(t *testing.T) {
	h := newHarness(t)

	out := h.run("virtual", ActionGet, "")
	assert.Equal(t, "Resource type is required", out.Error)
	assert.Contains(t, out.Output, "Resource types: healthcheck, http_loadbalancer, origin_pool")

	out = h.run("virtual", ActionGet, "gateway web")
	assert.Equal(t, "Unknown resource type: gateway", out.Error)

	out = h.run("virtual", ActionGet, "origin_pool")
	assert.Contains(t, out.Error, "Resource name is required")

	out = h.run("virtual", ActionGet, "origin_pool a b c")
	assert.Contains(t, out.Error, "unexpected arguments: c")

	out = h.run("virtual", ActionGet, "origin_pool --bogus")
	assert.Contains(t, out.Error, "unknown flag: --bogus")

	out = h.run("virtual", ActionCreate, "origin_pool pool-1")
	assert.Contains(t, out.Error, "--file is required")

	h.session.client = nil
	out = h.run("virtual", ActionGet, "origin_pool pool-1")
	assert.Contains(t, out.Error, "Not connected")

	assert.Empty(t, h.api.calls())
}

func TestNameValidation(t *testing.T) {
	h := newHarness(t)

	out := h.run("virtual", ActionGet, "origin_pool pool;rm")
	assert.Contains(t, out.Error, "Invalid resource name")

	path := writeFile(t, "metadata:\n  name: Bad_Name\n")
	out = h.run("virtual", ActionCreate, "origin_pool -f "+path)
	assert.Contains(t, out.Error, "Invalid resource name")

	path = writeFile(t, "metadata:\n  name: pool-1\n")
	out = h.run("virtual", ActionCreate, "origin_pool other -f "+path)
	assert.Contains(t, out.Error, "does not match metadata.name")

	assert.Empty(t, h.api.calls())
}

func TestNamespaceScope(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET", "/api/config/dns/namespaces/system/dns_zones", 200, `{"items":[]}`)

	out := h.run("dns", ActionList, "dns_zone")
	require.NotEmpty(t, out.Error)
	assert.Contains(t, strings.Join(out.Output, "\n"), "Use --namespace system")
	assert.Empty(t, h.api.calls())

	out = h.run("dns", ActionList, "dns_zone -ns system")
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"GET /api/config/dns/namespaces/system/dns_zones"}, h.api.calls())
}

func TestDeleteConfirmation(t *testing.T) {
	h := newHarness(t)
	h.api.on("DELETE", "/api/config/namespaces/default/origin_pools/pool-1", 200, `{}`)

	out := h.run("virtual", ActionDelete, "origin_pool pool-1")
	assert.Contains(t, out.Error, "requires confirmation")
	assert.Contains(t, out.Error, "--yes")
	assert.Contains(t, h.warnings.String(), "HIGH DANGER")
	assert.Empty(t, h.api.calls())

	h.session.interactive = true
	out = h.run("virtual", ActionDelete, "origin_pool pool-1")
	assert.Equal(t, "Operation cancelled.", out.Error)
	require.Len(t, h.prompts, 1)
	assert.True(t, h.prompts[0].Explicit)
	assert.Contains(t, h.prompts[0].Message, "Delete origin_pool 'pool-1' in namespace 'default'?")
	assert.Empty(t, h.api.calls())

	h.answer = true
	out = h.run("virtual", ActionDelete, "origin_pool pool-1")
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"origin_pool 'pool-1' deleted from namespace 'default'"}, out.Output)

	h.session.interactive = false
	out = h.run("virtual", ActionDelete, "origin_pool pool-1 -y")
	require.Empty(t, out.Error, out.Output)
	assert.Len(t, h.prompts, 2)
	assert.Len(t, h.api.calls(), 2)
}

func TestCreateAndApply(t *testing.T) {
	h := newHarness(t)
	path := writeFile(t, "metadata:\n  name: web\nspec:\n  domains: [web.example.com]\n")
	h.api.on("POST", "/api/config/namespaces/default/http_loadbalancers", 200, `{"metadata":{"name":"web"}}`)
	h.api.on("PUT", "/api/config/namespaces/default/http_loadbalancers/web", 200, `{"metadata":{"name":"web"}}`)

	out := h.run("virtual", ActionCreate, "http_loadbalancer -f "+path)
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"http_loadbalancer 'web' created in namespace 'default'"}, out.Output)
	body := h.api.last().Body
	md := body["metadata"].(map[string]any)
	assert.Equal(t, "web", md["name"])
	assert.Equal(t, "default", md["namespace"])
	assert.Contains(t, h.warnings.String(), "CAUTION")

	out = h.run("virtual", ActionApply, "http_loadbalancer web -f "+path)
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"http_loadbalancer 'web' created in namespace 'default'"}, out.Output)
	assert.Equal(t, []string{
		"POST /api/config/namespaces/default/http_loadbalancers",
		"GET /api/config/namespaces/default/http_loadbalancers/web",
		"POST /api/config/namespaces/default/http_loadbalancers",
	}, h.api.calls())

	h.api.on("GET", "/api/config/namespaces/default/http_loadbalancers/web", 200, `{"metadata":{"name":"web"}}`)
	out = h.run("virtual", ActionApply, "http_loadbalancer -f "+path)
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"http_loadbalancer 'web' replaced in namespace 'default'"}, out.Output)
	assert.Equal(t, "PUT /api/config/namespaces/default/http_loadbalancers/web", h.api.calls()[len(h.api.calls())-1])
}

func TestCreateFromDocumentNamespace(t *testing.T) {
	h := newHarness(t)
	path := writeFile(t, `{"metadata":{"name":"pool-1","namespace":"shared"}}`)
	h.api.on("POST", "/api/config/namespaces/shared/origin_pools", 200, `{}`)

	out := h.run("virtual", ActionCreate, "origin_pool -f "+path)
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"origin_pool 'pool-1' created in namespace 'shared'"}, out.Output)
}

func TestAPIErrorHint(t *testing.T) {
	h := newHarness(t)
	path := writeFile(t, "metadata:\n  name: web\n")
	h.api.on("POST", "/api/config/namespaces/default/http_loadbalancers", 409, `{"message":"already exists"}`)

	res := h.exec.Run(context.Background(), "virtual", ActionCreate, []string{"http_loadbalancer", "-f", path}, h.session)
	f, ok := res.(domains.Failure)
	require.True(t, ok)
	assert.Equal(t, domains.KindExecution, f.Kind)
	assert.Equal(t, []string{
		"Error: already exists (HTTP 409)",
		"Hint: Choose a different name or use 'replace'",
	}, f.Output)
	assert.Equal(t, api.ExitConflictError, api.ExitCode(f.Err))
}

func TestStatusAndGet(t *testing.T) {
	h := newHarness(t)
	h.session.output = "json"
	h.api.on("GET", "/api/config/namespaces/default/origin_pools/pool-1", 200,
		`{"metadata":{"name":"pool-1"},"status":{"state":"ACTIVE"}}`)
	h.api.on("GET", "/api/config/namespaces/default/healthchecks/hc", 200, `{"metadata":{"name":"hc"}}`)

	out := h.run("virtual", ActionStatus, "origin_pool pool-1")
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"{", `  "state": "ACTIVE"`, "}"}, out.Output)

	out = h.run("virtual", ActionStatus, "healthcheck hc")
	assert.Equal(t, []string{"No status reported for healthcheck 'hc'."}, out.Output)

	out = h.run("virtual", ActionGet, "origin_pool pool-1")
	require.Empty(t, out.Error, out.Output)
	assert.Contains(t, strings.Join(out.Output, "\n"), `"name": "pool-1"`)
}

func TestLabels(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET", "/api/config/namespaces/default/http_loadbalancers/web", 200,
		`{"metadata":{"name":"web","labels":{"env":"dev","team":"a"}},"spec":{"port":80},"system_metadata":{"uid":"x"}}`)
	h.api.on("PUT", "/api/config/namespaces/default/http_loadbalancers/web", 200, `{}`)

	out := h.run("virtual", ActionAddLabels, "http_loadbalancer web -l env=prod --label tier=web")
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"http_loadbalancer 'web' updated (2 labels)"}, out.Output)
	put := h.api.last()
	assert.Equal(t, "PUT", put.Method)
	assert.Equal(t, map[string]any{"env": "prod", "team": "a", "tier": "web"}, put.Body["metadata"].(map[string]any)["labels"])
	assert.Equal(t, map[string]any{"port": float64(80)}, put.Body["spec"])
	assert.NotContains(t, put.Body, "system_metadata")

	out = h.run("virtual", ActionRemoveLabels, "http_loadbalancer web -l team")
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"http_loadbalancer 'web' updated (1 label)"}, out.Output)

	out = h.run("virtual", ActionRemoveLabels, "http_loadbalancer web -l missing")
	assert.Equal(t, []string{"http_loadbalancer 'web' unchanged"}, out.Output)

	out = h.run("virtual", ActionAddLabels, "http_loadbalancer web -l novalue")
	assert.Contains(t, out.Error, "key=value")
}

func TestFallbackPath(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET", "/api/dns/namespaces/default/dns_load_balancers/lb", 200, `{"metadata":{"name":"lb"}}`)

	out := h.run("dns", ActionGet, "dns_load_balancer lb")
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, []string{"GET /api/dns/namespaces/default/dns_load_balancers/lb"}, h.api.calls())

	r := &request{domain: "virtual", resourceType: "service_policy", namespace: "ns1", name: "p"}
	assert.Equal(t, "/api/virtual/namespaces/ns1/service_policies/p", h.exec.path(r, "get"))
	assert.Equal(t, "/api/virtual/namespaces/ns1/service_policies", h.exec.path(r, "list"))
}

func TestCommandsAndCompletion(t *testing.T) {
	h := newHarness(t)
	cmds := h.exec.Commands("virtual")
	require.Len(t, cmds, len(Actions))
	list := cmds["list"]
	assert.Equal(t, Usage, list.Usage)

	ctx := context.Background()
	assert.Equal(t, []string{"http_loadbalancer"}, list.Complete(ctx, "http", nil, h.session))
	assert.Nil(t, list.Complete(ctx, "", []string{"origin_pool"}, h.session))

	h.api.on("GET", "/api/config/namespaces/default/origin_pools", 200,
		`{"items":[{"name":"pool-1"},{"metadata":{"name":"pool-2"}},{"name":"other"}]}`)
	got := cmds["get"].Complete(ctx, "pool", []string{"origin_pool"}, h.session)
	assert.Equal(t, []string{"pool-1", "pool-2"}, got)

	assert.Equal(t, []string{"origin_pool", "x"}, positionalArgs([]string{"-ns", "shared", "origin_pool", "-y", "--output=json", "x"}))
}

func TestProviderAndOverview(t *testing.T) {
	h := newHarness(t)
	merger := extensions.NewRegistry(h.exec.Catalog(), nil)
	provider := NewProvider(merger, h.exec)

	d, ok := provider.Domain("virtual")
	require.True(t, ok)
	_, hasList := d.Command("list")
	assert.True(t, hasList)
	_, hasOverview := d.Command("overview")
	assert.False(t, hasOverview)
	assert.Contains(t, provider.DomainNames(), "virtual")

	require.NoError(t, merger.Register(NewOverviewExtension(h.exec, "virtual")))
	d, ok = provider.Domain("virtual")
	require.True(t, ok)
	overview, ok := d.Command("summary")
	require.True(t, ok)
	assert.Equal(t, "Networking", d.Category)

	h.api.on("GET", "/api/config/namespaces/default/http_loadbalancers", 200, `{"items":[{"name":"a"},{"name":"b"}]}`)
	h.api.on("GET", "/api/config/namespaces/default/origin_pools", 200, `{"items":[{"name":"p"}]}`)
	h.api.on("GET", "/api/config/namespaces/default/healthchecks", 500, `{"message":"boom"}`)

	out := domains.Flatten(overview.Execute(context.Background(), nil, h.session))
	require.Empty(t, out.Error, out.Output)
	assert.Equal(t, "Namespace: default", out.Output[0])
	assert.Contains(t, out.Output, "healthcheck\t-")
	assert.Contains(t, out.Output, "http_loadbalancer\t2")
	assert.Contains(t, out.Output, "origin_pool\t1")
	assert.Contains(t, out.Output, "Errors:")

	_, ok = provider.Domain("nope")
	assert.False(t, ok)
}

func TestSubstituteParameters(t *testing.T) {
	params := map[string]string{"resource-type": "origin_pool", "name": "p1"}
	tests := []struct {
		message string
		want    string
	}{
		{"Delete {resource-type} {name}?", "Delete origin_pool p1?"},
		{"Delete {resourceType}?", "Delete origin_pool?"},
		{"Delete {resource_type}?", "Delete origin_pool?"},
		{"Delete {unknown}?", "Delete {unknown}?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, substituteParameters(tt.message, params))
	}
}
