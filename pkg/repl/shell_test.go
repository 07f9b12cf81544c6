package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/profile"
)

type call struct {
	name   string
	args   []string
	output string
	ns     string
}

func newTestShell(t *testing.T, calls *[]call) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	record := func(name string) domains.Handler {
		return func(_ context.Context, args []string, s domains.Session) domains.Result {
			*calls = append(*calls, call{name: name, args: args, output: s.OutputFormat(), ns: s.Namespace()})
			return domains.Ok("ran " + name)
		}
	}

	virtual := domains.NewDomain("virtual", "Load balancers and origin pools.", "Load balancing")
	virtual.AddCommand(&domains.Command{Name: "list", Usage: "<resource-type> [flags]", Execute: record("list"),
		Complete: func(_ context.Context, partial string, _ []string, _ domains.Session) []string {
			var out []string
			for _, rt := range []string{"http_loadbalancer", "origin_pool"} {
				if strings.HasPrefix(rt, partial) {
					out = append(out, rt)
				}
			}
			return out
		}})
	virtual.AddCommand(&domains.Command{Name: "get", Usage: "<resource-type> <name> [flags]", Execute: record("get")})

	login := domains.NewDomain("login", "Connection profiles.", "Profiles")
	login.Default = &domains.Command{Name: "status", Execute: record("status")}

	reg := domains.NewRegistry(nil)
	require.NoError(t, reg.Register(virtual))
	require.NoError(t, reg.Register(login))

	var out, errOut bytes.Buffer
	sh, err := NewShell(&ShellConfig{
		Registry: reg,
		Session:  NewSession(&SessionConfig{Namespace: "prod"}),
		Version:  "1.2.3",
		Out:      &out,
		Err:      &errOut,
	})
	require.NoError(t, err)
	return sh, &out, &errOut
}

func TestExecuteDispatch(t *testing.T) {
	var calls []call
	sh, _, _ := newTestShell(t, &calls)
	ctx := context.Background()

	r := sh.Execute(ctx, `virtual list http_loadbalancer -o json --no-color`)
	require.False(t, domains.IsFailure(r))
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"http_loadbalancer", "-o", "json"}, calls[0].args)
	assert.Equal(t, "json", calls[0].output)
	assert.Equal(t, "table", sh.Session().OutputFormat(), "line flags do not change the session")

	r = sh.Execute(ctx, "login")
	assert.Equal(t, []string{"ran status"}, domains.Flatten(r).Output)
}

func TestExecuteArgs(t *testing.T) {
	var calls []call
	sh, _, _ := newTestShell(t, &calls)
	ctx := context.Background()

	r := sh.ExecuteArgs(ctx, []string{"virtual", "get", "origin_pool", "my pool", "--output=yaml"})
	require.False(t, domains.IsFailure(r))
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"origin_pool", "my pool", "--output=yaml"}, calls[0].args)
	assert.Equal(t, "yaml", calls[0].output)

	r = sh.ExecuteArgs(ctx, []string{"virtual"})
	assert.False(t, domains.IsFailure(r))
	domain, _ := sh.Session().Context()
	assert.Empty(t, domain, "one-shot commands never enter a context")

	r = sh.ExecuteArgs(ctx, []string{"nope"})
	assert.True(t, domains.IsFailure(r))
}

func TestExecuteNavigation(t *testing.T) {
	var calls []call
	sh, _, _ := newTestShell(t, &calls)
	ctx := context.Background()

	r := sh.Execute(ctx, "virtual")
	assert.True(t, domains.Flatten(r).ContextChanged)
	domain, action := sh.Session().Context()
	assert.Equal(t, "virtual", domain)
	assert.Empty(t, action)
	assert.Equal(t, "virtual@prod> ", Prompt(sh.Session()))

	sh.Execute(ctx, "get")
	_, action = sh.Session().Context()
	assert.Equal(t, "get", action)
	assert.Equal(t, "virtual/get@prod> ", Prompt(sh.Session()))

	sh.Execute(ctx, `http_loadbalancer "web lb"`)
	require.Len(t, calls, 1)
	assert.Equal(t, "get", calls[0].name)
	assert.Equal(t, []string{"http_loadbalancer", "web lb"}, calls[0].args)

	sh.Execute(ctx, "login")
	require.Len(t, calls, 2)
	assert.Equal(t, "status", calls[1].name, "a domain name escapes the action context")
	domain, action = sh.Session().Context()
	assert.Equal(t, "virtual", domain)
	assert.Equal(t, "get", action)

	sh.Execute(ctx, "..")
	domain, action = sh.Session().Context()
	assert.Equal(t, "virtual", domain)
	assert.Empty(t, action)

	sh.Execute(ctx, "login")
	require.Len(t, calls, 3)
	assert.Equal(t, "status", calls[2].name, "a domain name escapes the domain context")

	sh.Execute(ctx, "/")
	domain, _ = sh.Session().Context()
	assert.Empty(t, domain)
	assert.Equal(t, "@prod> ", Prompt(sh.Session()))
}

func TestExecuteBuiltins(t *testing.T) {
	var calls []call
	sh, _, _ := newTestShell(t, &calls)
	ctx := context.Background()

	o := domains.Flatten(sh.Execute(ctx, "ns"))
	assert.Equal(t, []string{"Current namespace: prod"}, o.Output)

	o = domains.Flatten(sh.Execute(ctx, "namespace shared"))
	assert.True(t, o.ContextChanged)
	assert.Equal(t, "shared", sh.Session().Namespace())

	o = domains.Flatten(sh.Execute(ctx, "namespace 'a;b'"))
	assert.NotEmpty(t, o.Error)
	assert.Equal(t, "shared", sh.Session().Namespace())

	o = domains.Flatten(sh.Execute(ctx, "version"))
	assert.Equal(t, []string{"xcsh version 1.2.3"}, o.Output)

	o = domains.Flatten(sh.Execute(ctx, "--version"))
	assert.Equal(t, []string{"xcsh version 1.2.3"}, o.Output)

	o = domains.Flatten(sh.Execute(ctx, "domains"))
	assert.Contains(t, strings.Join(o.Output, "\n"), "virtual")

	o = domains.Flatten(sh.Execute(ctx, "help"))
	assert.Contains(t, o.Output[0], "xcsh")

	o = domains.Flatten(sh.Execute(ctx, "clear"))
	assert.True(t, o.ShouldClear)

	o = domains.Flatten(sh.Execute(ctx, "QUIT"))
	assert.True(t, o.ShouldExit)

	o = domains.Flatten(sh.Execute(ctx, "refresh"))
	assert.Contains(t, o.Error, "Not connected")

	o = domains.Flatten(sh.Execute(ctx, `virtual "unterminated`))
	assert.NotEmpty(t, o.Error)
	assert.Empty(t, calls)
}

func TestHelpListsBuiltins(t *testing.T) {
	var calls []call
	sh, _, _ := newTestShell(t, &calls)

	o := domains.Flatten(sh.Execute(context.Background(), "help"))
	require.Empty(t, o.Error)
	text := strings.Join(o.Output, "\n")
	for _, name := range []string{"help", "exit, quit", "namespace, ns [name]", "domains", "version", "refresh"} {
		assert.Contains(t, text, name)
	}
	assert.Contains(t, text, "Go up one level")
	assert.Empty(t, calls)

	assert.Equal(t, []string{"clear", "domains", "exit", "help", "namespace", "ns", "quit", "refresh", "version"}, BuiltinNames())
}

func TestRunPlain(t *testing.T) {
	var calls []call
	sh, out, errOut := newTestShell(t, &calls)

	input := strings.NewReader("virtual list origin_pool\n\nbogus\nexit\nlogin\n")
	require.NoError(t, sh.Run(context.Background(), input))

	assert.Len(t, calls, 1, "lines after exit are not run")
	assert.Contains(t, out.String(), "ran list")
	assert.Contains(t, out.String(), "Goodbye!")
	assert.Contains(t, errOut.String(), "Unknown domain: bogus")
}

func TestComplete(t *testing.T) {
	var calls []call
	sh, _, _ := newTestShell(t, &calls)
	ctx := context.Background()

	assert.Equal(t, []string{"version", "virtual"}, sh.Complete(ctx, "v"))
	assert.Equal(t, []string{"get", "list"}, sh.Complete(ctx, "virtual "))
	assert.Equal(t, []string{"origin_pool"}, sh.Complete(ctx, "virtual list o"))

	sh.Session().SetContext("virtual", "list")
	assert.Equal(t, []string{"http_loadbalancer"}, sh.Complete(ctx, "h"))

	complete := sh.autoComplete(ctx)
	line, pos, ok := complete("h", 1, '\t')
	require.True(t, ok)
	assert.Equal(t, "http_loadbalancer ", line)
	assert.Equal(t, len(line), pos)
}

func TestUseProfile(t *testing.T) {
	old, err := api.NewClient(&api.Config{ServerURL: "https://old.console.ves.volterra.io/api"})
	require.NoError(t, err)

	var built []string
	s := NewSession(&SessionConfig{
		Client:    old,
		Namespace: "prod",
		NewClient: func(p *profile.Profile) (*api.Client, error) {
			built = append(built, p.Name)
			return api.NewClient(&api.Config{ServerURL: p.APIURL})
		},
	})
	assert.Equal(t, "old", s.Tenant())

	v, err := s.UseProfile(context.Background(), &profile.Profile{Name: "acme", APIURL: "https://acme.console.ves.volterra.io/api"})
	require.NoError(t, err)
	assert.False(t, v.Valid, "a profile without a token does not validate")
	assert.Equal(t, []string{"acme"}, built)
	assert.Equal(t, "acme", s.ProfileName())
	assert.Equal(t, "default", s.Namespace())
	assert.Equal(t, "acme@default> ", Prompt(s))
}

func TestTokenize(t *testing.T) {
	words, err := Tokenize(`virtual get http_loadbalancer 'my lb' --label "env=prod"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"virtual", "get", "http_loadbalancer", "my lb", "--label", "env=prod"}, words)

	_, err = Tokenize(`get "open`)
	assert.Error(t, err)
}

func TestExtractLineOptions(t *testing.T) {
	words, opts := ExtractLineOptions([]string{"virtual", "list", "--no-color", "--output=yaml"})
	assert.Equal(t, []string{"virtual", "list", "--output=yaml"}, words)
	assert.True(t, opts.NoColor)
	assert.Equal(t, "yaml", opts.Output)
}

func TestPromptDefault(t *testing.T) {
	s := NewSession(&SessionConfig{})
	s.SetNamespace("")
	assert.Equal(t, DefaultPrompt, Prompt(s))

	local, err := api.NewClient(&api.Config{ServerURL: "http://localhost:8080"})
	require.NoError(t, err)
	s = NewSession(&SessionConfig{Client: local, Namespace: "system"})
	assert.Equal(t, "@system> ", Prompt(s))
}
