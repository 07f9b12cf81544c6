// Package runtime is the service container of xcsh.
//
// Init builds every service from the layered settings and wires them
// together; Dispose releases them. Commands never construct services
// themselves.
//
// # Initialization Flow
//
//  1. Load the settings without profiles to learn where tokens live
//  2. Open the profile store and reload the settings with the profile layer
//  3. Load the domain catalog
//  4. Build the API client, executor and extension registry
//  5. Register the built-in domains and extensions
//  6. Create the session and the shell
package runtime

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/pflag"

	"github.com/f5xc/xcsh/internal/executor"
	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/catalog"
	"github.com/f5xc/xcsh/pkg/config"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/domains/login"
	"github.com/f5xc/xcsh/pkg/extensions"
	"github.com/f5xc/xcsh/pkg/output"
	"github.com/f5xc/xcsh/pkg/profile"
	"github.com/f5xc/xcsh/pkg/profiling"
	"github.com/f5xc/xcsh/pkg/progress"
	"github.com/f5xc/xcsh/pkg/repl"
)

// OverviewDomains get the built-in "overview" extension.
var OverviewDomains = []string{"virtual"}

// Options are the inputs of Init.
type Options struct {
	Version string
	// Flags are the parsed persistent flags of the root command.
	Flags      *pflag.FlagSet
	ConfigFile string
	// ProfileDir overrides the XDG profile directory.
	ProfileDir string
	// Interactive enables prompts, spinners and the REPL.
	Interactive bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// HTTPClient replaces the transport of every API client.
	HTTPClient *http.Client
	// Tokens overrides the token store chosen from the settings.
	Tokens profile.TokenStore
	Opener extensions.Opener
	// Confirm replaces the interactive confirmation prompt.
	Confirm executor.Confirmer
}

// Runtime holds the services of one process.
type Runtime struct {
	opts *Options

	Settings   *config.Settings
	Logger     *pterm.Logger
	Profiler   *profiling.Profiler
	Catalog    *catalog.Catalog
	Profiles   *profile.Manager
	Output     *output.Manager
	Extensions *extensions.Registry
	Executor   *executor.Executor
	Registry   *domains.Registry
	Session    *repl.Session
	Shell      *repl.Shell

	initialized bool
	disposed    bool
}

// New creates an uninitialized runtime.
func New(opts *Options) *Runtime {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Runtime{opts: opts}
}

// Init builds and wires every service. It may be called once.
func (rt *Runtime) Init(ctx context.Context) error {
	if rt.initialized {
		return fmt.Errorf("runtime already initialized")
	}
	if err := rt.loadSettings(ctx); err != nil {
		return err
	}
	rt.applyTerminalSettings()

	cat, err := catalog.Load(ctx, &catalog.LoadOptions{SpecDir: rt.Settings.SpecDir})
	if err != nil {
		return fmt.Errorf("failed to load domain catalog: %w", err)
	}
	rt.Catalog = cat
	rt.Logger.Debug("catalog loaded", rt.Logger.Args("domains", len(cat.Names())))

	if err := rt.buildServices(); err != nil {
		return err
	}
	if err := rt.buildRegistry(); err != nil {
		return err
	}

	client, err := rt.initialClient()
	if err != nil {
		return err
	}
	profileName := rt.Settings.Profile
	if profileName == "" {
		profileName, _ = rt.Profiles.Active()
	}
	rt.Session = repl.NewSession(&repl.SessionConfig{
		Client:       client,
		Namespace:    rt.Settings.Namespace,
		OutputFormat: rt.Settings.Output,
		ProfileName:  profileName,
		Interactive:  rt.opts.Interactive,
		NewClient:    rt.NewClient,
		Logger:       rt.Logger,
	})
	rt.Shell, err = repl.NewShell(&repl.ShellConfig{
		Registry: rt.Registry,
		Session:  rt.Session,
		Version:  rt.opts.Version,
		NoColor:  rt.Settings.NoColor,
		Out:      rt.opts.Stdout,
		Err:      rt.opts.Stderr,
		Logger:   rt.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create shell: %w", err)
	}

	rt.initialized = true
	return nil
}

// loadSettings reads the settings twice: the first pass decides where
// profile tokens are stored, the second adds the profile layer.
func (rt *Runtime) loadSettings(ctx context.Context) error {
	loader := config.NewLoader(config.AppName)
	base, err := loader.Load(&config.LoadOptions{Flags: rt.opts.Flags, ConfigFile: rt.opts.ConfigFile})
	if err != nil {
		return err
	}
	rt.Logger = newLogger(rt.opts.Stderr, base.Debug)

	tokens := rt.opts.Tokens
	if tokens == nil && base.Keyring {
		tokens = profile.NewKeyringTokenStore(profile.KeyringService)
	}
	dir := rt.opts.ProfileDir
	if dir == "" {
		dir = filepath.Join(loader.ConfigDir(), "profiles")
	}
	rt.Profiles, err = profile.NewManager(&profile.ManagerConfig{Dir: dir, Tokens: tokens, Logger: rt.Logger})
	if err != nil {
		return fmt.Errorf("failed to open profiles: %w", err)
	}

	settings, err := loader.Load(&config.LoadOptions{
		Flags:      rt.opts.Flags,
		ConfigFile: rt.opts.ConfigFile,
		Overlay:    rt.Profiles.Overlay(ctx),
	})
	if err != nil {
		return err
	}
	if err := config.NewValidator().Validate(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	rt.Settings = settings
	return nil
}

func newLogger(w io.Writer, debug bool) *pterm.Logger {
	logger := pterm.DefaultLogger.WithWriter(w)
	if debug {
		return logger.WithLevel(pterm.LogLevelDebug)
	}
	return logger.WithLevel(pterm.LogLevelInfo)
}

func (rt *Runtime) applyTerminalSettings() {
	if rt.Settings.NoColor {
		pterm.DisableColor()
	}
}

func (rt *Runtime) buildServices() error {
	rt.Profiler = profiling.NewProfiler()

	rt.Output = output.NewManager()
	rt.Output.Config().Colors = !rt.Settings.NoColor

	prog := progress.DefaultConfig()
	prog.Writer = rt.opts.Stderr
	prog.Enabled = rt.opts.Interactive

	exec, err := executor.NewExecutor(&executor.Config{
		Catalog:  rt.Catalog,
		Output:   rt.Output,
		Progress: prog,
		Confirm:  rt.opts.Confirm,
		Stdin:    rt.opts.Stdin,
		ErrOut:   rt.opts.Stderr,
		Logger:   rt.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	rt.Executor = exec
	rt.Extensions = extensions.NewRegistry(rt.Catalog, rt.Logger)
	return nil
}

func (rt *Runtime) buildRegistry() error {
	for _, name := range OverviewDomains {
		if _, ok := rt.Catalog.Domain(name); !ok {
			continue
		}
		if err := rt.Extensions.Register(executor.NewOverviewExtension(rt.Executor, name)); err != nil {
			return fmt.Errorf("failed to register overview for %s: %w", name, err)
		}
	}
	if err := rt.Extensions.Register(extensions.NewConsoleExtension(rt.opts.Opener)); err != nil {
		return fmt.Errorf("failed to register console extension: %w", err)
	}

	rt.Registry = domains.NewRegistry(&domains.RegistryConfig{
		Provider: executor.NewProvider(rt.Extensions, rt.Executor),
		Logger:   rt.Logger,
	})
	loginDomain, err := login.New(&login.Config{Profiles: rt.Profiles, Output: rt.Output})
	if err != nil {
		return err
	}
	return rt.Registry.Register(loginDomain)
}

// initialClient connects with the resolved settings. No server URL means
// the session starts disconnected.
func (rt *Runtime) initialClient() (*api.Client, error) {
	if rt.Settings.ServerURL == "" {
		return nil, nil
	}
	return rt.newClient(rt.Settings.ServerURL, rt.Settings.APIToken, nil)
}

// NewClient builds an API client for a profile. It backs profile switching.
func (rt *Runtime) NewClient(p *profile.Profile) (*api.Client, error) {
	return rt.newClient(p.APIURL, p.APIToken, p)
}

func (rt *Runtime) newClient(serverURL, token string, p *profile.Profile) (*api.Client, error) {
	httpClient := rt.opts.HTTPClient
	if httpClient == nil && p != nil && p.Cert != "" && p.Key != "" {
		cert, err := tls.LoadX509KeyPair(p.Cert, p.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12},
		}}
	}
	client, err := api.NewClient(&api.Config{
		ServerURL:  serverURL,
		APIToken:   token,
		Timeout:    rt.Settings.Timeout,
		Retry:      rt.Settings.Retry.RetryConfig(),
		HTTPClient: httpClient,
		Logger:     rt.Logger,
		Profiler:   rt.Profiler,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// ValidateConnection checks the session token the way startup does: short
// timeout, no retries. A disconnected session reports no token.
func (rt *Runtime) ValidateConnection(ctx context.Context) api.TokenValidation {
	client := rt.Session.Client()
	if client == nil {
		return api.TokenValidation{Error: "Not connected. Run 'login profile use <name>' or set " + config.EnvAPIURL + "."}
	}
	return client.ValidateToken(ctx, api.ValidateOptions{StartupMode: true})
}

// Dispose releases the services. With debug enabled the recorded network
// spans are written to stderr. It is safe to call more than once.
func (rt *Runtime) Dispose() error {
	if !rt.initialized || rt.disposed {
		return nil
	}
	rt.disposed = true
	if c := rt.Session.Client(); c != nil {
		c.ClearValidationCache()
	}
	if rt.Settings.Debug && len(rt.Profiler.Spans()) > 0 {
		if err := rt.Profiler.WriteReport(rt.opts.Stderr); err != nil {
			return fmt.Errorf("failed to write network report: %w", err)
		}
	}
	if rt.Settings.NoColor {
		pterm.EnableColor()
	}
	return nil
}
