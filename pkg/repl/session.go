// Package repl implements the interactive shell: session state, line
// tokenizing, built-in commands, the prompt and the read loop.
package repl

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/config"
	"github.com/f5xc/xcsh/pkg/profile"
	"github.com/pterm/pterm"
)

// ClientFactory builds an API client for a profile.
type ClientFactory func(p *profile.Profile) (*api.Client, error)

// SessionConfig configures a Session.
type SessionConfig struct {
	// Client may be nil when no server is configured.
	Client       *api.Client
	Namespace    string
	OutputFormat string
	ProfileName  string
	Interactive  bool
	// NewClient is required for profile switching.
	NewClient ClientFactory
	Logger    *pterm.Logger
}

// Session is the mutable state of one shell: connection, namespace, output
// format and the navigation context.
type Session struct {
	mu          sync.Mutex
	client      *api.Client
	namespace   string
	output      string
	profileName string
	interactive bool
	newClient   ClientFactory
	logger      *pterm.Logger

	domain string
	action string
}

// NewSession creates a session.
func NewSession(cfg *SessionConfig) *Session {
	if cfg == nil {
		cfg = &SessionConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	s := &Session{
		client:      cfg.Client,
		namespace:   cfg.Namespace,
		output:      cfg.OutputFormat,
		profileName: cfg.ProfileName,
		interactive: cfg.Interactive,
		newClient:   cfg.NewClient,
		logger:      logger,
	}
	if s.namespace == "" {
		s.namespace = config.DefaultNamespace
	}
	if s.output == "" {
		s.output = config.DefaultOutput
	}
	return s
}

func (s *Session) Namespace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namespace
}

func (s *Session) SetNamespace(ns string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespace = ns
}

func (s *Session) OutputFormat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

// SetOutputFormat changes the default output format.
func (s *Session) SetOutputFormat(format string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = format
}

func (s *Session) Client() *api.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

func (s *Session) Interactive() bool {
	return s.interactive
}

// ProfileName returns the profile the session is connected with.
func (s *Session) ProfileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileName
}

// Tenant returns the tenant of the current server, or "" when not connected.
func (s *Session) Tenant() string {
	c := s.Client()
	if c == nil {
		return ""
	}
	return profile.Tenant(c.ServerURL())
}

// UseProfile reconnects the session with p. The old client's validation
// result is discarded, the namespace resets to the profile default and the
// new token is validated.
func (s *Session) UseProfile(ctx context.Context, p *profile.Profile) (api.TokenValidation, error) {
	if s.newClient == nil {
		return api.TokenValidation{}, fmt.Errorf("profile switching is not available")
	}
	client, err := s.newClient(p)
	if err != nil {
		return api.TokenValidation{}, fmt.Errorf("failed to create client for profile '%s': %w", p.Name, err)
	}

	s.mu.Lock()
	old := s.client
	s.client = client
	s.profileName = p.Name
	s.namespace = p.DefaultNamespace
	if s.namespace == "" {
		s.namespace = config.DefaultNamespace
	}
	s.mu.Unlock()

	if old != nil {
		old.ClearValidationCache()
	}
	s.logger.Debug("switched profile", s.logger.Args("profile", p.Name, "server", client.ServerURL()))
	return client.ValidateToken(ctx, api.ValidateOptions{}), nil
}

// Context returns the navigation context.
func (s *Session) Context() (domain, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domain, s.action
}

// SetContext moves the navigation context. An empty domain returns to the
// root.
func (s *Session) SetContext(domain, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domain = domain
	s.action = action
	if domain == "" {
		s.action = ""
	}
}
