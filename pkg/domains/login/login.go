// Package login provides the built-in "login" domain: connection status and
// the "profile" subcommand group.
package login

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/output"
	"github.com/f5xc/xcsh/pkg/profile"
)

// DomainName is the name of the login domain.
const DomainName = "login"

// Switcher is implemented by sessions that can reconnect with a profile.
type Switcher interface {
	ProfileName() string
	UseProfile(ctx context.Context, p *profile.Profile) (api.TokenValidation, error)
}

// Config configures the login domain.
type Config struct {
	Profiles *profile.Manager
	Output   *output.Manager
	// Editor is used by "profile edit". Nil uses $EDITOR.
	Editor *profile.Editor
	// IsTerminal reports whether an editor can attach to the terminal. Nil
	// checks stdin.
	IsTerminal func() bool
}

type handlers struct {
	profiles   *profile.Manager
	out        *output.Manager
	editor     *profile.Editor
	isTerminal func() bool
}

// New builds the login domain.
func New(cfg *Config) (*domains.Domain, error) {
	if cfg == nil || cfg.Profiles == nil {
		return nil, fmt.Errorf("login domain requires a profile manager")
	}
	h := &handlers{
		profiles:   cfg.Profiles,
		out:        cfg.Output,
		editor:     cfg.Editor,
		isTerminal: cfg.IsTerminal,
	}
	if h.out == nil {
		h.out = output.NewManager()
	}
	if h.editor == nil {
		h.editor = &profile.Editor{}
	}
	if h.isTerminal == nil {
		h.isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}

	d := domains.NewDomain(DomainName,
		"Show the connection status and manage connection profiles. A profile stores the API URL, token and default namespace of one tenant.",
		"Connection status and profiles")
	d.DisplayName = "Login"
	d.DescriptionMedium = "Show the current connection and switch between tenant profiles."
	d.Category = "Core"
	d.Default = &domains.Command{
		Name:             "status",
		Description:      "Show the active profile, server, namespace, reachability and token state.",
		DescriptionShort: "Show connection status",
		Execute:          h.status,
	}
	d.AddCommand(d.Default)
	d.AddGroup(h.profileGroup())
	return d, nil
}

// ConnectionInfo is the connection summary shown by status, use and edit.
type ConnectionInfo struct {
	Profile    string `json:"profile"`
	Server     string `json:"server"`
	Namespace  string `json:"namespace"`
	Auth       string `json:"auth"`
	Reachable  string `json:"reachable,omitempty"`
	Validation string `json:"validation"`
}

func profileName(s domains.Session) string {
	if sw, ok := s.(Switcher); ok && sw.ProfileName() != "" {
		return sw.ProfileName()
	}
	return "(none)"
}

func connectionInfo(s domains.Session, validation api.TokenValidation, reach *api.Connectivity) ConnectionInfo {
	info := ConnectionInfo{
		Profile:   profileName(s),
		Namespace: s.Namespace(),
		Auth:      "not configured",
	}
	client := s.Client()
	if client == nil {
		info.Validation = "not connected"
		return info
	}
	info.Server = client.ServerURL()
	if client.HasToken() {
		info.Auth = "configured"
	}
	if reach != nil {
		if reach.Reachable {
			info.Reachable = fmt.Sprintf("yes (%dms)", reach.Latency.Milliseconds())
		} else {
			info.Reachable = "no"
		}
	}
	if validation.Valid {
		info.Validation = "valid"
	} else {
		info.Validation = "invalid: " + validation.Error
	}
	return info
}

func (h *handlers) render(s domains.Session, data any) ([]string, error) {
	format, err := parseFormat(s)
	if err != nil {
		return nil, err
	}
	return h.out.Lines(data, format)
}

func (h *handlers) status(ctx context.Context, _ []string, s domains.Session) domains.Result {
	client := s.Client()
	if client == nil {
		return domains.Ok(
			"Not connected.",
			"",
			"Create a profile with 'login profile create <name> --url <api-url> --token <token>'",
			"or activate one with 'login profile use <name>'.",
		)
	}

	reach := client.CheckConnectivity(ctx)
	validation := api.TokenValidation{Valid: client.IsValidated(), Error: client.ValidationError()}
	if !validation.Valid {
		validation = client.ValidateToken(ctx, api.ValidateOptions{})
	}
	lines, err := h.render(s, connectionInfo(s, validation, &reach))
	if err != nil {
		return domains.FailErr(err)
	}
	return domains.Ok(lines...)
}
