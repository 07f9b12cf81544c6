package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/pterm/pterm"
)

const clearScreen = "\033[H\033[2J"

// ShellConfig configures a Shell.
type ShellConfig struct {
	Registry *domains.Registry
	Session  *Session
	Version  string
	// NoColor is the process-wide color setting.
	NoColor bool
	Out     io.Writer
	Err     io.Writer
	Logger  *pterm.Logger
}

// Shell executes lines against the domain registry.
type Shell struct {
	registry *domains.Registry
	session  *Session
	version  string
	noColor  bool
	out      io.Writer
	errOut   io.Writer
	logger   *pterm.Logger
}

// NewShell creates a shell.
func NewShell(cfg *ShellConfig) (*Shell, error) {
	if cfg == nil || cfg.Registry == nil || cfg.Session == nil {
		return nil, fmt.Errorf("shell requires a registry and a session")
	}
	sh := &Shell{
		registry: cfg.Registry,
		session:  cfg.Session,
		version:  cfg.Version,
		noColor:  cfg.NoColor,
		out:      cfg.Out,
		errOut:   cfg.Err,
		logger:   cfg.Logger,
	}
	if sh.out == nil {
		sh.out = os.Stdout
	}
	if sh.errOut == nil {
		sh.errOut = os.Stderr
	}
	if sh.logger == nil {
		sh.logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return sh, nil
}

// Session returns the shell session.
func (sh *Shell) Session() *Session {
	return sh.session
}

// lineSession applies per-line flags on top of the session.
type lineSession struct {
	*Session
	output string
}

func (l lineSession) OutputFormat() string {
	if l.output != "" {
		return l.output
	}
	return l.Session.OutputFormat()
}

// Execute runs one line and returns its result. Lines are resolved against
// the navigation context unless they start with "/" or name another domain.
func (sh *Shell) Execute(ctx context.Context, line string) domains.Result {
	words, err := Tokenize(strings.TrimSpace(line))
	if err != nil {
		return domains.Fail(domains.KindValidation, "Error: "+err.Error())
	}
	words, opts := ExtractLineOptions(words)
	if len(words) == 0 {
		return domains.Success{}
	}
	if opts.NoColor && !sh.noColor {
		pterm.DisableColor()
		defer pterm.EnableColor()
	}
	sess := lineSession{Session: sh.session, output: opts.Output}

	first := strings.ToLower(words[0])
	switch first {
	case "--help", "-h":
		return runHelp(ctx, sh, nil)
	case "--version":
		return runVersion(ctx, sh, nil)
	case "..":
		return sh.up()
	case "/":
		if len(words) == 1 {
			sh.session.SetContext("", "")
			return domains.Success{ContextChanged: true}
		}
		return sh.dispatch(ctx, words[1:], sess)
	}
	if b, ok := findBuiltin(first); ok {
		return b.run(ctx, sh, words[1:])
	}

	if strings.HasPrefix(words[0], "/") {
		words[0] = strings.TrimPrefix(words[0], "/")
		return sh.dispatch(ctx, words, sess)
	}
	return sh.dispatch(ctx, sh.resolve(words), sess)
}

// ExecuteArgs runs already split words as one command outside any
// navigation context. It is the one-shot entry point.
func (sh *Shell) ExecuteArgs(ctx context.Context, words []string) domains.Result {
	words, opts := ExtractLineOptions(words)
	if len(words) == 0 {
		return runHelp(ctx, sh, nil)
	}
	if opts.NoColor && !sh.noColor {
		pterm.DisableColor()
		defer pterm.EnableColor()
	}
	sess := lineSession{Session: sh.session, output: opts.Output}
	words[0] = strings.TrimPrefix(words[0], "/")
	return sh.registry.Dispatch(ctx, words, sess)
}

// resolve prefixes words with the navigation context.
func (sh *Shell) resolve(words []string) []string {
	domain, action := sh.session.Context()
	if domain == "" {
		return words
	}
	d, ok := sh.registry.Lookup(domain)
	if !ok {
		sh.session.SetContext("", "")
		return words
	}
	if action == "" {
		_, isCommand := d.Command(words[0])
		_, isGroup := d.Groups[strings.ToLower(words[0])]
		if !isCommand && !isGroup && sh.registry.Has(words[0]) {
			return words
		}
		return append([]string{domain}, words...)
	}
	// An action's first argument is a resource type, never a domain name.
	if sh.registry.Has(words[0]) {
		return words
	}
	return append([]string{domain, action}, words...)
}

// dispatch runs path through the registry, entering a context when the
// path names a domain without a default command or an action that needs
// arguments.
func (sh *Shell) dispatch(ctx context.Context, path []string, s domains.Session) domains.Result {
	if d, ok := sh.registry.Lookup(path[0]); ok {
		switch {
		case len(path) == 1 && d.Default == nil:
			sh.session.SetContext(d.Name, "")
			return domains.Success{ContextChanged: true}
		case len(path) == 2:
			if cmd, ok := d.Command(path[1]); ok && strings.HasPrefix(cmd.Usage, "<") {
				sh.session.SetContext(d.Name, cmd.Name)
				return domains.Success{ContextChanged: true}
			}
		}
	}
	return sh.registry.Dispatch(ctx, path, s)
}

func (sh *Shell) up() domains.Result {
	domain, action := sh.session.Context()
	switch {
	case action != "":
		sh.session.SetContext(domain, "")
	case domain != "":
		sh.session.SetContext("", "")
	}
	return domains.Success{ContextChanged: true}
}

// Write prints a result and reports whether the shell should exit.
func (sh *Shell) Write(r domains.Result) bool {
	o := domains.Flatten(r)
	if o.ShouldClear {
		_, _ = io.WriteString(sh.out, clearScreen)
		return false
	}
	if o.RawContent != "" {
		_, _ = io.WriteString(sh.out, o.RawContent)
		if !strings.HasSuffix(o.RawContent, "\n") {
			_, _ = io.WriteString(sh.out, "\n")
		}
	}
	w := sh.out
	if o.Error != "" {
		w = sh.errOut
	}
	for _, line := range o.Output {
		_, _ = fmt.Fprintln(w, line)
	}
	return o.ShouldExit
}

// Complete returns candidate words for the last word of line.
func (sh *Shell) Complete(ctx context.Context, line string) []string {
	words, err := Tokenize(line)
	if err != nil {
		return nil
	}
	partial := ""
	if len(words) > 0 && !strings.HasSuffix(line, " ") {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}

	if len(words) == 0 {
		domain, action := sh.session.Context()
		if domain == "" {
			var out []string
			for _, name := range BuiltinNames() {
				if strings.HasPrefix(name, strings.ToLower(partial)) {
					out = append(out, name)
				}
			}
			for _, s := range sh.registry.CompleteDomains(partial) {
				out = append(out, s.Text)
			}
			return out
		}
		var args []string
		if action != "" {
			args = []string{action}
		}
		return texts(sh.registry.Complete(ctx, domain, partial, args, sh.session))
	}

	path := sh.resolve(words)
	if strings.HasPrefix(path[0], "/") {
		path[0] = strings.TrimPrefix(path[0], "/")
	}
	return texts(sh.registry.Complete(ctx, path[0], partial, path[1:], sh.session))
}

func texts(suggestions []domains.Suggestion) []string {
	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, s.Text)
	}
	return out
}
