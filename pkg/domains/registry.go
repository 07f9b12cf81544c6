package domains

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

// Provider supplies domains the registry does not hold itself, such as the
// ones generated from the API catalog.
type Provider interface {
	Domain(name string) (*Domain, bool)
	DomainNames() []string
}

// Registry holds the custom domains and falls back to a Provider.
// Custom domains take precedence over provided ones of the same name.
type Registry struct {
	mu       sync.RWMutex
	custom   map[string]*Domain
	provider Provider
	logger   *pterm.Logger
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Provider Provider
	Logger   *pterm.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(config *RegistryConfig) *Registry {
	if config == nil {
		config = &RegistryConfig{}
	}
	logger := config.Logger
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return &Registry{
		custom:   make(map[string]*Domain),
		provider: config.Provider,
		logger:   logger,
	}
}

// SetProvider replaces the fallback provider.
func (r *Registry) SetProvider(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = p
}

// Register adds a custom domain. Registering a name twice is an error.
func (r *Registry) Register(d *Domain) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("domain must have a name")
	}
	name := strings.ToLower(d.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.custom[name]; exists {
		return fmt.Errorf("domain %q is already registered", name)
	}
	r.custom[name] = d
	r.logger.Debug("registered domain", r.logger.Args("domain", name))
	return nil
}

// Lookup resolves a domain name, custom domains first.
func (r *Registry) Lookup(name string) (*Domain, bool) {
	name = strings.ToLower(name)
	r.mu.RLock()
	d, ok := r.custom[name]
	provider := r.provider
	r.mu.RUnlock()
	if ok {
		return d, true
	}
	if provider != nil {
		return provider.Domain(name)
	}
	return nil, false
}

// Has reports whether name resolves to a domain.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns every resolvable domain name, sorted and unique.
func (r *Registry) Names() []string {
	r.mu.RLock()
	seen := make(map[string]bool, len(r.custom))
	for n := range r.custom {
		seen[n] = true
	}
	provider := r.provider
	r.mu.RUnlock()
	if provider != nil {
		for _, n := range provider.DomainNames() {
			seen[n] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes args, whose first element is the domain name.
func (r *Registry) Dispatch(ctx context.Context, args []string, s Session) Result {
	if len(args) == 0 {
		return Fail(KindUnknownDomain, "No domain given")
	}
	domainName := strings.ToLower(args[0])
	d, ok := r.Lookup(domainName)
	if !ok {
		out := []string{fmt.Sprintf("Unknown domain: %s", args[0])}
		if hint := r.suggestDomain(domainName); hint != "" {
			out = append(out, "", fmt.Sprintf("Did you mean '%s'?", hint))
		}
		return Failure{Output: out, Kind: KindUnknownDomain, Message: "Unknown domain"}
	}
	return r.dispatchDomain(ctx, d, args[1:], s)
}

// DispatchDomain routes args inside an already resolved domain.
func (r *Registry) DispatchDomain(ctx context.Context, domainName string, args []string, s Session) Result {
	d, ok := r.Lookup(domainName)
	if !ok {
		return Failure{Output: []string{fmt.Sprintf("Unknown domain: %s", domainName)}, Kind: KindUnknownDomain, Message: "Unknown domain"}
	}
	return r.dispatchDomain(ctx, d, args, s)
}

func (r *Registry) dispatchDomain(ctx context.Context, d *Domain, rest []string, s Session) Result {
	if len(rest) == 0 {
		if d.Default != nil {
			return r.run(ctx, d.Default, []string{d.Name}, nil, s)
		}
		return Success{Output: DomainHelp(d)}
	}

	word := strings.ToLower(rest[0])
	if isHelpWord(word) {
		return Success{Output: DomainHelp(d)}
	}

	if g, ok := d.Groups[word]; ok {
		return r.dispatchGroup(ctx, d, g, rest[1:], s)
	}

	if cmd, ok := findCommand(d.Commands, word); ok {
		return r.run(ctx, cmd, []string{d.Name, cmd.Name}, rest[1:], s)
	}

	out := []string{
		fmt.Sprintf("Unknown command: %s %s", d.Name, rest[0]),
		"",
	}
	if hint := suggestCommand(word, d.Commands, d.Groups); hint != "" {
		out = append(out, fmt.Sprintf("Did you mean '%s %s'?", d.Name, hint), "")
	}
	out = append(out, fmt.Sprintf("Run '%s' for available commands.", d.Name))
	return Failure{Output: out, Kind: KindUnknownCommand, Message: "Unknown command"}
}

func (r *Registry) dispatchGroup(ctx context.Context, d *Domain, g *Group, rest []string, s Session) Result {
	if len(rest) == 0 {
		if g.Default != nil {
			return r.run(ctx, g.Default, []string{d.Name, g.Name}, nil, s)
		}
		return Success{Output: GroupHelp(d, g)}
	}

	word := strings.ToLower(rest[0])
	if isHelpWord(word) {
		return Success{Output: GroupHelp(d, g)}
	}

	if cmd, ok := findCommand(g.Commands, word); ok {
		return r.run(ctx, cmd, []string{d.Name, g.Name, cmd.Name}, rest[1:], s)
	}

	out := []string{
		fmt.Sprintf("Unknown command: %s %s %s", d.Name, g.Name, rest[0]),
		"",
	}
	if hint := suggestCommand(word, g.Commands, nil); hint != "" {
		out = append(out, fmt.Sprintf("Did you mean '%s %s %s'?", d.Name, g.Name, hint), "")
	}
	out = append(out, fmt.Sprintf("Run '%s %s' for available commands.", d.Name, g.Name))
	return Failure{Output: out, Kind: KindUnknownCommand, Message: "Unknown command"}
}

// run validates the leftover arguments and executes cmd. path is the
// resolved command path, e.g. [domain, group, command].
func (r *Registry) run(ctx context.Context, cmd *Command, path []string, args []string, s Session) Result {
	if len(args) > 0 && isTrailingHelp(args) {
		return Success{Output: CommandHelp(path, cmd)}
	}
	if res := validateCommandArgs(cmd, path, siblingsOf(r, path), args); res != nil {
		return res
	}
	if cmd.Execute == nil {
		return Fail(KindExecution, fmt.Sprintf("Command '%s' has no handler", strings.Join(path, " ")))
	}
	r.logger.Debug("executing command", r.logger.Args("path", strings.Join(path, " "), "args", len(args)))
	return cmd.Execute(ctx, args, s)
}

// siblingsOf returns the commands next to the command at path.
func siblingsOf(r *Registry, path []string) map[string]*Command {
	d, ok := r.Lookup(path[0])
	if !ok {
		return nil
	}
	if len(path) == 3 {
		if g, ok := d.Groups[path[1]]; ok {
			return g.Commands
		}
		return nil
	}
	return d.Commands
}

func isHelpWord(w string) bool {
	return w == "--help" || w == "-h" || w == "help"
}

func isTrailingHelp(args []string) bool {
	last := args[len(args)-1]
	return last == "--help" || last == "-h"
}

func (r *Registry) suggestDomain(word string) string {
	return closest(word, r.Names())
}
