// Package extensions merges locally defined commands into the generated API
// domains.
//
// Generated domains are authoritative. An extension may add commands and
// subcommand groups to a generated domain, or stand alone as its own domain,
// but it may never claim one of the canonical resource action names.
package extensions

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/f5xc/xcsh/pkg/catalog"
	"github.com/f5xc/xcsh/pkg/domains"
)

// ReservedActions are the canonical resource actions every generated domain
// provides. Extension commands and aliases must not reuse them.
var ReservedActions = []string{
	"list", "get", "create", "delete", "replace",
	"apply", "status", "patch", "add-labels", "remove-labels",
}

// IsReservedAction reports whether name is a canonical resource action.
func IsReservedAction(name string) bool {
	name = strings.ToLower(name)
	for _, a := range ReservedActions {
		if a == name {
			return true
		}
	}
	return false
}

// Extension adds commands to a target domain.
type Extension struct {
	TargetDomain string
	Description  string
	Commands     map[string]*domains.Command
	Subcommands  map[string]*domains.Group
	// Default runs when the domain is invoked without arguments. It is only
	// used for standalone extensions.
	Default *domains.Command
}

// Source tells where a merged domain came from.
type Source int

const (
	SourceGenerated Source = iota
	SourceExtension
	SourceMerged
)

func (s Source) String() string {
	switch s {
	case SourceGenerated:
		return "generated"
	case SourceExtension:
		return "extension"
	case SourceMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// MarshalText renders the source in listings and spec output.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MergedDomain is the combined view of a generated domain and its extension.
type MergedDomain struct {
	Name               string
	DisplayName        string
	Description        string
	Source             Source
	HasGeneratedDomain bool
	HasExtension       bool
	Commands           map[string]*domains.Command
	Subcommands        map[string]*domains.Group
	Default            *domains.Command
	// Metadata is nil for standalone extensions.
	Metadata *catalog.DomainInfo
}

// GeneratedTable is the read-only table of API domains.
type GeneratedTable interface {
	Domain(name string) (*catalog.DomainInfo, bool)
	Names() []string
}

// Stats summarizes the registered extensions.
type Stats struct {
	ExtensionCount  int
	StandaloneCount int
	MergedCount     int
}

// Registry holds extensions and caches merged views by domain name.
type Registry struct {
	mu         sync.Mutex
	table      GeneratedTable
	extensions map[string]*Extension
	cache      map[string]*MergedDomain
	logger     *pterm.Logger
}

// NewRegistry creates a registry over a generated domain table. table may be
// nil when no API domains are available.
func NewRegistry(table GeneratedTable, logger *pterm.Logger) *Registry {
	if logger == nil {
		logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return &Registry{
		table:      table,
		extensions: make(map[string]*Extension),
		cache:      make(map[string]*MergedDomain),
		logger:     logger,
	}
}

// Validate checks an extension against the reserved action names.
func Validate(ext *Extension) error {
	if ext == nil || ext.TargetDomain == "" {
		return fmt.Errorf("extension must name a target domain")
	}
	for name, cmd := range ext.Commands {
		if IsReservedAction(name) {
			return fmt.Errorf("extension %q: command %q conflicts with a reserved API action", ext.TargetDomain, name)
		}
		for _, alias := range cmd.Aliases {
			if IsReservedAction(alias) {
				return fmt.Errorf("extension %q: alias %q of %q conflicts with a reserved API action", ext.TargetDomain, alias, name)
			}
			if _, clash := ext.Commands[alias]; clash {
				return fmt.Errorf("extension %q: alias %q of %q collides with a command name", ext.TargetDomain, alias, name)
			}
		}
	}
	for name := range ext.Subcommands {
		if IsReservedAction(name) {
			return fmt.Errorf("extension %q: subcommand group %q conflicts with a reserved API action", ext.TargetDomain, name)
		}
	}
	return nil
}

// Register validates ext and stores it, replacing any earlier extension for
// the same domain.
func (r *Registry) Register(ext *Extension) error {
	if err := Validate(ext); err != nil {
		return err
	}
	key := domainKey(ext.TargetDomain)
	if key != ext.TargetDomain {
		normalized := *ext
		normalized.TargetDomain = key
		ext = &normalized
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions[key] = ext
	delete(r.cache, key)
	r.logger.Debug("registered extension", r.logger.Args("domain", key, "commands", len(ext.Commands)))
	return nil
}

// domainKey folds a domain name the way the command registry does.
func domainKey(name string) string {
	return strings.ToLower(name)
}

// Extension returns the extension registered for domain.
func (r *Registry) Extension(domain string) (*Extension, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext, ok := r.extensions[domainKey(domain)]
	return ext, ok
}

// HasExtension reports whether domain has an extension.
func (r *Registry) HasExtension(domain string) bool {
	_, ok := r.Extension(domain)
	return ok
}

// MergedDomain returns the merged view for name. It reports false when
// neither a generated domain nor an extension exists.
func (r *Registry) MergedDomain(name string) (*MergedDomain, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mergedLocked(name)
}

func (r *Registry) mergedLocked(name string) (*MergedDomain, bool) {
	name = domainKey(name)
	if m, ok := r.cache[name]; ok {
		return m, true
	}
	var info *catalog.DomainInfo
	if r.table != nil {
		info, _ = r.table.Domain(name)
	}
	ext := r.extensions[name]
	if info == nil && ext == nil {
		return nil, false
	}
	m := buildMerged(name, info, ext)
	r.cache[name] = m
	return m, true
}

func buildMerged(name string, info *catalog.DomainInfo, ext *Extension) *MergedDomain {
	m := &MergedDomain{
		Name:               name,
		HasGeneratedDomain: info != nil,
		HasExtension:       ext != nil,
		Commands:           map[string]*domains.Command{},
		Subcommands:        map[string]*domains.Group{},
		Metadata:           info,
	}
	switch {
	case info != nil && ext != nil:
		m.Source = SourceMerged
	case info != nil:
		m.Source = SourceGenerated
	default:
		m.Source = SourceExtension
	}

	if info != nil {
		m.DisplayName = info.DisplayName
		m.Description = info.Description
	} else {
		m.DisplayName = catalog.ToDisplayName(ext.TargetDomain)
	}
	if m.Description == "" && ext != nil {
		m.Description = ext.Description
	}
	if m.Description == "" {
		m.Description = "Commands for " + m.DisplayName
	}

	if ext != nil {
		if ext.Commands != nil {
			m.Commands = ext.Commands
		}
		if ext.Subcommands != nil {
			m.Subcommands = ext.Subcommands
		}
		if info == nil {
			m.Default = ext.Default
		}
	}
	return m
}

// AllMergedDomains returns the merged view of every generated and extended
// domain, sorted by name.
func (r *Registry) AllMergedDomains() []*MergedDomain {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := map[string]bool{}
	if r.table != nil {
		for _, n := range r.table.Names() {
			names[n] = true
		}
	}
	for n := range r.extensions {
		names[n] = true
	}

	out := make([]*MergedDomain, 0, len(names))
	for n := range names {
		if m, ok := r.mergedLocked(n); ok {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExtendedDomains returns the names of domains with an extension, sorted.
func (r *Registry) ExtendedDomains() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.extensions))
	for n := range r.extensions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Command resolves an extension command by name or alias.
func (r *Registry) Command(domain, name string) (*domains.Command, bool) {
	ext, ok := r.Extension(domain)
	if !ok {
		return nil, false
	}
	if cmd, ok := ext.Commands[name]; ok {
		return cmd, true
	}
	for _, cmd := range ext.Commands {
		for _, a := range cmd.Aliases {
			if a == name {
				return cmd, true
			}
		}
	}
	return nil, false
}

// Subcommand returns an extension subcommand group.
func (r *Registry) Subcommand(domain, group string) (*domains.Group, bool) {
	ext, ok := r.Extension(domain)
	if !ok {
		return nil, false
	}
	g, ok := ext.Subcommands[group]
	return g, ok
}

// CommandNames returns the extension command names and aliases of a domain,
// sorted.
func (r *Registry) CommandNames(domain string) []string {
	ext, ok := r.Extension(domain)
	if !ok {
		return nil
	}
	var names []string
	for name, cmd := range ext.Commands {
		names = append(names, name)
		names = append(names, cmd.Aliases...)
	}
	sort.Strings(names)
	return names
}

// ClearCache drops every merged view.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*MergedDomain)
}

// Stats counts standalone and merged extensions.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Stats{ExtensionCount: len(r.extensions)}
	for name := range r.extensions {
		if r.table != nil {
			if _, ok := r.table.Domain(name); ok {
				s.MergedCount++
				continue
			}
		}
		s.StandaloneCount++
	}
	return s
}
