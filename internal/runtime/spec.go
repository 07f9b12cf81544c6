package runtime

import (
	"sort"

	"github.com/f5xc/xcsh/pkg/config"
	"github.com/f5xc/xcsh/pkg/domains"
)

// sourceBuiltin marks domains registered directly with the command registry.
const sourceBuiltin = "builtin"

// CLISpec is the machine-readable description printed by --spec.
type CLISpec struct {
	Name    string          `json:"name" yaml:"name"`
	Version string          `json:"version" yaml:"version"`
	Domains []DomainSpec    `json:"domains" yaml:"domains"`
	EnvVars []config.EnvVar `json:"environment" yaml:"environment"`
}

// DomainSpec describes one domain.
type DomainSpec struct {
	Name        string        `json:"name" yaml:"name"`
	Source      string        `json:"source" yaml:"source"`
	Category    string        `json:"category,omitempty" yaml:"category,omitempty"`
	Description string        `json:"description" yaml:"description"`
	Default     string        `json:"default,omitempty" yaml:"default,omitempty"`
	Commands    []CommandSpec `json:"commands" yaml:"commands"`
	Subcommands []GroupSpec   `json:"subcommands,omitempty" yaml:"subcommands,omitempty"`
}

// CommandSpec describes one command.
type CommandSpec struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Usage       string   `json:"usage,omitempty" yaml:"usage,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// GroupSpec describes a subcommand group.
type GroupSpec struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Commands    []CommandSpec `json:"commands" yaml:"commands"`
}

// Spec describes every domain reachable through the registry.
func (rt *Runtime) Spec() *CLISpec {
	spec := &CLISpec{
		Name:    config.AppName,
		Version: rt.opts.Version,
		EnvVars: config.EnvVars,
	}
	for _, name := range rt.Registry.Names() {
		d, ok := rt.Registry.Lookup(name)
		if !ok {
			continue
		}
		ds := DomainSpec{
			Name:        d.Name,
			Source:      sourceBuiltin,
			Category:    d.Category,
			Description: d.Description,
			Commands:    commandSpecs(d.Commands),
		}
		if m, ok := rt.Extensions.MergedDomain(name); ok {
			ds.Source = m.Source.String()
		}
		if d.Default != nil {
			ds.Default = d.Default.Name
		}
		groups := make([]string, 0, len(d.Groups))
		for g := range d.Groups {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		for _, g := range groups {
			group := d.Groups[g]
			ds.Subcommands = append(ds.Subcommands, GroupSpec{
				Name:        group.Name,
				Description: group.Description,
				Commands:    commandSpecs(group.Commands),
			})
		}
		spec.Domains = append(spec.Domains, ds)
	}
	return spec
}

func commandSpecs(commands map[string]*domains.Command) []CommandSpec {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]CommandSpec, 0, len(names))
	for _, n := range names {
		cmd := commands[n]
		out = append(out, CommandSpec{
			Name:        cmd.Name,
			Description: cmd.DescriptionShort,
			Usage:       cmd.Usage,
			Aliases:     cmd.Aliases,
		})
	}
	return out
}
