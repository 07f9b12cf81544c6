package executor

import (
	"sort"
	"sync"

	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/extensions"
)

// Provider exposes the merged domains to the command registry. Generated
// domains carry the resource actions; extensions add their own commands and
// groups on top.
type Provider struct {
	merger *extensions.Registry
	exec   *Executor

	mu    sync.Mutex
	built map[*extensions.MergedDomain]*domains.Domain
}

// NewProvider creates a provider over merger.
func NewProvider(merger *extensions.Registry, exec *Executor) *Provider {
	return &Provider{
		merger: merger,
		exec:   exec,
		built:  make(map[*extensions.MergedDomain]*domains.Domain),
	}
}

// Domain implements domains.Provider.
func (p *Provider) Domain(name string) (*domains.Domain, bool) {
	m, ok := p.merger.MergedDomain(name)
	if !ok {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	// The merger hands out a new view after each registration, which also
	// retires the domain built from the old one.
	if d, ok := p.built[m]; ok {
		return d, true
	}
	for old, d := range p.built {
		if d.Name == m.Name {
			delete(p.built, old)
		}
	}
	d := p.build(m)
	p.built[m] = d
	return d, true
}

// DomainNames implements domains.Provider.
func (p *Provider) DomainNames() []string {
	merged := p.merger.AllMergedDomains()
	names := make([]string, 0, len(merged))
	for _, m := range merged {
		names = append(names, m.Name)
	}
	return names
}

func (p *Provider) build(m *extensions.MergedDomain) *domains.Domain {
	d := domains.NewDomain(m.Name, m.Description, "")
	d.DisplayName = m.DisplayName
	if info := m.Metadata; info != nil {
		d.DescriptionShort = info.DescriptionShort
		d.DescriptionMedium = info.DescriptionMedium
		d.Category = info.Category
	} else {
		d.Category = "Extensions"
	}
	var commands []*domains.Command
	if m.HasGeneratedDomain && p.exec != nil {
		generated := p.exec.Commands(m.Name)
		for _, name := range sortedKeys(generated) {
			commands = append(commands, generated[name])
		}
	}
	for _, name := range sortedKeys(m.Commands) {
		commands = append(commands, m.Commands[name])
	}
	for _, cmd := range commands {
		if err := d.AddCommand(cmd); err != nil && p.exec != nil {
			p.exec.logger.Warn("skipping extension command", p.exec.logger.Args("error", err.Error()))
		}
	}
	for _, g := range m.Subcommands {
		d.AddGroup(g)
	}
	d.Default = m.Default
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
