// Package catalog holds the generated domain table and the operation
// metadata derived from the enriched API specifications.
//
// The catalog is built once at startup and never mutated afterwards.
package catalog

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/f5xc/xcsh/pkg/openapi"
	"github.com/f5xc/xcsh/pkg/validation"
)

//go:embed specs/*.yaml
var embeddedSpecs embed.FS

// ResourceInfo describes one resource type of a domain.
type ResourceInfo struct {
	Name             string   `json:"name" yaml:"name"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionShort string   `json:"description_short,omitempty" yaml:"description_short,omitempty"`
	Tier             string   `json:"tier,omitempty" yaml:"tier,omitempty"`
	Dependencies     []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// DomainInfo is one entry of the generated domain table.
type DomainInfo struct {
	Name              string         `json:"name" yaml:"name"`
	DisplayName       string         `json:"display_name" yaml:"display_name"`
	Description       string         `json:"description" yaml:"description"`
	DescriptionShort  string         `json:"description_short,omitempty" yaml:"description_short,omitempty"`
	DescriptionMedium string         `json:"description_medium,omitempty" yaml:"description_medium,omitempty"`
	Category          string         `json:"category" yaml:"category"`
	RequiresTier      string         `json:"requires_tier,omitempty" yaml:"requires_tier,omitempty"`
	IsPreview         bool           `json:"is_preview,omitempty" yaml:"is_preview,omitempty"`
	PrimaryResources  []ResourceInfo `json:"primary_resources,omitempty" yaml:"primary_resources,omitempty"`
}

// Catalog is the read-only domain table with its operation index.
type Catalog struct {
	domains    map[string]*DomainInfo
	operations map[string][]*openapi.Operation
}

// LoadOptions controls where specifications are read from.
type LoadOptions struct {
	// SpecDir adds every *.yaml, *.yml and *.json file in the directory.
	SpecDir string
	// SkipEmbedded leaves out the specifications compiled into the binary.
	SkipEmbedded bool
}

// Load parses the embedded specifications plus any in opts.SpecDir.
func Load(ctx context.Context, opts *LoadOptions) (*Catalog, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}
	parser := openapi.NewParser()
	parser.DisableValidation = true

	var specs []*openapi.ParsedSpec
	if !opts.SkipEmbedded {
		entries, err := fs.ReadDir(embeddedSpecs, "specs")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded specs: %w", err)
		}
		for _, e := range entries {
			data, err := embeddedSpecs.ReadFile("specs/" + e.Name())
			if err != nil {
				return nil, fmt.Errorf("failed to read embedded spec %s: %w", e.Name(), err)
			}
			spec, err := parser.Parse(ctx, data)
			if err != nil {
				return nil, fmt.Errorf("failed to parse embedded spec %s: %w", e.Name(), err)
			}
			specs = append(specs, spec)
		}
	}

	if opts.SpecDir != "" {
		entries, err := os.ReadDir(opts.SpecDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec directory: %w", err)
		}
		for _, e := range entries {
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".yaml", ".yml", ".json":
			default:
				continue
			}
			spec, err := parser.ParseFile(ctx, filepath.Join(opts.SpecDir, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("failed to parse spec %s: %w", e.Name(), err)
			}
			specs = append(specs, spec)
		}
	}

	return New(specs...), nil
}

// New builds a catalog from parsed specifications. Specifications sharing a
// domain name are combined; the first one supplies the descriptions.
func New(specs ...*openapi.ParsedSpec) *Catalog {
	c := &Catalog{
		domains:    make(map[string]*DomainInfo),
		operations: make(map[string][]*openapi.Operation),
	}
	for _, spec := range specs {
		if spec == nil || spec.Domain == nil {
			continue
		}
		d := spec.Domain
		if _, ok := c.domains[d.Name]; !ok {
			info := &DomainInfo{
				Name:              d.Name,
				DisplayName:       ToDisplayName(d.Name),
				Description:       d.Description,
				DescriptionShort:  d.DescriptionShort,
				DescriptionMedium: d.DescriptionMedium,
				Category:          d.Category,
				RequiresTier:      d.RequiresTier,
				IsPreview:         d.IsPreview,
			}
			if info.Category == "" {
				info.Category = "Other"
			}
			c.domains[d.Name] = info
		}
		info := c.domains[d.Name]
		for _, r := range d.PrimaryResources {
			info.PrimaryResources = append(info.PrimaryResources, ResourceInfo{
				Name:             r.Name,
				Description:      r.Description,
				DescriptionShort: r.DescriptionShort,
				Tier:             r.Tier,
				Dependencies:     r.Dependencies,
			})
		}
		c.operations[d.Name] = append(c.operations[d.Name], spec.GetOperations()...)
	}
	return c
}

// ToDisplayName turns snake_case into Title Case.
func ToDisplayName(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Domain returns the entry for name.
func (c *Catalog) Domain(name string) (*DomainInfo, bool) {
	d, ok := c.domains[name]
	return d, ok
}

// Names returns every domain name, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.domains))
	for n := range c.domains {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Operations returns the operations of a domain in path order.
func (c *Catalog) Operations(domain string) []*openapi.Operation {
	return c.operations[domain]
}

// ResourceTypes returns the sorted resource types a domain operates on.
func (c *Catalog) ResourceTypes(domain string) []string {
	seen := map[string]bool{}
	for _, op := range c.operations[domain] {
		seen[op.ResourceType] = true
	}
	if d, ok := c.domains[domain]; ok {
		for _, r := range d.PrimaryResources {
			seen[r.Name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for rt := range seen {
		out = append(out, rt)
	}
	sort.Strings(out)
	return out
}

// ResolveResourceType maps user input such as "http-loadbalancers" to the
// canonical resource type of a domain.
func (c *Catalog) ResolveResourceType(domain, input string) (string, bool) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(input)), "-", "_")
	if norm == "" {
		return "", false
	}
	candidates := []string{norm, openapi.Singularize(norm)}
	for _, rt := range c.ResourceTypes(domain) {
		for _, cand := range candidates {
			if rt == cand {
				return rt, true
			}
		}
	}
	return "", false
}

// FindOperation returns the operation for (domain, action, resourceType).
// An empty resourceType selects the first operation for the action.
func (c *Catalog) FindOperation(domain, action, resourceType string) (*openapi.Operation, bool) {
	for _, op := range c.operations[domain] {
		if op.Action != action {
			continue
		}
		if resourceType == "" || op.ResourceType == resourceType {
			return op, true
		}
	}
	return nil, false
}

// Describe implements validation.MetadataSource.
func (c *Catalog) Describe(domain, action, resourceType string) (*validation.OperationInfo, bool) {
	op, ok := c.FindOperation(domain, action, resourceType)
	if !ok {
		return nil, false
	}
	info := &validation.OperationInfo{
		Domain:         domain,
		Action:         op.Action,
		ResourceType:   op.ResourceType,
		Method:         op.Method,
		Path:           op.Path,
		Summary:        op.Summary,
		DangerLevel:    validation.ParseDangerLevel(op.DangerLevel),
		NamespaceScope: validation.ParseScope(op.NamespaceScope),
	}
	if md := op.Metadata; md != nil {
		info.Purpose = md.Purpose
		info.ConfirmationRequired = md.ConfirmationRequired
		info.SideEffects = validation.SideEffects{
			Creates: md.SideEffects.Creates,
			Updates: md.SideEffects.Updates,
			Deletes: md.SideEffects.Deletes,
		}
	}
	return info, true
}

// SolutionFor returns the documented remedy for a status code, if any.
func (c *Catalog) SolutionFor(domain, action, resourceType string, status int) string {
	op, ok := c.FindOperation(domain, action, resourceType)
	if !ok || op.Metadata == nil {
		return ""
	}
	for _, e := range op.Metadata.CommonErrors {
		if e.Code == status {
			return e.Solution
		}
	}
	return ""
}
