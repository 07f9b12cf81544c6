// Package openapi parses enriched Distributed Cloud API specifications.
//
// Upstream specifications are published as Swagger 2.0 or OpenAPI 3.x
// documents carrying vendor extensions that describe how each API group maps
// onto the CLI:
//
//   - info.x-ves-cli-domain: CLI domain name for the document
//   - info.x-f5xc-description-short / -medium: short descriptions
//   - info.x-f5xc-category, x-f5xc-requires-tier, x-f5xc-is-preview
//   - info.x-f5xc-primary-resources: per-resource metadata
//   - x-ves-danger-level: operation risk (low, medium, high)
//   - x-ves-namespace-scope: required namespace (system, shared, any)
//   - x-ves-operation-metadata: purpose, side effects, confirmation
//
// Swagger 2.0 documents are converted to OpenAPI 3.0 before extraction.
//
// Example:
//
//	parser := openapi.NewParser()
//	spec, err := parser.Parse(ctx, data)
//	if err != nil {
//	    return err
//	}
//	for _, op := range spec.GetOperations() {
//	    fmt.Println(op.Method, op.Path, op.Action, op.ResourceType)
//	}
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Parser parses OpenAPI 3.x and Swagger 2.0 documents.
type Parser struct {
	// DisableValidation skips document validation.
	DisableValidation bool
}

// NewParser creates a Parser with validation enabled.
func NewParser() *Parser {
	return &Parser{}
}

// SpecVersion is the source document format.
type SpecVersion string

const (
	SpecVersionSwagger2  SpecVersion = "2.0"
	SpecVersionOpenAPI3  SpecVersion = "3.0"
	SpecVersionOpenAPI31 SpecVersion = "3.1"
)

// ParsedSpec is a parsed document with its domain-level extensions.
type ParsedSpec struct {
	Spec            *openapi3.T
	OriginalVersion SpecVersion
	Domain          *DomainExtensions
}

// Parse parses a JSON or YAML document.
func (p *Parser) Parse(ctx context.Context, data []byte) (*ParsedSpec, error) {
	version, err := detectVersion(data)
	if err != nil {
		return nil, fmt.Errorf("failed to detect spec version: %w", err)
	}

	var spec *openapi3.T
	switch version {
	case SpecVersionSwagger2:
		spec, err = p.parseSwagger2(ctx, data)
	default:
		spec, err = p.parseOpenAPI3(ctx, data)
	}
	if err != nil {
		return nil, err
	}

	domain, err := ParseDomainExtensions(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse domain extensions: %w", err)
	}

	return &ParsedSpec{Spec: spec, OriginalVersion: version, Domain: domain}, nil
}

// ParseFile parses a document from disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*ParsedSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(ctx, data)
}

// detectVersion reads the swagger/openapi field. JSON is valid YAML so one
// decoder covers both encodings.
func detectVersion(data []byte) (SpecVersion, error) {
	var versionCheck struct {
		Swagger string `yaml:"swagger"`
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(data, &versionCheck); err != nil {
		return "", fmt.Errorf("failed to parse spec: %w", err)
	}

	switch {
	case versionCheck.Swagger != "":
		if strings.HasPrefix(versionCheck.Swagger, "2.") {
			return SpecVersionSwagger2, nil
		}
		return "", fmt.Errorf("unsupported swagger version: %s", versionCheck.Swagger)
	case strings.HasPrefix(versionCheck.OpenAPI, "3.0."):
		return SpecVersionOpenAPI3, nil
	case strings.HasPrefix(versionCheck.OpenAPI, "3.1."):
		return SpecVersionOpenAPI31, nil
	case versionCheck.OpenAPI != "":
		return "", fmt.Errorf("unsupported openapi version: %s", versionCheck.OpenAPI)
	}
	return "", fmt.Errorf("could not determine spec version (missing 'swagger' or 'openapi' field)")
}

func (p *Parser) parseSwagger2(ctx context.Context, data []byte) (*openapi3.T, error) {
	jsonData, err := toJSON(data)
	if err != nil {
		return nil, err
	}
	var spec2 openapi2.T
	if err := json.Unmarshal(jsonData, &spec2); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Swagger 2.0: %w", err)
	}

	spec3, err := openapi2conv.ToV3(&spec2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert Swagger 2.0 to OpenAPI 3.0: %w", err)
	}
	if !p.DisableValidation {
		if err := spec3.Validate(ctx); err != nil {
			return nil, fmt.Errorf("converted spec validation failed: %w", err)
		}
	}
	return spec3, nil
}

func (p *Parser) parseOpenAPI3(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI 3.x: %w", err)
	}
	if !p.DisableValidation {
		if err := spec.Validate(ctx); err != nil {
			return nil, fmt.Errorf("spec validation failed: %w", err)
		}
	}
	return spec, nil
}

func toJSON(data []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return data, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}
	return out, nil
}

// Operation is one path+method with its CLI mapping and metadata.
type Operation struct {
	Method       string
	Path         string
	OperationID  string
	Summary      string
	Description  string
	Action       string
	ResourceType string

	DangerLevel    string
	NamespaceScope string
	Metadata       *OperationMetadata
}

// GetOperations returns every operation sorted by path then method.
func (ps *ParsedSpec) GetOperations() []*Operation {
	var operations []*Operation
	if ps.Spec == nil || ps.Spec.Paths == nil {
		return nil
	}

	for path, item := range ps.Spec.Paths.Map() {
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			operation := &Operation{
				Method:       strings.ToUpper(method),
				Path:         path,
				OperationID:  op.OperationID,
				Summary:      op.Summary,
				Description:  op.Description,
				Action:       MapToAction(method, path),
				ResourceType: ExtractResourceType(path),
			}
			parseOperationExtensions(op, operation)
			operations = append(operations, operation)
		}
	}

	sort.Slice(operations, func(i, j int) bool {
		if operations[i].Path != operations[j].Path {
			return operations[i].Path < operations[j].Path
		}
		return operations[i].Method < operations[j].Method
	})
	return operations
}

// MapToAction maps an HTTP method and path template to a CLI action.
func MapToAction(method, path string) string {
	isItem := strings.Contains(path, "{name}") || strings.Contains(path, "{metadata.name}")
	switch strings.ToLower(method) {
	case "post":
		return "create"
	case "get":
		if isItem {
			return "get"
		}
		return "list"
	case "put":
		return "replace"
	case "delete":
		return "delete"
	case "patch":
		return "update"
	default:
		return strings.ToLower(method)
	}
}

// ExtractResourceType returns the singular resource type named by the last
// literal path segment.
func ExtractResourceType(path string) string {
	var last string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !strings.HasPrefix(seg, "{") {
			last = seg
		}
	}
	if last == "" {
		return "resource"
	}
	return Singularize(last)
}

// Singularize strips common English plural suffixes.
func Singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss"):
		return strings.TrimSuffix(s, "s")
	default:
		return s
	}
}
