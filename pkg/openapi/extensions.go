package openapi

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// DomainExtensions holds the document-level CLI metadata.
type DomainExtensions struct {
	Name              string
	Title             string
	Description       string
	DescriptionShort  string
	DescriptionMedium string
	Category          string
	RequiresTier      string
	IsPreview         bool
	Complexity        string
	UseCases          []string
	RelatedDomains    []string
	PrimaryResources  []PrimaryResource
}

// PrimaryResource describes one resource type of a domain.
type PrimaryResource struct {
	Name             string
	Description      string
	DescriptionShort string
	Tier             string
	Category         string
	Dependencies     []string
}

// OperationMetadata is the x-ves-operation-metadata extension.
type OperationMetadata struct {
	Purpose              string
	DangerLevel          string
	ConfirmationRequired *bool
	SideEffects          SideEffects
	RequiredFields       []string
	CommonErrors         []CommonError
}

// SideEffects lists resources an operation creates, updates or deletes.
type SideEffects struct {
	Creates []string
	Updates []string
	Deletes []string
}

// CommonError is a documented failure and its remedy.
type CommonError struct {
	Code     int
	Message  string
	Solution string
}

// ParseDomainExtensions reads the document-level extensions. A document
// without x-ves-cli-domain is named after its title.
func ParseDomainExtensions(spec *openapi3.T) (*DomainExtensions, error) {
	if spec == nil || spec.Info == nil {
		return nil, fmt.Errorf("spec has no info section")
	}
	info := spec.Info
	ext := info.Extensions

	d := &DomainExtensions{
		Title:             info.Title,
		Description:       info.Description,
		DescriptionShort:  stringExt(ext, "x-f5xc-description-short"),
		DescriptionMedium: stringExt(ext, "x-f5xc-description-medium"),
		Category:          stringExt(ext, "x-f5xc-category"),
		RequiresTier:      stringExt(ext, "x-f5xc-requires-tier"),
		Complexity:        stringExt(ext, "x-f5xc-complexity"),
		UseCases:          stringSlice(ext["x-f5xc-use-cases"]),
		RelatedDomains:    stringSlice(ext["x-f5xc-related-domains"]),
	}
	if preview, ok := ext["x-f5xc-is-preview"].(bool); ok {
		d.IsPreview = preview
	}

	d.Name = stringExt(ext, "x-ves-cli-domain")
	if d.Name == "" {
		d.Name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(info.Title)), " ", "_")
	}
	if d.Name == "" {
		return nil, fmt.Errorf("spec has neither x-ves-cli-domain nor a title")
	}

	if resources, ok := ext["x-f5xc-primary-resources"].([]interface{}); ok {
		for _, r := range resources {
			m, ok := r.(map[string]interface{})
			if !ok {
				continue
			}
			pr := PrimaryResource{
				Name:             stringExt(m, "name"),
				Description:      stringExt(m, "description"),
				DescriptionShort: stringExt(m, "description_short"),
				Tier:             stringExt(m, "tier"),
				Category:         stringExt(m, "category"),
			}
			if deps, ok := m["dependencies"].(map[string]interface{}); ok {
				pr.Dependencies = stringSlice(deps["required"])
			}
			if pr.Name != "" {
				d.PrimaryResources = append(d.PrimaryResources, pr)
			}
		}
	}
	return d, nil
}

// parseOperationExtensions fills the x-ves-* metadata of an operation. The
// top-level danger level wins over the one inside the metadata block.
func parseOperationExtensions(op *openapi3.Operation, out *Operation) {
	ext := op.Extensions

	if md, ok := ext["x-ves-operation-metadata"].(map[string]interface{}); ok {
		meta := &OperationMetadata{
			Purpose:        stringExt(md, "purpose"),
			DangerLevel:    stringExt(md, "danger_level"),
			RequiredFields: stringSlice(md["required_fields"]),
		}
		if confirm, ok := md["confirmation_required"].(bool); ok {
			meta.ConfirmationRequired = &confirm
		}
		if se, ok := md["side_effects"].(map[string]interface{}); ok {
			meta.SideEffects = SideEffects{
				Creates: stringSlice(se["creates"]),
				Updates: stringSlice(se["updates"]),
				Deletes: stringSlice(se["deletes"]),
			}
		}
		if errs, ok := md["common_errors"].([]interface{}); ok {
			for _, e := range errs {
				em, ok := e.(map[string]interface{})
				if !ok {
					continue
				}
				ce := CommonError{
					Message:  stringExt(em, "message"),
					Solution: stringExt(em, "solution"),
				}
				if code, ok := em["code"].(float64); ok {
					ce.Code = int(code)
				}
				meta.CommonErrors = append(meta.CommonErrors, ce)
			}
		}
		out.Metadata = meta
		out.DangerLevel = meta.DangerLevel
	}

	if level := stringExt(ext, "x-ves-danger-level"); level != "" {
		out.DangerLevel = level
	}
	out.NamespaceScope = stringExt(ext, "x-ves-namespace-scope")
}

func stringExt(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
