package openapi

import (
	"context"
	"testing"
)

const enrichedSpec = `
openapi: 3.0.3
info:
  title: Virtual
  version: 1.0.0
  description: Load balancing and origin pools.
  x-ves-cli-domain: virtual
  x-f5xc-description-short: Load balancers and origins
  x-f5xc-category: Networking
  x-f5xc-primary-resources:
    - name: http_loadbalancer
      description_short: HTTP load balancer
      tier: Standard
      dependencies:
        required: [origin_pool]
    - description_short: missing name is skipped
paths:
  /api/config/namespaces/{metadata.namespace}/http_loadbalancers:
    get:
      operationId: list_lbs
      responses:
        "200":
          description: OK
    post:
      x-ves-namespace-scope: any
      x-ves-operation-metadata:
        purpose: Create a load balancer
        danger_level: medium
        side_effects:
          creates: [http_loadbalancer]
      responses:
        "200":
          description: OK
  /api/config/namespaces/{metadata.namespace}/http_loadbalancers/{name}:
    delete:
      x-ves-danger-level: high
      x-ves-operation-metadata:
        danger_level: medium
        confirmation_required: true
        side_effects:
          deletes: [http_loadbalancer, route]
        common_errors:
          - code: 409
            message: Referenced by another object
            solution: Remove references first
      responses:
        "200":
          description: OK
  /api/web/namespaces/{name}/policies:
    patch:
      responses:
        "200":
          description: OK
`

func TestParserDetectVersion(t *testing.T) {
	tests := []struct {
		name        string
		spec        string
		expected    SpecVersion
		expectError bool
	}{
		{name: "OpenAPI 3.0 JSON", spec: `{"openapi": "3.0.0", "info": {"title": "T", "version": "1"}}`, expected: SpecVersionOpenAPI3},
		{name: "OpenAPI 3.1 YAML", spec: "openapi: 3.1.0\ninfo:\n  title: T\n", expected: SpecVersionOpenAPI31},
		{name: "Swagger 2.0", spec: `{"swagger": "2.0"}`, expected: SpecVersionSwagger2},
		{name: "unsupported swagger", spec: `{"swagger": "1.2"}`, expectError: true},
		{name: "unsupported openapi", spec: `{"openapi": "4.0.0"}`, expectError: true},
		{name: "missing version", spec: `{"title": "Test"}`, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := detectVersion([]byte(tt.spec))
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if version != tt.expected {
				t.Errorf("version = %v, want %v", version, tt.expected)
			}
		})
	}
}

func TestParseEnrichedSpec(t *testing.T) {
	p := NewParser()
	p.DisableValidation = true
	spec, err := p.Parse(context.Background(), []byte(enrichedSpec))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	d := spec.Domain
	if d.Name != "virtual" || d.Category != "Networking" || d.DescriptionShort != "Load balancers and origins" {
		t.Errorf("unexpected domain extensions: %+v", d)
	}
	if len(d.PrimaryResources) != 1 || d.PrimaryResources[0].Name != "http_loadbalancer" {
		t.Fatalf("unexpected primary resources: %+v", d.PrimaryResources)
	}
	if deps := d.PrimaryResources[0].Dependencies; len(deps) != 1 || deps[0] != "origin_pool" {
		t.Errorf("dependencies = %v", deps)
	}

	ops := spec.GetOperations()
	if len(ops) != 4 {
		t.Fatalf("got %d operations, want 4", len(ops))
	}

	byKey := map[string]*Operation{}
	for _, op := range ops {
		byKey[op.Action+" "+op.ResourceType] = op
	}

	list := byKey["list http_loadbalancer"]
	if list == nil || list.Method != "GET" || list.OperationID != "list_lbs" {
		t.Errorf("list operation = %+v", list)
	}

	create := byKey["create http_loadbalancer"]
	if create == nil || create.DangerLevel != "medium" || create.NamespaceScope != "any" {
		t.Fatalf("create operation = %+v", create)
	}
	if create.Metadata.Purpose != "Create a load balancer" || create.Metadata.ConfirmationRequired != nil {
		t.Errorf("create metadata = %+v", create.Metadata)
	}

	del := byKey["delete http_loadbalancer"]
	if del == nil || del.DangerLevel != "high" {
		t.Fatalf("top-level danger level should win, got %+v", del)
	}
	if del.Metadata.ConfirmationRequired == nil || !*del.Metadata.ConfirmationRequired {
		t.Error("confirmation_required not parsed")
	}
	if len(del.Metadata.SideEffects.Deletes) != 2 {
		t.Errorf("side effects = %+v", del.Metadata.SideEffects)
	}
	if len(del.Metadata.CommonErrors) != 1 || del.Metadata.CommonErrors[0].Code != 409 {
		t.Errorf("common errors = %+v", del.Metadata.CommonErrors)
	}

	if patch := byKey["update policy"]; patch == nil || patch.Method != "PATCH" {
		t.Errorf("patch operation = %+v", patch)
	}
}

func TestParseDomainNameFallback(t *testing.T) {
	doc := "openapi: 3.0.3\ninfo:\n  title: Tenant Management\n  version: '1'\npaths: {}\n"
	p := NewParser()
	p.DisableValidation = true
	spec, err := p.Parse(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if spec.Domain.Name != "tenant_management" {
		t.Errorf("Name = %q, want tenant_management", spec.Domain.Name)
	}
}

func TestParseSwagger2(t *testing.T) {
	doc := `{
		"swagger": "2.0",
		"info": {"title": "DNS", "version": "1", "x-ves-cli-domain": "dns"},
		"paths": {
			"/api/config/dns/namespaces/{metadata.namespace}/dns_zones/{name}": {
				"delete": {
					"x-ves-danger-level": "high",
					"parameters": [
						{"name": "metadata.namespace", "in": "path", "required": true, "type": "string"},
						{"name": "name", "in": "path", "required": true, "type": "string"}
					],
					"responses": {"200": {"description": "OK"}}
				}
			}
		}
	}`
	p := NewParser()
	p.DisableValidation = true
	spec, err := p.Parse(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if spec.OriginalVersion != SpecVersionSwagger2 || spec.Domain.Name != "dns" {
		t.Errorf("unexpected spec: version %v domain %+v", spec.OriginalVersion, spec.Domain)
	}
	ops := spec.GetOperations()
	if len(ops) != 1 || ops[0].Action != "delete" || ops[0].ResourceType != "dns_zone" || ops[0].DangerLevel != "high" {
		t.Errorf("operations = %+v", ops)
	}
}

func TestMapToAction(t *testing.T) {
	tests := []struct {
		method, path, want string
	}{
		{"post", "/api/x/items", "create"},
		{"get", "/api/x/items", "list"},
		{"GET", "/api/x/items/{name}", "get"},
		{"get", "/api/x/items/{metadata.name}", "get"},
		{"put", "/api/x/items/{name}", "replace"},
		{"delete", "/api/x/items/{name}", "delete"},
		{"patch", "/api/x/items/{name}", "update"},
		{"head", "/api/x", "head"},
	}
	for _, tt := range tests {
		if got := MapToAction(tt.method, tt.path); got != tt.want {
			t.Errorf("MapToAction(%q, %q) = %q, want %q", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestExtractResourceType(t *testing.T) {
	tests := map[string]string{
		"/api/config/namespaces/{ns}/http_loadbalancers":        "http_loadbalancer",
		"/api/config/namespaces/{ns}/http_loadbalancers/{name}": "http_loadbalancer",
		"/api/config/namespaces/{ns}/service_policies":          "service_policy",
		"/api/config/namespaces/{ns}/address":                   "address",
		"/api/web/namespaces":                                   "namespace",
		"/{name}":                                               "resource",
	}
	for path, want := range tests {
		if got := ExtractResourceType(path); got != want {
			t.Errorf("ExtractResourceType(%q) = %q, want %q", path, got, want)
		}
	}
}
