package executor

import (
	"context"
	"fmt"

	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/output"
)

// labels reads the resource, changes metadata.labels and writes the whole
// object back with a replace.
func (e *Executor) labels(ctx context.Context, client *api.Client, r *request, pairs []string) domains.Result {
	adding := r.action == ActionAddLabels
	changes, err := parseLabels(pairs, adding)
	if err != nil {
		return domains.Fail(domains.KindValidation, fmt.Sprintf("Error: %v\nUsage: %s", err, usageFor(r.domain, r.action)))
	}

	resp, err := client.Get(ctx, e.path(r, "get"), nil)
	if err != nil {
		return e.failure(r, "get", err)
	}
	obj, ok := resp.Data.(map[string]any)
	if !ok {
		return domains.Fail(domains.KindExecution, fmt.Sprintf("Error: unexpected response for %s '%s'", r.resourceType, r.name))
	}

	md := metadata(obj)
	current, _ := md["labels"].(map[string]any)
	if current == nil {
		current = map[string]any{}
	}
	changed := 0
	for key, value := range changes {
		if adding {
			if old, exists := current[key]; !exists || old != value {
				changed++
			}
			current[key] = value
			continue
		}
		if _, exists := current[key]; exists {
			delete(current, key)
			changed++
		}
	}
	if changed == 0 {
		return domains.Ok(fmt.Sprintf("%s '%s' unchanged", r.resourceType, r.name))
	}
	md["labels"] = current

	body := map[string]any{"metadata": md}
	if spec, ok := obj["spec"]; ok {
		body["spec"] = spec
	}
	if _, err := client.Put(ctx, e.path(r, "replace"), body); err != nil {
		return e.failure(r, "replace", err)
	}
	return domains.Ok(output.Labeled(r.resourceType, r.name, changed))
}
