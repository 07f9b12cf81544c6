package executor

import (
	"context"
	"strings"
	"time"

	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/config"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/output"
)

const completionTimeout = 2 * time.Second

// complete suggests resource types for the first argument and, for actions
// on an existing resource, names from a list call for the second.
func (e *Executor) complete(ctx context.Context, domain string, action Action, partial string, args []string, s domains.Session) []string {
	positional := positionalArgs(args)
	switch len(positional) {
	case 0:
		var out []string
		for _, rt := range e.catalog.ResourceTypes(domain) {
			if strings.HasPrefix(rt, strings.ToLower(partial)) {
				out = append(out, rt)
			}
		}
		return out
	case 1:
		if !action.requiresName() {
			return nil
		}
		rt, ok := e.catalog.ResolveResourceType(domain, positional[0])
		if !ok || s.Client() == nil {
			return nil
		}
		return e.completeNames(ctx, s.Client(), domain, rt, partial, s.Namespace())
	default:
		return nil
	}
}

func (e *Executor) completeNames(ctx context.Context, client *api.Client, domain, rt, partial, namespace string) []string {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	r := &request{domain: domain, action: ActionList, resourceType: rt, namespace: firstNonEmpty(namespace, config.DefaultNamespace)}
	zero := 0
	resp, err := client.Do(ctx, api.RequestOptions{Method: "GET", Path: e.path(r, "list"), MaxRetries: &zero})
	if err != nil {
		e.logger.Debug("name completion failed", e.logger.Args("resource", rt, "error", err.Error()))
		return nil
	}
	items, _ := output.Items(resp.Data)
	var out []string
	for _, item := range items {
		name, _ := item["name"].(string)
		if name == "" {
			if md, ok := item["metadata"].(map[string]any); ok {
				name, _ = md["name"].(string)
			}
		}
		if name != "" && strings.HasPrefix(name, partial) {
			out = append(out, name)
		}
	}
	return out
}

// positionalArgs drops flags and their values from the typed words.
func positionalArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			out = append(out, a)
			continue
		}
		switch a {
		case "-y", "--yes":
		default:
			if !strings.Contains(a, "=") {
				i++
			}
		}
	}
	return out
}
