// Package executor runs the canonical resource actions of the generated API
// domains.
//
// Every generated domain gets the same commands:
//
//	<domain> list|get|create|delete|replace|apply|status|patch|add-labels|remove-labels
//	    <resource-type> [name] [flags]
//
// # Execution Flow
//
//  1. Parse the action flags and positional arguments
//  2. Resolve the resource type and namespace
//  3. Run the preflight gates: name, namespace scope, safety
//  4. Ask for confirmation when the operation is dangerous
//  5. Send the request through the retrying API client
//  6. Render the response in the session output format
//
// Request paths come from the catalog's path templates. Resource types the
// catalog knows nothing about use /api/<domain>/namespaces/<ns>/<plural>.
package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/catalog"
	"github.com/f5xc/xcsh/pkg/config"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/output"
	"github.com/f5xc/xcsh/pkg/progress"
	"github.com/f5xc/xcsh/pkg/validation"
)

// Usage is the argument pattern of every resource action.
const Usage = "<resource-type> [name] [flags]"

// Executor executes resource actions against the API.
type Executor struct {
	catalog  *catalog.Catalog
	out      *output.Manager
	progress *progress.Config
	confirm  Confirmer
	safety   *validation.SafetyChecker
	scope    *validation.NamespaceScopeValidator
	stdin    io.Reader
	errOut   io.Writer
	logger   *pterm.Logger
}

// Config configures the executor.
type Config struct {
	Catalog *catalog.Catalog
	Output  *output.Manager
	// Progress configures the spinner shown during requests. Nil disables it.
	Progress *progress.Config
	// Confirm asks before dangerous operations. Nil uses PromptConfirm.
	Confirm Confirmer
	// Stdin is read for "--file -".
	Stdin io.Reader
	// ErrOut receives safety warnings. Nil means stderr.
	ErrOut io.Writer
	Logger *pterm.Logger
}

// NewExecutor creates an executor.
func NewExecutor(config *Config) (*Executor, error) {
	if config == nil {
		return nil, fmt.Errorf("executor config is required")
	}
	if config.Catalog == nil {
		return nil, fmt.Errorf("executor requires a catalog")
	}
	e := &Executor{
		catalog:  config.Catalog,
		out:      config.Output,
		progress: config.Progress,
		confirm:  config.Confirm,
		safety:   validation.NewSafetyChecker(config.Catalog),
		scope:    validation.NewNamespaceScopeValidator(config.Catalog),
		stdin:    config.Stdin,
		errOut:   config.ErrOut,
		logger:   config.Logger,
	}
	if e.out == nil {
		e.out = output.NewManager()
	}
	if e.progress == nil {
		e.progress = &progress.Config{Type: progress.TypeNone}
	}
	if e.confirm == nil {
		e.confirm = PromptConfirm
	}
	if e.stdin == nil {
		e.stdin = os.Stdin
	}
	if e.errOut == nil {
		e.errOut = os.Stderr
	}
	if e.logger == nil {
		e.logger = pterm.DefaultLogger.WithWriter(io.Discard)
	}
	return e, nil
}

// Catalog returns the catalog the executor resolves operations from.
func (e *Executor) Catalog() *catalog.Catalog {
	return e.catalog
}

// Commands returns the resource action commands of a generated domain.
func (e *Executor) Commands(domain string) map[string]*domains.Command {
	cmds := make(map[string]*domains.Command, len(Actions))
	for _, a := range Actions {
		action := a
		long, short := action.description()
		cmds[action.String()] = &domains.Command{
			Name:             action.String(),
			Description:      long,
			DescriptionShort: short,
			Usage:            Usage,
			Execute: func(ctx context.Context, args []string, s domains.Session) domains.Result {
				return e.Run(ctx, domain, action, args, s)
			},
			Complete: func(ctx context.Context, partial string, args []string, s domains.Session) []string {
				return e.complete(ctx, domain, action, partial, args, s)
			},
		}
	}
	return cmds
}

func usageFor(domain string, a Action) string {
	return fmt.Sprintf("%s %s %s", domain, a, Usage)
}

// Run executes one resource action.
func (e *Executor) Run(ctx context.Context, domain string, action Action, args []string, s domains.Session) domains.Result {
	opts, err := parseOptions(action, args)
	if err != nil {
		return domains.Fail(domains.KindValidation, fmt.Sprintf("Error: %v\nUsage: %s", err, usageFor(domain, action)))
	}
	if opts.resourceType == "" {
		return e.missingResourceType(domain, action)
	}
	rt, ok := e.catalog.ResolveResourceType(domain, opts.resourceType)
	if !ok {
		return e.unknownResourceType(domain, opts.resourceType)
	}

	client := s.Client()
	if client == nil {
		return domains.Fail(domains.KindValidation, "Error: Not connected. Run 'login profile use <name>' first.")
	}

	r := &request{
		domain:       domain,
		action:       action,
		resourceType: rt,
		name:         opts.name,
		namespace:    firstNonEmpty(opts.namespace, s.Namespace(), config.DefaultNamespace),
		yes:          opts.yes,
	}

	var body map[string]any
	if action.takesBody() {
		if opts.file == "" {
			return domains.Fail(domains.KindValidation, fmt.Sprintf("Error: --file is required\nUsage: %s", usageFor(domain, action)))
		}
		body, err = readBody(opts.file, e.stdin)
		if err != nil {
			return domains.Fail(domains.KindValidation, "Error: "+err.Error())
		}
		r.name, r.namespace, err = prepareBody(body, r.name, r.namespace, opts.namespace != "")
		if err != nil {
			return domains.Fail(domains.KindValidation, "Error: "+err.Error())
		}
	}
	if action.requiresName() && r.name == "" {
		return domains.Fail(domains.KindValidation, fmt.Sprintf("Error: Resource name is required.\nUsage: %s", usageFor(domain, action)))
	}
	if action == ActionList && r.name != "" {
		return domains.Fail(domains.KindUnexpectedArgs, fmt.Sprintf("Error: Unexpected arguments: %s\nUsage: %s", r.name, usageFor(domain, action)))
	}

	if res := e.preflight(r, s); res != nil {
		return res
	}

	format, err := output.ParseFormat(s.OutputFormat())
	if err != nil {
		return domains.Fail(domains.KindValidation, "Error: "+err.Error())
	}

	e.logger.Debug("executing action", e.logger.Args(
		"domain", domain, "action", action.String(), "resource", rt, "name", r.name, "namespace", r.namespace))

	return progress.Track(e.indicator(s, format), fmt.Sprintf("Running %s %s...", action, rt), func() domains.Result {
		switch action {
		case ActionList:
			return e.list(ctx, client, r, opts.filter, format)
		case ActionGet:
			return e.get(ctx, client, r, format)
		case ActionStatus:
			return e.status(ctx, client, r, format)
		case ActionCreate:
			return e.create(ctx, client, r, body, format)
		case ActionReplace:
			return e.replace(ctx, client, r, body, format)
		case ActionApply:
			return e.apply(ctx, client, r, body, format)
		case ActionPatch:
			return e.patch(ctx, client, r, body, format)
		case ActionDelete:
			return e.delete(ctx, client, r)
		case ActionAddLabels, ActionRemoveLabels:
			return e.labels(ctx, client, r, opts.labels)
		}
		return domains.Fail(domains.KindUnknownCommand, fmt.Sprintf("Unknown action: %s", action))
	})
}

func (e *Executor) indicator(s domains.Session, format output.Format) progress.Indicator {
	cfg := *e.progress
	cfg.Enabled = cfg.Enabled && s.Interactive() && (format == output.FormatTable || format == output.FormatText)
	return progress.New(&cfg, 0)
}

func (e *Executor) warn(msg string) {
	pterm.Warning.WithWriter(e.errOut).Println(msg)
}

func (e *Executor) missingResourceType(domain string, action Action) domains.Result {
	out := []string{
		"Error: Resource type is required.",
		"Usage: " + usageFor(domain, action),
	}
	if types := e.catalog.ResourceTypes(domain); len(types) > 0 {
		out = append(out, "", "Resource types: "+strings.Join(types, ", "))
	}
	return domains.Failure{Output: out, Kind: domains.KindValidation, Message: "Resource type is required"}
}

func (e *Executor) unknownResourceType(domain, input string) domains.Result {
	out := []string{fmt.Sprintf("Error: Unknown resource type '%s' in domain '%s'.", input, domain)}
	if types := e.catalog.ResourceTypes(domain); len(types) > 0 {
		out = append(out, "", "Resource types: "+strings.Join(types, ", "))
	}
	return domains.Failure{Output: out, Kind: domains.KindValidation, Message: "Unknown resource type: " + input}
}

// path builds the request path for a catalog action. Placeholders for the
// namespace and name are filled from r.
func (e *Executor) path(r *request, op string) string {
	if o, ok := e.catalog.FindOperation(r.domain, op, r.resourceType); ok {
		p := o.Path
		for _, ph := range []string{"{namespace}", "{metadata.namespace}"} {
			p = strings.ReplaceAll(p, ph, url.PathEscape(r.namespace))
		}
		for _, ph := range []string{"{name}", "{metadata.name}"} {
			p = strings.ReplaceAll(p, ph, url.PathEscape(r.name))
		}
		return p
	}

	p := "/api/" + r.domain
	if r.namespace != "" {
		p += "/namespaces/" + url.PathEscape(r.namespace)
	}
	p += "/" + pluralize(r.resourceType)
	if op != "list" && op != "create" {
		p += "/" + url.PathEscape(r.name)
	}
	return p
}

func pluralize(s string) string {
	switch {
	case strings.HasSuffix(s, "y") && !strings.HasSuffix(s, "ay") && !strings.HasSuffix(s, "ey"):
		return strings.TrimSuffix(s, "y") + "ies"
	case strings.HasSuffix(s, "s"):
		return s + "es"
	default:
		return s + "s"
	}
}

// failure converts a request error into a Failure, adding the documented
// remedy for the status code when the catalog has one.
func (e *Executor) failure(r *request, op string, err error) domains.Result {
	out := []string{"Error: " + err.Error()}
	if apiErr, ok := api.AsAPIError(err); ok {
		out = []string{fmt.Sprintf("Error: %s", apiErr.Message)}
		if apiErr.StatusCode != 0 {
			out[0] = fmt.Sprintf("Error: %s (HTTP %d)", apiErr.Message, apiErr.StatusCode)
		}
		if hint := e.catalog.SolutionFor(r.domain, op, r.resourceType, apiErr.StatusCode); hint != "" {
			out = append(out, "Hint: "+hint)
		}
	}
	return domains.Failure{Output: out, Kind: domains.KindExecution, Message: err.Error(), Err: err}
}

func isNotFound(err error) bool {
	apiErr, ok := api.AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

func (e *Executor) render(data any, format output.Format) domains.Result {
	lines, err := e.out.Lines(data, format)
	if err != nil {
		return domains.FailErr(err)
	}
	return domains.Ok(lines...)
}

func (e *Executor) list(ctx context.Context, client *api.Client, r *request, filter string, format output.Format) domains.Result {
	var f *output.Filter
	if filter != "" {
		var err error
		if f, err = output.CompileFilter(filter); err != nil {
			return domains.Fail(domains.KindValidation, "Error: "+err.Error())
		}
	}
	resp, err := client.Get(ctx, e.path(r, "list"), nil)
	if err != nil {
		return e.failure(r, "list", err)
	}
	data := resp.Data
	if f != nil {
		if data, err = f.Apply(data); err != nil {
			return domains.Fail(domains.KindValidation, "Error: "+err.Error())
		}
	}
	return e.render(data, format)
}

func (e *Executor) get(ctx context.Context, client *api.Client, r *request, format output.Format) domains.Result {
	resp, err := client.Get(ctx, e.path(r, "get"), nil)
	if err != nil {
		return e.failure(r, "get", err)
	}
	return e.render(resp.Data, format)
}

func (e *Executor) status(ctx context.Context, client *api.Client, r *request, format output.Format) domains.Result {
	resp, err := client.Get(ctx, e.path(r, "get"), nil)
	if err != nil {
		return e.failure(r, "get", err)
	}
	obj, _ := resp.Data.(map[string]any)
	status, ok := obj["status"]
	if !ok || status == nil {
		return domains.Ok(fmt.Sprintf("No status reported for %s '%s'.", r.resourceType, r.name))
	}
	return e.render(status, format)
}

// message returns msg for the human formats and the response otherwise.
func (e *Executor) message(msg string, data any, format output.Format) domains.Result {
	if format == output.FormatJSON || format == output.FormatYAML {
		return e.render(data, format)
	}
	return domains.Ok(msg)
}

func (e *Executor) create(ctx context.Context, client *api.Client, r *request, body map[string]any, format output.Format) domains.Result {
	resp, err := client.Post(ctx, e.path(r, "create"), body)
	if err != nil {
		return e.failure(r, "create", err)
	}
	return e.message(output.Created(r.resourceType, r.name, r.namespace), resp.Data, format)
}

func (e *Executor) replace(ctx context.Context, client *api.Client, r *request, body map[string]any, format output.Format) domains.Result {
	resp, err := client.Put(ctx, e.path(r, "replace"), body)
	if err != nil {
		return e.failure(r, "replace", err)
	}
	return e.message(output.Replaced(r.resourceType, r.name, r.namespace), resp.Data, format)
}

// apply creates the resource when a GET reports 404 and replaces it
// otherwise.
func (e *Executor) apply(ctx context.Context, client *api.Client, r *request, body map[string]any, format output.Format) domains.Result {
	_, err := client.Get(ctx, e.path(r, "get"), nil)
	switch {
	case err == nil:
		return e.replace(ctx, client, r, body, format)
	case isNotFound(err):
		return e.create(ctx, client, r, body, format)
	default:
		return e.failure(r, "get", err)
	}
}

func (e *Executor) patch(ctx context.Context, client *api.Client, r *request, body map[string]any, format output.Format) domains.Result {
	resp, err := client.Patch(ctx, e.path(r, "update"), body)
	if err != nil {
		return e.failure(r, "update", err)
	}
	return e.message(output.Patched(r.resourceType, r.name, r.namespace), resp.Data, format)
}

func (e *Executor) delete(ctx context.Context, client *api.Client, r *request) domains.Result {
	if _, err := client.Delete(ctx, e.path(r, "delete")); err != nil {
		return e.failure(r, "delete", err)
	}
	return domains.Ok(output.Deleted(r.resourceType, r.name, r.namespace))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
