package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/f5xc/xcsh/pkg/config"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/extensions"
	"github.com/f5xc/xcsh/pkg/output"
	"github.com/f5xc/xcsh/pkg/progress"
)

var overviewColumns = []output.Column{
	{Header: "RESOURCE TYPE", Field: "resource_type"},
	{Header: "COUNT", Field: "count"},
}

// NewOverviewExtension returns an extension for domain whose "overview"
// command counts the objects of every listable resource type in the current
// namespace.
func NewOverviewExtension(exec *Executor, domain string) *extensions.Extension {
	cmd := &domains.Command{
		Name:             "overview",
		Aliases:          []string{"summary"},
		Description:      "Count the objects of every resource type of the domain in the current namespace.",
		DescriptionShort: "Object counts per resource type",
		Execute: func(ctx context.Context, _ []string, s domains.Session) domains.Result {
			return exec.overview(ctx, domain, s)
		},
	}
	return &extensions.Extension{
		TargetDomain: domain,
		Description:  "Domain overview",
		Commands:     map[string]*domains.Command{cmd.Name: cmd},
	}
}

func (e *Executor) overview(ctx context.Context, domain string, s domains.Session) domains.Result {
	client := s.Client()
	if client == nil {
		return domains.Fail(domains.KindValidation, "Error: Not connected. Run 'login profile use <name>' first.")
	}
	format, err := output.ParseFormat(s.OutputFormat())
	if err != nil {
		return domains.Fail(domains.KindValidation, "Error: "+err.Error())
	}

	var types []string
	for _, rt := range e.catalog.ResourceTypes(domain) {
		if _, ok := e.catalog.FindOperation(domain, "list", rt); ok {
			types = append(types, rt)
		}
	}
	if len(types) == 0 {
		return domains.Ok(fmt.Sprintf("No listable resource types in domain '%s'.", domain))
	}

	namespace := firstNonEmpty(s.Namespace(), config.DefaultNamespace)
	cfg := *e.progress
	cfg.Type = progress.TypeBar
	cfg.Enabled = cfg.Enabled && s.Interactive() && format == output.FormatTable
	bar := progress.New(&cfg, len(types))
	_ = bar.Start(fmt.Sprintf("Counting %s resources", domain))
	defer func() { _ = bar.Stop() }()

	rows := make([]any, 0, len(types))
	var failed []string
	for _, rt := range types {
		r := &request{domain: domain, action: ActionList, resourceType: rt, namespace: namespace}
		_ = bar.Update(rt)
		count := "-"
		resp, err := client.Get(ctx, e.path(r, "list"), nil)
		if err != nil {
			if ctx.Err() != nil {
				return domains.Fail(domains.KindCancelled, "Operation cancelled.")
			}
			failed = append(failed, fmt.Sprintf("%s: %v", rt, err))
		} else {
			items, _ := output.Items(resp.Data)
			count = fmt.Sprint(len(items))
		}
		rows = append(rows, map[string]any{"resource_type": rt, "count": count})
		_ = bar.Increment()
	}
	_ = bar.Success(fmt.Sprintf("Counted %d resource types", len(types)))

	fc := *e.out.Config()
	fc.Columns = overviewColumns
	var b strings.Builder
	if err := e.out.FormatWithConfig(&b, map[string]any{"items": rows}, format, &fc); err != nil {
		return domains.FailErr(err)
	}
	table := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if format != output.FormatTable && format != output.FormatText {
		return domains.Ok(table...)
	}
	lines := append([]string{fmt.Sprintf("Namespace: %s", namespace), ""}, table...)
	if len(failed) > 0 {
		lines = append(lines, "", "Errors:")
		for _, f := range failed {
			lines = append(lines, "  "+f)
		}
	}
	return domains.Ok(lines...)
}
