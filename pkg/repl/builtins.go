package repl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/f5xc/xcsh/pkg/api"
	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/validation"
)

type builtin struct {
	name        string
	aliases     []string
	usage       string
	description string
	run         func(ctx context.Context, sh *Shell, args []string) domains.Result
}

// builtins is filled in init because runHelp lists it.
var builtins []*builtin

func init() {
	builtins = []*builtin{
		{name: "help", usage: "[domain]", description: "Show help", run: runHelp},
		{name: "exit", aliases: []string{"quit"}, description: "Leave the shell", run: runExit},
		{name: "clear", description: "Clear the screen", run: runClear},
		{name: "namespace", aliases: []string{"ns"}, usage: "[name]", description: "Show or change the current namespace", run: runNamespace},
		{name: "domains", description: "List available domains", run: runDomains},
		{name: "version", description: "Show the version", run: runVersion},
		{name: "refresh", description: "Re-validate the API token", run: runRefresh},
	}
}

func findBuiltin(word string) (*builtin, bool) {
	word = strings.ToLower(word)
	for _, b := range builtins {
		if b.name == word {
			return b, true
		}
		for _, a := range b.aliases {
			if a == word {
				return b, true
			}
		}
	}
	return nil, false
}

// BuiltinNames returns the names and aliases of the built-in commands.
func BuiltinNames() []string {
	var names []string
	for _, b := range builtins {
		names = append(names, b.name)
		names = append(names, b.aliases...)
	}
	sort.Strings(names)
	return names
}

func runHelp(ctx context.Context, sh *Shell, args []string) domains.Result {
	if len(args) > 0 {
		return sh.registry.Dispatch(ctx, []string{args[0], "help"}, sh.session)
	}
	if domain, _ := sh.session.Context(); domain != "" {
		return sh.registry.Dispatch(ctx, []string{domain, "help"}, sh.session)
	}

	lines := []string{
		"xcsh - F5 Distributed Cloud shell",
		"",
		"Usage: <domain> [group] <command> [flags] [args]",
		"",
		"Built-in commands:",
	}
	for _, b := range builtins {
		label := b.name
		if len(b.aliases) > 0 {
			label += ", " + strings.Join(b.aliases, ", ")
		}
		if b.usage != "" {
			label += " " + b.usage
		}
		lines = append(lines, fmt.Sprintf("  %-22s %s", label, b.description))
	}
	lines = append(lines, "", "Navigation:",
		fmt.Sprintf("  %-22s %s", "<domain>", "Enter a domain context"),
		fmt.Sprintf("  %-22s %s", "..", "Go up one level"),
		fmt.Sprintf("  %-22s %s", "/", "Return to the root context"),
		"", "Global flags:",
		fmt.Sprintf("  %-22s %s", "-o, --output <format>", "Output format (table, json, yaml, text)"),
		fmt.Sprintf("  %-22s %s", "-ns, --namespace <ns>", "Namespace for this command"),
		fmt.Sprintf("  %-22s %s", "--no-color", "Disable colors for this command"),
		"", "Run 'domains' to list domains or '<domain> help' for domain commands.")
	return domains.Ok(lines...)
}

func runExit(context.Context, *Shell, []string) domains.Result {
	return domains.Exit{Output: []string{"Goodbye!"}}
}

func runClear(context.Context, *Shell, []string) domains.Result {
	return domains.Clear{}
}

func runNamespace(_ context.Context, sh *Shell, args []string) domains.Result {
	if len(args) == 0 {
		return domains.Ok("Current namespace: " + sh.session.Namespace())
	}
	if len(args) > 1 {
		return domains.Fail(domains.KindUnexpectedArgs, "Usage: namespace [name]")
	}
	ns := args[0]
	if validation.IsSecurityViolation(ns) {
		return domains.Fail(domains.KindValidation, fmt.Sprintf("Error: Invalid namespace '%s'", validation.SanitizeName(ns)))
	}
	sh.session.SetNamespace(ns)
	return domains.Success{Output: []string{fmt.Sprintf("Switched to namespace '%s'", ns)}, ContextChanged: true}
}

func runDomains(_ context.Context, sh *Shell, _ []string) domains.Result {
	names := sh.registry.Names()
	lines := []string{fmt.Sprintf("Available domains (%d):", len(names)), ""}
	for _, name := range names {
		d, ok := sh.registry.Lookup(name)
		if !ok {
			continue
		}
		desc := d.DescriptionShort
		if desc == "" {
			desc = d.Description
		}
		lines = append(lines, fmt.Sprintf("  %-28s %s", name, desc))
	}
	return domains.Ok(lines...)
}

func runVersion(_ context.Context, sh *Shell, _ []string) domains.Result {
	return domains.Ok("xcsh version " + sh.version)
}

func runRefresh(ctx context.Context, sh *Shell, _ []string) domains.Result {
	client := sh.session.Client()
	if client == nil {
		return domains.Fail(domains.KindExecution, "Error: Not connected. Run 'login profile use <name>' first.")
	}
	client.ClearValidationCache()
	result := client.ValidateToken(ctx, api.ValidateOptions{})
	if !result.Valid {
		return domains.Fail(domains.KindExecution, "Error: "+result.Error)
	}
	return domains.Success{Output: []string{"Token valid for " + client.ServerURL()}, ContextChanged: true}
}
