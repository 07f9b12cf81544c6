package login

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/profile"
)

func (h *handlers) profileGroup() *domains.Group {
	g := domains.NewGroup("profile",
		"Create, inspect, activate, edit and delete connection profiles.",
		"Manage connection profiles")
	g.DescriptionMedium = "Profiles hold the API URL, token and default namespace of a tenant."

	g.AddCommand(&domains.Command{
		Name:             "list",
		Aliases:          []string{"ls"},
		Description:      "List all profiles. The active profile is marked.",
		DescriptionShort: "List profiles",
		Execute:          h.list,
	})
	g.AddCommand(&domains.Command{
		Name:             "show",
		Description:      "Show the settings of a profile. The token is masked.",
		DescriptionShort: "Show a profile",
		Usage:            "<name>",
		Execute:          h.show,
		Complete:         h.completeNames,
	})
	g.AddCommand(&domains.Command{
		Name:             "use",
		Aliases:          []string{"switch"},
		Description:      "Activate a profile, reconnect the session and validate its token.",
		DescriptionShort: "Activate a profile",
		Usage:            "<name>",
		Execute:          h.use,
		Complete:         h.completeNames,
	})
	g.AddCommand(&domains.Command{
		Name:             "create",
		Description:      "Create a profile. The first profile becomes the active one.",
		DescriptionShort: "Create a profile",
		Usage:            "<name> --url <api-url> [--token <token>] [--namespace <ns>]",
		Execute:          h.create,
	})
	g.AddCommand(&domains.Command{
		Name:             "delete",
		Aliases:          []string{"rm"},
		Description:      "Delete a profile and its stored token.",
		DescriptionShort: "Delete a profile",
		Usage:            "<name>",
		Execute:          h.delete,
		Complete:         h.completeNames,
	})
	g.AddCommand(&domains.Command{
		Name:              "edit",
		Aliases:           []string{"modify", "vi"},
		Description:       "Edit a profile in $EDITOR. The edited profile is validated and saved; editing the active profile refreshes the session.",
		DescriptionShort:  "Edit a profile in $EDITOR",
		DescriptionMedium: "Open a profile in your text editor, then validate and save the changes.",
		Usage:             "[name]",
		Execute:           h.edit,
		Complete:          h.completeNames,
	})
	return g
}

func (h *handlers) completeNames(ctx context.Context, partial string, _ []string, _ domains.Session) []string {
	lower := strings.ToLower(partial)
	var out []string
	for _, name := range h.profiles.Names(ctx) {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			out = append(out, name)
		}
	}
	return out
}

func positional(args []string) []string {
	return domains.FilterGlobalFlags(args)
}

func requireName(args []string, usage string) (string, domains.Result) {
	rest := positional(args)
	if len(rest) == 0 {
		return "", domains.Fail(domains.KindValidation, "Error: Profile name is required.\nUsage: "+usage)
	}
	if len(rest) > 1 {
		return "", domains.Fail(domains.KindUnexpectedArgs, fmt.Sprintf("Error: Unexpected arguments: %s\nUsage: %s", strings.Join(rest[1:], " "), usage))
	}
	return rest[0], nil
}

func notFound(name string) domains.Result {
	return domains.Fail(domains.KindExecution, fmt.Sprintf("Profile '%s' not found.\nUse 'login profile list' to see available profiles.", name))
}

func (h *handlers) list(ctx context.Context, _ []string, s domains.Session) domains.Result {
	profiles, err := h.profiles.List(ctx)
	if err != nil {
		return domains.FailErr(err)
	}
	if len(profiles) == 0 {
		return domains.Ok("No profiles found.", "", "Create one with 'login profile create <name> --url <api-url>'.")
	}
	active, _ := h.profiles.Active()

	items := make([]any, 0, len(profiles))
	for _, p := range profiles {
		marker := ""
		if p.Name == active {
			marker = "*"
		}
		items = append(items, map[string]any{
			"name":             p.Name,
			"apiUrl":           p.APIURL,
			"defaultNamespace": p.DefaultNamespace,
			"active":           marker,
		})
	}

	cfg := *h.out.Config()
	cfg.Columns = profileColumns
	format, err := parseFormat(s)
	if err != nil {
		return domains.FailErr(err)
	}
	var b strings.Builder
	if err := h.out.FormatWithConfig(&b, map[string]any{"items": items}, format, &cfg); err != nil {
		return domains.FailErr(err)
	}
	return domains.Ok(splitLines(b.String())...)
}

func (h *handlers) show(ctx context.Context, args []string, s domains.Session) domains.Result {
	name, fail := requireName(args, "login profile show <name>")
	if fail != nil {
		return fail
	}
	p, err := h.profiles.Get(ctx, name)
	if errors.Is(err, profile.ErrNotFound) {
		return notFound(name)
	}
	if err != nil {
		return domains.FailErr(err)
	}
	lines, err := h.render(s, p)
	if err != nil {
		return domains.FailErr(err)
	}
	return domains.Ok(lines...)
}

func (h *handlers) use(ctx context.Context, args []string, s domains.Session) domains.Result {
	name, fail := requireName(args, "login profile use <name>")
	if fail != nil {
		return fail
	}
	p, err := h.profiles.Get(ctx, name)
	if errors.Is(err, profile.ErrNotFound) {
		return notFound(name)
	}
	if err != nil {
		return domains.FailErr(err)
	}
	if err := h.profiles.SetActive(name); err != nil {
		return domains.FailErr(err)
	}
	return h.reconnect(ctx, s, p, fmt.Sprintf("Switched to profile '%s'.", name))
}

// reconnect switches the session to p and reports the new connection.
func (h *handlers) reconnect(ctx context.Context, s domains.Session, p *profile.Profile, headline string) domains.Result {
	sw, ok := s.(Switcher)
	if !ok {
		return domains.Ok(headline, "", "Restart xcsh to connect with this profile.")
	}
	validation, err := sw.UseProfile(ctx, p)
	if err != nil {
		return domains.FailErr(err)
	}
	lines, err := h.render(s, connectionInfo(s, validation, nil))
	if err != nil {
		return domains.FailErr(err)
	}
	out := append([]string{headline, ""}, lines...)
	if !validation.Valid {
		out = append(out, "", "Warning: "+validation.Error)
	}
	return domains.Success{Output: out, ContextChanged: true}
}

func (h *handlers) create(ctx context.Context, args []string, s domains.Session) domains.Result {
	const usage = "login profile create <name> --url <api-url> [--token <token>] [--namespace <ns>]"
	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	apiURL := fs.String("url", "", "API URL")
	token := fs.String("token", "", "API token")
	namespace := fs.String("namespace", "", "default namespace")
	fs.StringP("output", "o", "", "output format")
	if err := fs.Parse(args); err != nil {
		return domains.Fail(domains.KindValidation, fmt.Sprintf("Error: %v\nUsage: %s", err, usage))
	}
	name, fail := requireName(fs.Args(), usage)
	if fail != nil {
		return fail
	}
	if h.profiles.Exists(name) {
		return domains.Fail(domains.KindValidation, fmt.Sprintf("Error: Profile '%s' already exists. Use 'login profile edit %s' to change it.", name, name))
	}

	p := &profile.Profile{Name: name, APIURL: *apiURL, APIToken: *token, DefaultNamespace: *namespace}
	if err := h.profiles.Save(ctx, p); err != nil {
		return domains.Fail(domains.KindValidation, fmt.Sprintf("Error: %v\nUsage: %s", err, usage))
	}

	active, _ := h.profiles.Active()
	if active != "" {
		return domains.Ok(fmt.Sprintf("Profile '%s' created.", name))
	}
	if err := h.profiles.SetActive(name); err != nil {
		return domains.FailErr(err)
	}
	return h.reconnect(ctx, s, p, fmt.Sprintf("Profile '%s' created and activated.", name))
}

func (h *handlers) delete(ctx context.Context, args []string, _ domains.Session) domains.Result {
	name, fail := requireName(args, "login profile delete <name>")
	if fail != nil {
		return fail
	}
	active, _ := h.profiles.Active()
	if err := h.profiles.Delete(ctx, name); err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return notFound(name)
		}
		return domains.FailErr(err)
	}
	out := []string{fmt.Sprintf("Profile '%s' deleted.", name)}
	if active == name {
		out = append(out, "It was the active profile; run 'login profile use <name>' to choose another.")
	}
	return domains.Ok(out...)
}

func (h *handlers) edit(ctx context.Context, args []string, s domains.Session) domains.Result {
	rest := positional(args)
	if len(rest) > 1 {
		return domains.Fail(domains.KindUnexpectedArgs, "Error: Unexpected arguments: "+strings.Join(rest[1:], " ")+"\nUsage: login profile edit [name]")
	}
	name := ""
	if len(rest) == 1 {
		name = rest[0]
	} else {
		active, err := h.profiles.Active()
		if err != nil {
			return domains.FailErr(err)
		}
		if active == "" {
			return domains.Fail(domains.KindValidation, "No profile specified and no active profile set.\nUsage: login profile edit <name>")
		}
		name = active
	}
	if !h.profiles.Exists(name) {
		return notFound(name)
	}
	if !s.Interactive() || !h.isTerminal() {
		return domains.Fail(domains.KindValidation, "Edit command requires an interactive terminal.\nUse 'login profile show <name>' to view profile details.")
	}

	outcome, edited, err := h.profiles.Edit(ctx, name, h.editor)
	if err != nil {
		return domains.Fail(domains.KindExecution, "Edit failed: "+err.Error())
	}
	out := []string{fmt.Sprintf("Opened profile '%s' in %s.", name, h.editor.Name())}
	if outcome == profile.EditUnchanged {
		return domains.Ok(append(out, "", "No changes made.")...)
	}
	out = append(out, "", fmt.Sprintf("Profile '%s' updated successfully.", name))

	if active, _ := h.profiles.Active(); active == name {
		r := h.reconnect(ctx, s, edited, "Session refreshed with updated settings.")
		if succ, ok := r.(domains.Success); ok {
			succ.Output = append(append(out, ""), succ.Output...)
			return succ
		}
		return r
	}
	return domains.Ok(out...)
}
