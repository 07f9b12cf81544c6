package domains

import (
	"context"
	"sort"
	"strings"
)

// Completion categories.
const (
	CategoryDomain     = "domain"
	CategorySubcommand = "subcommand"
	CategoryCommand    = "command"
	CategoryArgument   = "argument"
)

// Suggestion is one completion candidate.
type Suggestion struct {
	Text        string
	Description string
	Category    string
}

// CompleteDomains suggests domain names starting with partial.
func (r *Registry) CompleteDomains(partial string) []Suggestion {
	partial = strings.ToLower(partial)
	var out []Suggestion
	for _, name := range r.Names() {
		if !strings.HasPrefix(name, partial) {
			continue
		}
		d, _ := r.Lookup(name)
		desc := ""
		if d != nil {
			desc = firstNonEmpty(d.DescriptionShort, d.Description)
		}
		out = append(out, Suggestion{Text: name, Description: desc, Category: CategoryDomain})
	}
	return out
}

// Complete suggests the next word inside a domain. args are the words
// already typed after the domain name; partial is the word being typed.
func (r *Registry) Complete(ctx context.Context, domainName, partial string, args []string, s Session) []Suggestion {
	d, ok := r.Lookup(domainName)
	if !ok {
		return nil
	}
	lower := strings.ToLower(partial)

	if len(args) == 0 {
		var out []Suggestion
		for _, name := range sortedGroupNames(d.Groups) {
			if strings.HasPrefix(name, lower) {
				g := d.Groups[name]
				out = append(out, Suggestion{Text: name, Description: firstNonEmpty(g.DescriptionShort, g.Description), Category: CategorySubcommand})
			}
		}
		out = append(out, commandSuggestions(d.Commands, lower)...)
		return out
	}

	first := strings.ToLower(args[0])
	if g, ok := d.Groups[first]; ok {
		if len(args) == 1 {
			return commandSuggestions(g.Commands, lower)
		}
		cmd, ok := findCommand(g.Commands, args[1])
		if !ok {
			return nil
		}
		return argumentSuggestions(ctx, cmd, partial, args[2:], s)
	}

	if cmd, ok := findCommand(d.Commands, first); ok {
		return argumentSuggestions(ctx, cmd, partial, args[1:], s)
	}
	return nil
}

func commandSuggestions(commands map[string]*Command, lower string) []Suggestion {
	var out []Suggestion
	for _, name := range sortedCommandNames(commands) {
		if strings.HasPrefix(name, lower) {
			cmd := commands[name]
			out = append(out, Suggestion{Text: name, Description: firstNonEmpty(cmd.DescriptionShort, cmd.Description), Category: CategoryCommand})
		}
	}
	return out
}

func argumentSuggestions(ctx context.Context, cmd *Command, partial string, args []string, s Session) []Suggestion {
	if cmd.Complete == nil {
		return nil
	}
	values := cmd.Complete(ctx, partial, args, s)
	sort.Strings(values)
	out := make([]Suggestion, 0, len(values))
	for _, v := range values {
		out = append(out, Suggestion{Text: v, Category: CategoryArgument})
	}
	return out
}
