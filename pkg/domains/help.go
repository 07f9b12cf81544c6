package domains

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DomainHelp renders the help text of a domain.
func DomainHelp(d *Domain) []string {
	title := d.DisplayName
	if title == "" {
		title = d.Name
	}
	out := []string{title}
	if desc := firstNonEmpty(d.Description, d.DescriptionMedium, d.DescriptionShort); desc != "" {
		out = append(out, "", desc)
	}
	out = append(out, "", "Usage:", fmt.Sprintf("  %s <command> [options]", d.Name))

	if len(d.Commands) > 0 {
		out = append(out, "", "Commands:")
		out = append(out, commandLines(d.Commands)...)
	}
	if len(d.Groups) > 0 {
		out = append(out, "", "Subcommands:")
		width := 0
		for name := range d.Groups {
			width = max(width, len(name))
		}
		for _, name := range sortedGroupNames(d.Groups) {
			g := d.Groups[name]
			out = append(out, fmt.Sprintf("  %-*s  %s", width, name, firstNonEmpty(g.DescriptionShort, g.Description)))
		}
	}

	out = append(out, "", fmt.Sprintf("Run '%s <command> --help' for command details.", d.Name))
	return out
}

// GroupHelp renders the help text of a subcommand group.
func GroupHelp(d *Domain, g *Group) []string {
	out := []string{fmt.Sprintf("%s %s", d.Name, g.Name)}
	if desc := firstNonEmpty(g.Description, g.DescriptionMedium, g.DescriptionShort); desc != "" {
		out = append(out, "", desc)
	}
	out = append(out, "", "Usage:", fmt.Sprintf("  %s %s <command> [options]", d.Name, g.Name))
	if len(g.Commands) > 0 {
		out = append(out, "", "Commands:")
		out = append(out, commandLines(g.Commands)...)
	}
	return out
}

// CommandHelp renders the help text of a command at path.
func CommandHelp(path []string, cmd *Command) []string {
	usage := strings.Join(path, " ")
	if cmd.Usage != "" {
		usage += " " + cmd.Usage
	}
	out := []string{strings.Join(path, " ")}
	if desc := firstNonEmpty(cmd.Description, cmd.DescriptionMedium, cmd.DescriptionShort); desc != "" {
		out = append(out, "", desc)
	}
	out = append(out, "", "Usage:", "  "+usage)
	if len(cmd.Aliases) > 0 {
		out = append(out, "", "Aliases: "+strings.Join(cmd.Aliases, ", "))
	}
	return out
}

func commandLines(commands map[string]*Command) []string {
	width := 0
	for name := range commands {
		width = max(width, len(name))
	}
	var out []string
	for _, name := range sortedCommandNames(commands) {
		cmd := commands[name]
		line := fmt.Sprintf("  %-*s  %s", width, name, firstNonEmpty(cmd.DescriptionShort, cmd.Description))
		if len(cmd.Aliases) > 0 {
			line += fmt.Sprintf(" (aliases: %s)", strings.Join(cmd.Aliases, ", "))
		}
		out = append(out, strings.TrimRight(line, " "))
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// closest returns the candidate within edit distance 2 of word, preferring
// the smallest distance and then the first in order.
func closest(word string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(word, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func suggestCommand(word string, commands map[string]*Command, groups map[string]*Group) string {
	candidates := sortedCommandNames(commands)
	candidates = append(candidates, sortedGroupNames(groups)...)
	return closest(word, candidates)
}
