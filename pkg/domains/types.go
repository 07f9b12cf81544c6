// Package domains routes command lines to domain commands.
//
// A line has the shape
//
//	<domain> [subcommand-group] <command> [flags] [args]
//
// The Registry resolves the domain, an optional subcommand group and a
// command (by name or alias), rejects argument combinations that look like
// two commands run together, and executes the handler. Expected failures
// such as unknown names or conflicts are returned as Failure results, never
// as Go errors.
package domains

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/f5xc/xcsh/pkg/api"
)

// Session is the per-line state visible to command handlers.
type Session interface {
	Namespace() string
	SetNamespace(ns string)
	OutputFormat() string
	// Client returns nil when no server is configured.
	Client() *api.Client
	// Interactive reports whether the user can answer prompts.
	Interactive() bool
}

// Handler executes a command with its leftover arguments.
type Handler func(ctx context.Context, args []string, s Session) Result

// CompletionFunc suggests values for the argument being typed.
type CompletionFunc func(ctx context.Context, partial string, args []string, s Session) []string

// Command is a leaf command.
type Command struct {
	Name              string
	Description       string
	DescriptionShort  string
	DescriptionMedium string
	// Usage is the argument pattern, e.g. "<name> [flags]". Commands with a
	// usage pattern consume any leftover arguments themselves.
	Usage    string
	Aliases  []string
	Execute  Handler
	Complete CompletionFunc
}

// Matches reports whether word is the command name or one of its aliases.
func (c *Command) Matches(word string) bool {
	if c.Name == word {
		return true
	}
	for _, a := range c.Aliases {
		if a == word {
			return true
		}
	}
	return false
}

// Group is a set of commands nested one level under a domain.
type Group struct {
	Name              string
	Description       string
	DescriptionShort  string
	DescriptionMedium string
	Commands          map[string]*Command
	Default           *Command
}

// Domain is a top-level command namespace.
type Domain struct {
	Name              string
	DisplayName       string
	Description       string
	DescriptionShort  string
	DescriptionMedium string
	Category          string
	Commands          map[string]*Command
	Groups            map[string]*Group
	Default           *Command
}

// NewDomain creates an empty domain.
func NewDomain(name, description, short string) *Domain {
	return &Domain{
		Name:             name,
		Description:      description,
		DescriptionShort: short,
		Commands:         make(map[string]*Command),
		Groups:           make(map[string]*Group),
	}
}

// AddCommand registers cmd at domain level. A name or alias already used
// by a sibling command is rejected.
func (d *Domain) AddCommand(cmd *Command) error {
	if d.Commands == nil {
		d.Commands = make(map[string]*Command)
	}
	if err := addCommand(d.Commands, cmd); err != nil {
		return fmt.Errorf("domain %q: %w", d.Name, err)
	}
	return nil
}

// AddGroup registers a subcommand group.
func (d *Domain) AddGroup(g *Group) {
	if d.Groups == nil {
		d.Groups = make(map[string]*Group)
	}
	d.Groups[g.Name] = g
}

// Command resolves a domain-level command by name or alias.
func (d *Domain) Command(word string) (*Command, bool) {
	return findCommand(d.Commands, word)
}

// NewGroup creates an empty subcommand group.
func NewGroup(name, description, short string) *Group {
	return &Group{
		Name:             name,
		Description:      description,
		DescriptionShort: short,
		Commands:         make(map[string]*Command),
	}
}

// AddCommand registers cmd in the group. A name or alias already used by a
// sibling command is rejected.
func (g *Group) AddCommand(cmd *Command) error {
	if g.Commands == nil {
		g.Commands = make(map[string]*Command)
	}
	if err := addCommand(g.Commands, cmd); err != nil {
		return fmt.Errorf("group %q: %w", g.Name, err)
	}
	return nil
}

func addCommand(commands map[string]*Command, cmd *Command) error {
	if cmd == nil || cmd.Name == "" {
		return fmt.Errorf("command must have a name")
	}
	for _, word := range append([]string{cmd.Name}, cmd.Aliases...) {
		if other, ok := findCommand(commands, word); ok {
			return fmt.Errorf("%q of command %q is already used by %q", word, cmd.Name, other.Name)
		}
	}
	commands[cmd.Name] = cmd
	return nil
}

// findCommand resolves a name or alias. Names win over aliases.
func findCommand(commands map[string]*Command, word string) (*Command, bool) {
	word = strings.ToLower(word)
	if cmd, ok := commands[word]; ok {
		return cmd, true
	}
	for _, name := range sortedCommandNames(commands) {
		cmd := commands[name]
		for _, a := range cmd.Aliases {
			if a == word {
				return cmd, true
			}
		}
	}
	return nil, false
}

func sortedCommandNames(commands map[string]*Command) []string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedGroupNames(groups map[string]*Group) []string {
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
