package domains

import (
	"fmt"
	"strings"
)

// FilterGlobalFlags drops the output format flag and its value, which the
// shell handles before a command sees its arguments.
func FilterGlobalFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--output" || a == "-o":
			i++
		case strings.HasPrefix(a, "--output=") || strings.HasPrefix(a, "-o="):
		default:
			out = append(out, a)
		}
	}
	return out
}

// validateCommandArgs rejects extra arguments for commands that take none.
// It returns nil when the command may run.
func validateCommandArgs(cmd *Command, path []string, siblings map[string]*Command, args []string) Result {
	filtered := FilterGlobalFlags(args)
	if len(filtered) == 0 || cmd.Usage != "" {
		return nil
	}

	first := strings.ToLower(filtered[0])
	parent := path[:len(path)-1]
	suggested := strings.Join(append(append([]string{}, parent...), filtered...), " ")

	if _, ok := siblings[first]; ok {
		return conflict(cmd.Name, first, "", suggested)
	}
	for _, name := range sortedCommandNames(siblings) {
		for _, a := range siblings[name].Aliases {
			if a == first {
				return conflict(cmd.Name, first, name, suggested)
			}
		}
	}

	joined := strings.Join(filtered, " ")
	return Failure{
		Output: []string{
			fmt.Sprintf("Error: Unexpected arguments for '%s': %s", cmd.Name, joined),
			"",
			fmt.Sprintf("Usage: %s", strings.Join(path, " ")),
			"",
			fmt.Sprintf("The '%s' command does not accept additional arguments.", cmd.Name),
		},
		Kind:    KindUnexpectedArgs,
		Message: fmt.Sprintf("Unexpected arguments: %s", joined),
	}
}

func conflict(cmdName, other, aliasFor, suggested string) Result {
	head := fmt.Sprintf("Error: Cannot combine '%s' with '%s'", cmdName, other)
	if aliasFor != "" {
		head += fmt.Sprintf(" (alias for '%s')", aliasFor)
	}
	return Failure{
		Output: []string{
			head + ".",
			"",
			fmt.Sprintf("Did you mean: %s", suggested),
		},
		Kind:    KindConflict,
		Message: fmt.Sprintf("Conflicting subcommands: '%s' and '%s'", cmdName, other),
	}
}
