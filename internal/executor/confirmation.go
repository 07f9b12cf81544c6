package executor

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/f5xc/xcsh/pkg/validation"
)

// Confirmation is shown before a dangerous operation runs.
type Confirmation struct {
	Title   string
	Message string
	// Explicit requires the user to type "yes" instead of answering y/N.
	Explicit bool
}

// Confirmer asks the user to approve an operation.
type Confirmer func(c Confirmation) (bool, error)

// PromptConfirm displays c in a box and reads the answer from the terminal.
func PromptConfirm(c Confirmation) (bool, error) {
	color := pterm.FgYellow
	if c.Explicit {
		color = pterm.FgRed
	}
	box := pterm.DefaultBox.
		WithTitle(c.Title).
		WithTitleTopCenter().
		WithBoxStyle(pterm.NewStyle(color)).
		Sprint(c.Message)

	pterm.Println()
	pterm.Println(box)
	pterm.Println()

	if !c.Explicit {
		confirmed, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText("Do you want to continue?").
			WithDefaultValue(false).
			Show()
		if err != nil {
			return false, fmt.Errorf("confirmation prompt failed: %w", err)
		}
		return confirmed, nil
	}

	pterm.Warning.Println("Type 'yes' to confirm:")
	answer, err := pterm.DefaultInteractiveTextInput.Show()
	if err != nil {
		return false, fmt.Errorf("confirmation input failed: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(answer), "yes"), nil
}

const (
	highDangerTemplate   = "{action} {resource-type} '{name}' in namespace '{namespace}'?"
	mediumDangerTemplate = "Proceed with {action} of {resource-type} '{name}'?"
)

// confirmation builds the prompt for an operation that needs approval.
func confirmation(safety validation.SafetyResult, params map[string]string) Confirmation {
	tmpl := mediumDangerTemplate
	title := "Confirmation Required"
	if safety.DangerLevel == validation.DangerHigh {
		tmpl = highDangerTemplate
		title = "DESTRUCTIVE OPERATION"
	}
	msg := substituteParameters(tmpl, params)
	msg = strings.ToUpper(msg[:1]) + msg[1:]
	if safety.Warning != "" {
		msg = safety.Warning + "\n\n" + msg
	}
	return Confirmation{
		Title:    title,
		Message:  msg,
		Explicit: safety.DangerLevel == validation.DangerHigh,
	}
}

// substituteParameters replaces {param} placeholders. Each key also matches
// its camelCase and snake_case spelling.
func substituteParameters(message string, params map[string]string) string {
	for key, value := range params {
		for _, form := range []string{key, toCamelCase(key), toSnakeCase(key)} {
			message = strings.ReplaceAll(message, "{"+form+"}", value)
		}
	}
	return message
}

func toCamelCase(s string) string {
	s = strings.ReplaceAll(s, "-", "_")
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func toSnakeCase(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}
