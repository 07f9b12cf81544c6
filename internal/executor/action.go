package executor

import (
	"fmt"
	"strings"
)

// Action is a canonical resource action.
type Action int

const (
	ActionList Action = iota + 1
	ActionGet
	ActionCreate
	ActionDelete
	ActionReplace
	ActionApply
	ActionStatus
	ActionPatch
	ActionAddLabels
	ActionRemoveLabels
)

// Actions lists every action in display order.
var Actions = []Action{
	ActionList, ActionGet, ActionCreate, ActionDelete, ActionReplace,
	ActionApply, ActionStatus, ActionPatch, ActionAddLabels, ActionRemoveLabels,
}

func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionGet:
		return "get"
	case ActionCreate:
		return "create"
	case ActionDelete:
		return "delete"
	case ActionReplace:
		return "replace"
	case ActionApply:
		return "apply"
	case ActionStatus:
		return "status"
	case ActionPatch:
		return "patch"
	case ActionAddLabels:
		return "add-labels"
	case ActionRemoveLabels:
		return "remove-labels"
	default:
		return "unknown"
	}
}

// ParseAction maps a command word to an Action.
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range Actions {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action '%s'", name)
}

// operation returns the catalog action whose metadata governs a.
func (a Action) operation() string {
	switch a {
	case ActionStatus:
		return "get"
	case ActionPatch:
		return "update"
	case ActionApply, ActionAddLabels, ActionRemoveLabels:
		return "replace"
	default:
		return a.String()
	}
}

func (a Action) requiresName() bool {
	switch a {
	case ActionList, ActionCreate, ActionReplace, ActionApply, ActionPatch:
		return false
	default:
		return true
	}
}

// takesBody reports whether the action sends a --file document.
func (a Action) takesBody() bool {
	switch a {
	case ActionCreate, ActionReplace, ActionApply, ActionPatch:
		return true
	default:
		return false
	}
}

// createsName reports whether the action can introduce a new resource name,
// which gets the full name validation.
func (a Action) createsName() bool {
	return a == ActionCreate || a == ActionReplace || a == ActionApply
}

func (a Action) description() (long, short string) {
	switch a {
	case ActionList:
		return "List resources of a type in the current namespace. Use --filter to select items.", "List resources"
	case ActionGet:
		return "Show one resource.", "Show a resource"
	case ActionCreate:
		return "Create a resource from a YAML or JSON file.", "Create a resource"
	case ActionDelete:
		return "Delete a resource.", "Delete a resource"
	case ActionReplace:
		return "Replace a resource with the content of a YAML or JSON file.", "Replace a resource"
	case ActionApply:
		return "Create a resource, or replace it when it already exists.", "Create or replace a resource"
	case ActionStatus:
		return "Show the status reported for a resource.", "Show resource status"
	case ActionPatch:
		return "Update part of a resource from a YAML or JSON file.", "Patch a resource"
	case ActionAddLabels:
		return "Add or overwrite labels on a resource. Repeat --label key=value.", "Add labels"
	case ActionRemoveLabels:
		return "Remove labels from a resource. Repeat --label key.", "Remove labels"
	default:
		return "", ""
	}
}
