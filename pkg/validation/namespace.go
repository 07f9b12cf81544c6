package validation

import (
	"fmt"
	"strings"
)

// Scope is the declared namespace restriction of an operation.
type Scope int

const (
	// ScopeUndefined means no restriction was declared.
	ScopeUndefined Scope = iota
	ScopeAny
	ScopeSystem
	ScopeShared
)

// ParseScope maps metadata strings to a scope.
func ParseScope(s string) Scope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system":
		return ScopeSystem
	case "shared":
		return ScopeShared
	case "any":
		return ScopeAny
	default:
		return ScopeUndefined
	}
}

func (s Scope) String() string {
	switch s {
	case ScopeAny:
		return "any"
	case ScopeSystem:
		return "system"
	case ScopeShared:
		return "shared"
	default:
		return ""
	}
}

// ScopeResult is the outcome of a namespace scope check.
type ScopeResult struct {
	Valid              bool
	Scope              Scope
	Message            string
	SuggestedNamespace string
}

// NamespaceScopeValidator checks the current namespace against an
// operation's declared scope.
type NamespaceScopeValidator struct {
	source MetadataSource
}

// NewNamespaceScopeValidator creates a validator backed by source.
func NewNamespaceScopeValidator(source MetadataSource) *NamespaceScopeValidator {
	return &NamespaceScopeValidator{source: source}
}

// Validate reports whether action may run in namespace.
func (v *NamespaceScopeValidator) Validate(domain, action, namespace, resourceType string) ScopeResult {
	var info *OperationInfo
	if v.source != nil {
		info, _ = v.source.Describe(domain, action, resourceType)
	}
	if info == nil || info.NamespaceScope == ScopeUndefined {
		return ScopeResult{Valid: true}
	}

	target := resourceType
	if target == "" {
		target = domain
	}

	switch info.NamespaceScope {
	case ScopeSystem, ScopeShared:
		want := info.NamespaceScope.String()
		if strings.EqualFold(namespace, want) {
			return ScopeResult{Valid: true, Scope: info.NamespaceScope}
		}
		return ScopeResult{
			Scope:              info.NamespaceScope,
			Message:            fmt.Sprintf("%s on %s requires the '%s' namespace", action, target, want),
			SuggestedNamespace: want,
		}
	default:
		return ScopeResult{Valid: true, Scope: info.NamespaceScope}
	}
}

// FormatScopeError renders a failed scope check for display.
func FormatScopeError(r ScopeResult) string {
	if r.Valid {
		return ""
	}
	if r.SuggestedNamespace == "" {
		return r.Message
	}
	return fmt.Sprintf("%s\n  Suggestion: Use --namespace %s", r.Message, r.SuggestedNamespace)
}
