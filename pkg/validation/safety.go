package validation

import (
	"strings"
)

// DangerLevel is the declared risk of an operation.
type DangerLevel int

const (
	DangerLow DangerLevel = iota
	DangerMedium
	DangerHigh
)

// ParseDangerLevel maps metadata strings to a level. Unknown values are low.
func ParseDangerLevel(s string) DangerLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return DangerHigh
	case "medium":
		return DangerMedium
	default:
		return DangerLow
	}
}

func (d DangerLevel) String() string {
	switch d {
	case DangerHigh:
		return "high"
	case DangerMedium:
		return "medium"
	default:
		return "low"
	}
}

// SideEffects lists the resource kinds an operation touches.
type SideEffects struct {
	Creates []string `json:"creates,omitempty" yaml:"creates,omitempty"`
	Updates []string `json:"updates,omitempty" yaml:"updates,omitempty"`
	Deletes []string `json:"deletes,omitempty" yaml:"deletes,omitempty"`
}

// Empty reports whether no side effects are declared.
func (s SideEffects) Empty() bool {
	return len(s.Creates) == 0 && len(s.Updates) == 0 && len(s.Deletes) == 0
}

// OperationInfo is the metadata consulted by the safety and scope checks.
type OperationInfo struct {
	Domain       string
	Action       string
	ResourceType string
	Method       string
	Path         string
	Summary      string
	Purpose      string

	DangerLevel    DangerLevel
	NamespaceScope Scope
	SideEffects    SideEffects
	// ConfirmationRequired overrides the danger-derived default when set.
	ConfirmationRequired *bool
}

// MetadataSource resolves operation metadata.
type MetadataSource interface {
	Describe(domain, action, resourceType string) (*OperationInfo, bool)
}

// SafetyResult is the outcome of CheckOperationSafety.
type SafetyResult struct {
	Proceed              bool
	DangerLevel          DangerLevel
	RequiresConfirmation bool
	Warning              string
	SideEffects          SideEffects
}

// SafetyChecker classifies operations by declared danger level.
type SafetyChecker struct {
	source MetadataSource
}

// NewSafetyChecker creates a checker backed by source. A nil source treats
// every operation as low danger.
func NewSafetyChecker(source MetadataSource) *SafetyChecker {
	return &SafetyChecker{source: source}
}

// Check computes the decision for an operation. The warning text is always
// populated for medium and high danger operations.
func (c *SafetyChecker) Check(domain, action, resourceType string) SafetyResult {
	var info *OperationInfo
	if c.source != nil {
		info, _ = c.source.Describe(domain, action, resourceType)
	}
	if info == nil {
		return SafetyResult{Proceed: true, DangerLevel: DangerLow}
	}

	res := SafetyResult{
		DangerLevel: info.DangerLevel,
		SideEffects: info.SideEffects,
	}
	res.RequiresConfirmation = info.DangerLevel == DangerHigh
	if info.ConfirmationRequired != nil {
		res.RequiresConfirmation = *info.ConfirmationRequired
	}

	switch info.DangerLevel {
	case DangerHigh:
		res.Proceed = false
		res.Warning = highDangerWarning(info.SideEffects)
	case DangerMedium:
		res.Proceed = true
		res.Warning = mediumDangerWarning(info.SideEffects)
	default:
		res.Proceed = true
	}
	return res
}

func highDangerWarning(se SideEffects) string {
	lines := []string{"⚠️  WARNING: This is a HIGH DANGER operation"}
	if len(se.Deletes) > 0 {
		lines = append(lines, "  Will DELETE: "+strings.Join(se.Deletes, ", "))
	}
	if len(se.Updates) > 0 {
		lines = append(lines, "  Will UPDATE: "+strings.Join(se.Updates, ", "))
	}
	if len(se.Creates) > 0 {
		lines = append(lines, "  Will CREATE: "+strings.Join(se.Creates, ", "))
	}
	lines = append(lines, "This action may be destructive and cannot be undone.")
	return strings.Join(lines, "\n")
}

func mediumDangerWarning(se SideEffects) string {
	msg := "⚠️  CAUTION: This operation may have significant effects"
	var parts []string
	if len(se.Creates) > 0 {
		parts = append(parts, "creates: "+strings.Join(se.Creates, ", "))
	}
	if len(se.Updates) > 0 {
		parts = append(parts, "updates: "+strings.Join(se.Updates, ", "))
	}
	if len(se.Deletes) > 0 {
		parts = append(parts, "deletes: "+strings.Join(se.Deletes, ", "))
	}
	if len(parts) > 0 {
		msg += "\n  Side effects: " + strings.Join(parts, "; ")
	}
	return msg
}
