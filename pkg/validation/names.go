package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Category classifies why a name was rejected.
type Category int

const (
	// CategoryNone is used for accepted names.
	CategoryNone Category = iota
	// CategoryInvalid covers empty, over-long and badly formatted names.
	CategoryInvalid
	// CategorySecurity covers control characters and shell metacharacters.
	CategorySecurity
	// CategoryReserved covers CLI action words.
	CategoryReserved
	// CategoryDangerous covers system command names and risky patterns.
	CategoryDangerous
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case CategoryInvalid:
		return "invalid"
	case CategorySecurity:
		return "security"
	case CategoryReserved:
		return "reserved"
	case CategoryDangerous:
		return "dangerous"
	default:
		return ""
	}
}

// DefaultMaxNameLength is the RFC 1035 label limit.
const DefaultMaxNameLength = 63

// NameOptions tunes ValidateResourceName.
type NameOptions struct {
	// MaxLength defaults to DefaultMaxNameLength when zero.
	MaxLength int
	// AllowUppercase accepts mixed case in the format check.
	AllowUppercase bool
	// SkipFormatValidation disables the RFC 1035 check.
	SkipFormatValidation bool
}

// NameResult is the outcome of ValidateResourceName.
type NameResult struct {
	Valid      bool
	Category   Category
	Error      string
	Suggestion string
}

func reject(cat Category, msg, suggestion string) NameResult {
	return NameResult{Category: cat, Error: msg, Suggestion: suggestion}
}

// ValidateResourceName checks a candidate resource name. Checks run in a
// fixed order and the first failure wins.
func ValidateResourceName(name string, opts *NameOptions) NameResult {
	o := NameOptions{}
	if opts != nil {
		o = *opts
	}
	maxLen := o.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}

	if strings.TrimSpace(name) == "" {
		return reject(CategoryInvalid, "Resource name cannot be empty", "")
	}

	if n := utf8.RuneCountInString(name); n > maxLen {
		return reject(CategoryInvalid,
			fmt.Sprintf("Name exceeds maximum length of %d characters (got %d)", maxLen, n),
			SanitizeName(string([]rune(name)[:maxLen])))
	}

	if controlCharacters.MatchString(name) {
		return reject(CategorySecurity, "Name contains control characters", SanitizeName(name))
	}

	if loc := shellMetacharacters.FindStringIndex(name); loc != nil {
		ch := []rune(name[loc[0]:loc[1]])[0]
		desc, ok := metacharDescriptions[ch]
		if !ok {
			desc = string(ch)
		}
		return reject(CategorySecurity,
			fmt.Sprintf("Name contains shell metacharacter: %s", desc),
			SanitizeName(name))
	}

	lower := strings.ToLower(name)
	if IsReservedAction(lower) {
		return reject(CategoryReserved,
			fmt.Sprintf("'%s' is a reserved CLI action word and cannot be used as a resource name", name),
			"my-"+lower)
	}

	if IsDangerousCommand(lower) {
		return reject(CategoryDangerous,
			fmt.Sprintf("'%s' matches a dangerous system command and cannot be used as a resource name", name),
			"my-"+lower)
	}

	for _, p := range dangerousPatterns {
		if p.re.MatchString(name) {
			return reject(CategoryDangerous, p.message, SanitizeName(name))
		}
	}

	if !o.SkipFormatValidation {
		candidate := name
		if o.AllowUppercase {
			candidate = lower
		}
		if !rfc1035Label.MatchString(candidate) {
			return reject(CategoryInvalid,
				"Name must start with a letter, end with alphanumeric, and contain only lowercase letters, numbers, and hyphens",
				SanitizeName(name))
		}
	}

	return NameResult{Valid: true}
}

// IsSecurityViolation reports whether name would be rejected for injection
// risk. It ignores reserved words and formatting.
func IsSecurityViolation(name string) bool {
	return controlCharacters.MatchString(name) || shellMetacharacters.MatchString(name)
}

var (
	nonLabelChars   = regexp.MustCompile(`[^a-z0-9-]`)
	leadingNonAlpha = regexp.MustCompile(`^[^a-z]+`)
	trailingHyphens = regexp.MustCompile(`-+$`)
	repeatedHyphens = regexp.MustCompile(`-{2,}`)
)

// SanitizeName converts arbitrary input into a valid RFC 1035 label. It is
// used for suggestions only and is idempotent.
func SanitizeName(name string) string {
	s := strings.ToLower(name)
	s = nonLabelChars.ReplaceAllString(s, "-")
	s = leadingNonAlpha.ReplaceAllString(s, "")
	s = trailingHyphens.ReplaceAllString(s, "")
	s = repeatedHyphens.ReplaceAllString(s, "-")
	if len(s) > DefaultMaxNameLength {
		s = trailingHyphens.ReplaceAllString(s[:DefaultMaxNameLength], "")
	}
	if s == "" {
		return "resource"
	}
	return s
}

// FormatNameError renders a rejection for display.
func FormatNameError(r NameResult) string {
	if r.Valid {
		return ""
	}
	if r.Suggestion == "" {
		return r.Error
	}
	return fmt.Sprintf("%s\n  Suggestion: %s", r.Error, r.Suggestion)
}
