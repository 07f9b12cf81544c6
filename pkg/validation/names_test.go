package validation

import (
	"strings"
	"testing"
)

func TestValidateResourceName(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		opts         *NameOptions
		wantValid    bool
		wantCategory Category
	}{
		{name: "simple valid", input: "my-lb", wantValid: true},
		{name: "single letter", input: "a", wantValid: true},
		{name: "empty", input: "", wantCategory: CategoryInvalid},
		{name: "whitespace only", input: "   ", wantCategory: CategoryInvalid},
		{name: "too long", input: strings.Repeat("a", 64), wantCategory: CategoryInvalid},
		{name: "custom max length", input: "abcdef", opts: &NameOptions{MaxLength: 5}, wantCategory: CategoryInvalid},
		{name: "control character", input: "ab\x01c", wantCategory: CategorySecurity},
		{name: "newline", input: "ab\nc", wantCategory: CategorySecurity},
		{name: "semicolon", input: "a;rm", wantCategory: CategorySecurity},
		{name: "reserved lowercase", input: "list", wantCategory: CategoryReserved},
		{name: "reserved uppercase", input: "LIST", wantCategory: CategoryReserved},
		{name: "reserved shell builtin", input: "exit", wantCategory: CategoryReserved},
		{name: "dangerous command", input: "rm", wantCategory: CategoryDangerous},
		{name: "dangerous command mixed case", input: "Sudo", wantCategory: CategoryDangerous},
		{name: "leading hyphen", input: "-force", wantCategory: CategoryDangerous},
		{name: "path traversal", input: "a..b", wantCategory: CategoryDangerous},
		{name: "hidden file", input: ".env", wantCategory: CategoryDangerous},
		{name: "slash", input: "a/b", wantCategory: CategoryDangerous},
		{name: "space", input: "a b", wantCategory: CategoryDangerous},
		{name: "leading underscore", input: "_internal", wantCategory: CategoryDangerous},
		{name: "uppercase rejected", input: "MyLB", wantCategory: CategoryInvalid},
		{name: "uppercase allowed", input: "MyLB", opts: &NameOptions{AllowUppercase: true}, wantValid: true},
		{name: "trailing hyphen", input: "abc-", wantCategory: CategoryInvalid},
		{name: "leading digit", input: "1abc", wantCategory: CategoryInvalid},
		{name: "format skipped", input: "1abc", opts: &NameOptions{SkipFormatValidation: true}, wantValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateResourceName(tt.input, tt.opts)
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (error %q)", got.Valid, tt.wantValid, got.Error)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %v, want %v", got.Category, tt.wantCategory)
			}
			if !got.Valid && got.Error == "" {
				t.Error("expected an error message for a rejected name")
			}
		})
	}
}

func TestValidateResourceNameSecurityCharacters(t *testing.T) {
	for _, ch := range []string{";", "&", "|", "$", "(", ")", "<", ">", "`", "\\", "#", "!", "{", "}", "[", "]", "*", "?", "~", "\r"} {
		for _, input := range []string{"a" + ch + "b", ch + "abc", "abc" + ch, "list" + ch} {
			got := ValidateResourceName(input, nil)
			if got.Valid || got.Category != CategorySecurity {
				t.Errorf("ValidateResourceName(%q) = %+v, want security rejection", input, got)
			}
		}
	}
}

func TestValidateResourceNameMessages(t *testing.T) {
	got := ValidateResourceName("list", nil)
	if got.Error != "'list' is a reserved CLI action word and cannot be used as a resource name" {
		t.Errorf("unexpected message %q", got.Error)
	}
	if got.Suggestion != "my-list" {
		t.Errorf("Suggestion = %q, want my-list", got.Suggestion)
	}

	got = ValidateResourceName("a;b", nil)
	if !strings.Contains(got.Error, "; (command separator)") {
		t.Errorf("message should name the offending character, got %q", got.Error)
	}

	got = ValidateResourceName(strings.Repeat("x", 70), nil)
	if got.Error != "Name exceeds maximum length of 63 characters (got 70)" {
		t.Errorf("unexpected message %q", got.Error)
	}
	if len(got.Suggestion) > DefaultMaxNameLength {
		t.Errorf("suggestion too long: %d", len(got.Suggestion))
	}

	got = ValidateResourceName(strings.Repeat("é", 40), nil)
	if got.Valid {
		t.Error("non-ASCII names are rejected")
	}
	if strings.Contains(got.Error, "maximum length") {
		t.Errorf("40 characters are within the limit, got %q", got.Error)
	}

	got = ValidateResourceName(strings.Repeat("é", 64), nil)
	if got.Error != "Name exceeds maximum length of 63 characters (got 64)" {
		t.Errorf("length should count characters, got %q", got.Error)
	}

	long := strings.Repeat("x", 70) + ";"
	if got := ValidateResourceName(long, nil); got.Category != CategoryInvalid {
		t.Errorf("length is checked first, got category %v", got.Category)
	}
	if !IsSecurityViolation(long) {
		t.Error("IsSecurityViolation ignores length")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"My_Load Balancer", "my-load-balancer"},
		{"123abc", "abc"},
		{"--a--b--", "a-b"},
		{"", "resource"},
		{"!!!", "resource"},
		{"Already-Fine", "already-fine"},
		{strings.Repeat("ab-", 30), strings.TrimSuffix(strings.Repeat("ab-", 21), "-")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"", "a", "A B C", "__x__", "x" + strings.Repeat("-", 80) + "y",
		strings.Repeat("a-", 40), "9lives", "ünïcödé-name", "trailing---", "a;b|c",
		strings.Repeat("z", 62) + "--q",
	}
	for _, in := range inputs {
		once := SanitizeName(in)
		if twice := SanitizeName(once); twice != once {
			t.Errorf("SanitizeName not idempotent for %q: %q then %q", in, once, twice)
		}
		if r := ValidateResourceName(once, &NameOptions{SkipFormatValidation: false}); r.Category == CategoryInvalid || r.Category == CategorySecurity {
			t.Errorf("sanitized %q -> %q still fails validation: %s", in, once, r.Error)
		}
	}
}

func TestIsSecurityViolation(t *testing.T) {
	if !IsSecurityViolation("a$b") {
		t.Error("expected $ to be a security violation")
	}
	if IsSecurityViolation("list") {
		t.Error("reserved words are not security violations")
	}
}
