package repl

import "strings"

// DefaultPrompt is shown when no part of the prompt is known.
const DefaultPrompt = "xcsh> "

// Prompt renders tenant:domain/action@namespace> . The tenant is omitted
// when unknown or local.
func Prompt(s *Session) string {
	var b strings.Builder
	if tenant := s.Tenant(); tenant != "" && tenant != "unknown" && tenant != "local" {
		b.WriteString(tenant)
	}
	if domain, action := s.Context(); domain != "" {
		if b.Len() > 0 {
			b.WriteByte(':')
		}
		b.WriteString(domain)
		if action != "" {
			b.WriteString("/" + action)
		}
	}
	if ns := s.Namespace(); ns != "" {
		b.WriteString("@" + ns)
	}
	if b.Len() == 0 {
		return DefaultPrompt
	}
	return b.String() + "> "
}
