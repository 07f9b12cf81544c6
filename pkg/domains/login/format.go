package login

import (
	"strings"

	"github.com/f5xc/xcsh/pkg/domains"
	"github.com/f5xc/xcsh/pkg/output"
)

var profileColumns = []output.Column{
	{Header: "NAME", Field: "name"},
	{Header: "API URL", Field: "apiUrl", Width: 60},
	{Header: "NAMESPACE", Field: "defaultNamespace"},
	{Header: "ACTIVE", Field: "active"},
}

func parseFormat(s domains.Session) (output.Format, error) {
	return output.ParseFormat(s.OutputFormat())
}

func splitLines(text string) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
