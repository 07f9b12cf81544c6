// Package output renders API responses and command data as table, json,
// yaml or plain text.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format is an output format.
type Format int

const (
	FormatTable Format = iota + 1
	FormatJSON
	FormatYAML
	FormatText
)

var formatNames = map[Format]string{
	FormatTable: "table",
	FormatJSON:  "json",
	FormatYAML:  "yaml",
	FormatText:  "text",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name case-insensitively. An empty name selects
// the table format.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FormatTable, nil
	}
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unsupported output format '%s' (valid: table, json, yaml, text)", name)
}

// Formatter is implemented by every output renderer.
type Formatter interface {
	// Format writes data to w.
	Format(w io.Writer, data any, config *FormatConfig) error

	// Name returns the format name, e.g. "json".
	Name() string

	// Supports reports whether the formatter can render data.
	Supports(data any) bool
}

// Column is one table column. Field is looked up on the item first and then
// under its metadata.
type Column struct {
	Header string
	Field  string
	Width  int
}

// ResourceColumns are the list columns for API objects.
var ResourceColumns = []Column{
	{Header: "NAMESPACE", Field: "namespace"},
	{Header: "NAME", Field: "name", Width: 40},
	{Header: "LABELS", Field: "labels", Width: 35},
}

// FormatConfig contains options shared by the formatters.
type FormatConfig struct {
	// Columns overrides ResourceColumns for list tables.
	Columns []Column

	// Pretty indents JSON output.
	Pretty bool

	// Colors enables colored table output.
	Colors bool

	// ShowHeaders controls the table header row.
	ShowHeaders bool

	// SortBy names the column header to sort list rows by.
	SortBy string

	SortAsc bool

	// MaskSecrets masks credential-named fields before rendering.
	MaskSecrets bool
}

// NewFormatConfig returns the defaults.
func NewFormatConfig() *FormatConfig {
	return &FormatConfig{
		Pretty:      true,
		Colors:      true,
		ShowHeaders: true,
		SortAsc:     true,
		MaskSecrets: true,
	}
}

// WithColors sets the colors option.
func (c *FormatConfig) WithColors(colors bool) *FormatConfig {
	c.Colors = colors
	return c
}

// WithColumns sets the list columns.
func (c *FormatConfig) WithColumns(columns ...Column) *FormatConfig {
	c.Columns = columns
	return c
}

// WithSorting sets the sorting options.
func (c *FormatConfig) WithSorting(field string, asc bool) *FormatConfig {
	c.SortBy = field
	c.SortAsc = asc
	return c
}

func (c *FormatConfig) columns() []Column {
	if len(c.Columns) > 0 {
		return c.Columns
	}
	return ResourceColumns
}
