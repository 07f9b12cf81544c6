package output

import (
	"fmt"
	"io"
	"strings"
)

// TextFormatter writes plain lines without borders or colors: one
// tab-separated row per list item, or one "key: value" line per field.
type TextFormatter struct{}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Name returns the formatter name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Supports returns true; scalars are printed as is.
func (f *TextFormatter) Supports(data any) bool {
	return true
}

// Format writes data as plain text.
func (f *TextFormatter) Format(w io.Writer, data any, config *FormatConfig) error {
	if config == nil {
		config = NewFormatConfig()
	}
	generic, err := Generic(data)
	if err != nil {
		return err
	}

	var b strings.Builder
	if items, ok := Items(generic); ok {
		columns := config.columns()
		for _, item := range items {
			cells := make([]string, len(columns))
			for i, col := range columns {
				cells[i] = cellValue(col.Field, lookup(item, col.Field))
			}
			b.WriteString(strings.Join(cells, "\t"))
			b.WriteByte('\n')
		}
	} else if obj, ok := generic.(map[string]any); ok {
		for _, fl := range Flatten(obj) {
			fmt.Fprintf(&b, "%s: %s\n", fl.Key, fl.Value)
		}
	} else if generic != nil {
		b.WriteString(detailValue(generic))
		b.WriteByte('\n')
	}
	_, err = io.WriteString(w, b.String())
	return err
}
