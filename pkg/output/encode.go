package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// encodeFunc serializes one value to w.
type encodeFunc func(w io.Writer, data any, config *FormatConfig) error

// documentFormatter renders any value as a single json or yaml document.
// API objects are written unchanged so they can be fed back with --file.
type documentFormatter struct {
	format Format
	encode encodeFunc
}

// NewJSONFormatter returns the json formatter. Output is indented unless
// FormatConfig.Pretty is false.
func NewJSONFormatter() Formatter {
	return &documentFormatter{format: FormatJSON, encode: encodeJSON}
}

// NewYAMLFormatter returns the yaml formatter.
func NewYAMLFormatter() Formatter {
	return &documentFormatter{format: FormatYAML, encode: encodeYAML}
}

func (f *documentFormatter) Name() string { return f.format.String() }

func (f *documentFormatter) Supports(any) bool { return true }

func (f *documentFormatter) Format(w io.Writer, data any, config *FormatConfig) error {
	if config == nil {
		config = NewFormatConfig()
	}
	if err := f.encode(w, data, config); err != nil {
		return fmt.Errorf("failed to encode %s: %w", f.format, err)
	}
	return nil
}

func encodeJSON(w io.Writer, data any, config *FormatConfig) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if config.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

func encodeYAML(w io.Writer, data any, _ *FormatConfig) error {
	if data == nil {
		_, err := io.WriteString(w, "null\n")
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}
