package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/f5xc/xcsh/pkg/secrets"
)

// Manager selects a formatter by format and applies the shared options.
type Manager struct {
	formatters map[Format]Formatter
	config     *FormatConfig
}

// NewManager creates a manager with the table, json, yaml and text
// formatters registered.
func NewManager() *Manager {
	m := &Manager{
		formatters: make(map[Format]Formatter),
		config:     NewFormatConfig(),
	}
	m.RegisterFormatter(FormatTable, NewTableFormatter())
	m.RegisterFormatter(FormatJSON, NewJSONFormatter())
	m.RegisterFormatter(FormatYAML, NewYAMLFormatter())
	m.RegisterFormatter(FormatText, NewTextFormatter())
	return m
}

// RegisterFormatter registers or replaces the formatter for format.
func (m *Manager) RegisterFormatter(format Format, formatter Formatter) {
	m.formatters[format] = formatter
}

// GetFormatter returns the formatter for format.
func (m *Manager) GetFormatter(format Format) (Formatter, error) {
	formatter, ok := m.formatters[format]
	if !ok {
		return nil, fmt.Errorf("formatter '%s' not found", format)
	}
	return formatter, nil
}

// SetConfig sets the format configuration.
func (m *Manager) SetConfig(config *FormatConfig) {
	m.config = config
}

// Config returns the current format configuration.
func (m *Manager) Config() *FormatConfig {
	return m.config
}

// Format writes data to w in format.
func (m *Manager) Format(w io.Writer, data any, format Format) error {
	return m.FormatWithConfig(w, data, format, m.config)
}

// FormatWithConfig writes data to w in format using config.
func (m *Manager) FormatWithConfig(w io.Writer, data any, format Format, config *FormatConfig) error {
	formatter, err := m.GetFormatter(format)
	if err != nil {
		return err
	}
	if config == nil {
		config = NewFormatConfig()
	}
	if config.MaskSecrets {
		generic, err := Generic(data)
		if err != nil {
			return err
		}
		data = secrets.MaskFields(generic)
	}
	if !formatter.Supports(data) {
		return fmt.Errorf("formatter '%s' does not support data type %T", format, data)
	}
	return formatter.Format(w, data, config)
}

// Lines renders data and splits the result into lines without the trailing
// newline.
func (m *Manager) Lines(data any, format Format) ([]string, error) {
	var buf bytes.Buffer
	if err := m.Format(&buf, data, format); err != nil {
		return nil, err
	}
	text := strings.TrimRight(buf.String(), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// Print writes data to stdout.
func (m *Manager) Print(data any, format Format) error {
	return m.Format(os.Stdout, data, format)
}
