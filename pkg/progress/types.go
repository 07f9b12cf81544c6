// Package progress shows spinners and progress bars while the shell waits on
// the API.
package progress

import (
	"io"
	"os"
)

// Type selects the kind of indicator.
type Type int

const (
	// TypeSpinner shows a spinner for single calls.
	TypeSpinner Type = iota + 1
	// TypeBar shows a bar for a known number of calls.
	TypeBar
	// TypeNone disables the indicator.
	TypeNone
)

func (t Type) String() string {
	switch t {
	case TypeSpinner:
		return "spinner"
	case TypeBar:
		return "bar"
	case TypeNone:
		return "none"
	}
	return "unknown"
}

// Indicator is implemented by every progress indicator.
type Indicator interface {
	Start(message string) error
	Update(message string) error
	// Increment advances a bar by one step. Spinners ignore it.
	Increment() error
	Success(message string) error
	Failure(message string) error
	Stop() error
	IsActive() bool
}

// Config configures an indicator.
type Config struct {
	Type Type

	// Enabled is false for non-interactive sessions and structured output.
	Enabled bool

	// Writer receives the indicator output. Nil means stderr.
	Writer io.Writer
}

// DefaultConfig returns an enabled spinner writing to stderr.
func DefaultConfig() *Config {
	return &Config{
		Type:    TypeSpinner,
		Enabled: true,
		Writer:  os.Stderr,
	}
}

func (c *Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stderr
	}
	return c.Writer
}
