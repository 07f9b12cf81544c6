package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// OutputFormats are the accepted values of the output setting.
var OutputFormats = []string{"table", "json", "yaml", "text"}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validator checks resolved settings.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate checks s and returns ValidationErrors when anything is wrong.
func (v *Validator) Validate(s *Settings) error {
	v.errors = make(ValidationErrors, 0)

	if s.ServerURL != "" && !isValidURL(s.ServerURL) {
		v.addError("server_url", "must be an absolute http or https URL")
	}
	if s.Output != "" && !contains(OutputFormats, s.Output) {
		v.addError("output", fmt.Sprintf("must be one of: %s", strings.Join(OutputFormats, ", ")))
	}
	if s.Timeout < 0 {
		v.addError("timeout", "must not be negative")
	}
	if s.Namespace == "" {
		v.addError("namespace", "must not be empty")
	}
	v.validateRetry(&s.Retry)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) validateRetry(r *RetrySettings) {
	if r.MaxRetries < 0 {
		v.addError("retry.max_retries", "must not be negative")
	}
	if r.InitialDelay < 0 || r.MaxDelay < 0 {
		v.addError("retry", "delays must not be negative")
	}
	if r.MaxDelay > 0 && r.InitialDelay > r.MaxDelay {
		v.addError("retry.initial_delay", "must not exceed retry.max_delay")
	}
	if r.Multiplier != 0 && r.Multiplier < 1 {
		v.addError("retry.multiplier", "must be at least 1")
	}
}

// ValidateOutputFormat checks a single output format value.
func ValidateOutputFormat(format string) error {
	if !contains(OutputFormats, strings.ToLower(format)) {
		return &ValidationError{Field: "output", Message: fmt.Sprintf("unknown format %q (use %s)", format, strings.Join(OutputFormats, ", "))}
	}
	return nil
}

// ParseTimeout accepts a Go duration or a bare number of seconds.
func ParseTimeout(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return d, nil
	}
	var secs int
	if _, err := fmt.Sscanf(value, "%d", &secs); err == nil && fmt.Sprint(secs) == value {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, &ValidationError{Field: "timeout", Message: fmt.Sprintf("invalid duration %q", value)}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
