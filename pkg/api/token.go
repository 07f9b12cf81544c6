package api

import (
	"context"
	"net/http"
)

// TokenValidation is the outcome of ValidateToken.
type TokenValidation struct {
	Valid bool
	Error string
}

// ValidateOptions tunes ValidateToken.
type ValidateOptions struct {
	// StartupMode uses a short timeout and no retries, and reports network
	// failures as an unreachable endpoint.
	StartupMode bool
}

// ValidateToken probes the namespaces endpoint with the configured token.
// Only 401 and 403 mark the token invalid. Any other failure in normal mode
// leaves the token assumed valid.
func (c *Client) ValidateToken(ctx context.Context, opts ValidateOptions) TokenValidation {
	if c.token == "" {
		return c.setValidation(false, "No API token configured")
	}

	req := RequestOptions{Method: http.MethodGet, Path: tokenProbePath}
	if opts.StartupMode {
		zero := 0
		req.Timeout = c.startupTimeout
		req.MaxRetries = &zero
	}
	c.logger.Debug("validating token", c.logger.Args("server", c.baseURL, "startup", opts.StartupMode))

	_, err := c.Do(ctx, req)
	if err == nil {
		return c.setValidation(true, "")
	}

	apiErr, ok := AsAPIError(err)
	if !ok {
		if opts.StartupMode {
			return c.setValidation(false, "API endpoint unreachable - "+err.Error())
		}
		c.logger.Debug("token validation error, assuming valid", c.logger.Args("error", err.Error()))
		return c.setValidation(true, "")
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return c.setValidation(false, "Invalid or expired API token")
	case http.StatusForbidden:
		return c.setValidation(false, "Token lacks required permissions")
	case http.StatusRequestTimeout, 0:
		if opts.StartupMode {
			return c.setValidation(false, "API endpoint unreachable - request timed out")
		}
	}
	c.logger.Debug("token probe failed, assuming valid", c.logger.Args("status", apiErr.StatusCode))
	return c.setValidation(true, "")
}

func (c *Client) setValidation(valid bool, msg string) TokenValidation {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validated = valid
	c.validationError = msg
	return TokenValidation{Valid: valid, Error: msg}
}

// IsValidated reports whether the last validation succeeded.
func (c *Client) IsValidated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validated
}

// ValidationError returns the last validation failure message.
func (c *Client) ValidationError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validationError
}

// ClearValidationCache forgets the last validation result. Callers invoke it
// when credentials change.
func (c *Client) ClearValidationCache() {
	c.setValidation(false, "")
}
