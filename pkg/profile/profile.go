// Package profile manages named connection profiles.
//
// Profiles are YAML files under the xcsh config directory, one per profile,
// with the active profile name kept in a sibling file. Tokens are stored in
// the profile file or, when a TokenStore is configured, outside it.
package profile

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/f5xc/xcsh/pkg/validation"
)

// Profile is one set of connection settings.
type Profile struct {
	Name             string `yaml:"name" json:"name"`
	APIURL           string `yaml:"apiUrl" json:"apiUrl"`
	APIToken         string `yaml:"apiToken,omitempty" json:"apiToken,omitempty"`
	DefaultNamespace string `yaml:"defaultNamespace,omitempty" json:"defaultNamespace,omitempty"`
	P12Bundle        string `yaml:"p12Bundle,omitempty" json:"p12Bundle,omitempty"`
	Cert             string `yaml:"cert,omitempty" json:"cert,omitempty"`
	Key              string `yaml:"key,omitempty" json:"key,omitempty"`
}

var profileName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,62}$`)

// ValidateName checks that name is usable as a profile file name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	if validation.IsSecurityViolation(name) {
		return fmt.Errorf("profile name %q contains unsafe characters", name)
	}
	if strings.Contains(name, "..") || !profileName.MatchString(name) {
		return fmt.Errorf("profile name %q must start with a letter or digit and contain only letters, digits, '.', '_' and '-'", name)
	}
	return nil
}

// Validate checks the required fields.
func (p *Profile) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if p.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	u, err := url.Parse(p.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API URL %q must be an absolute http or https URL", p.APIURL)
	}
	return nil
}

// Normalize trims whitespace from every field.
func (p *Profile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.APIURL = strings.TrimSpace(p.APIURL)
	p.APIToken = strings.TrimSpace(p.APIToken)
	p.DefaultNamespace = strings.TrimSpace(p.DefaultNamespace)
	p.P12Bundle = strings.TrimSpace(p.P12Bundle)
	p.Cert = strings.TrimSpace(p.Cert)
	p.Key = strings.TrimSpace(p.Key)
}

// Settings returns the profile's contribution to the layered settings.
func (p *Profile) Settings() map[string]any {
	return map[string]any{
		"server_url": p.APIURL,
		"api_token":  p.APIToken,
		"namespace":  p.DefaultNamespace,
	}
}

// Tenant derives the tenant name from the API URL host, e.g. "acme" for
// https://acme.console.ves.volterra.io.
func Tenant(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := u.Hostname()
	if host == "localhost" || strings.HasPrefix(host, "127.") {
		return "local"
	}
	if i := strings.Index(host, "."); i > 0 {
		return host[:i]
	}
	return host
}
