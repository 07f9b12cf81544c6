package extensions

import (
	"context"
	"fmt"
	"net/url"

	"github.com/skratchdot/open-golang/open"

	"github.com/f5xc/xcsh/pkg/domains"
)

// ConsoleDomain is the name of the standalone console extension.
const ConsoleDomain = "console"

// Opener opens a URL in the user's browser.
type Opener func(url string) error

// ConsoleURL derives the web console address from an API server URL.
func ConsoleURL(serverURL string) (string, error) {
	if serverURL == "" {
		return "", fmt.Errorf("no server URL configured")
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse server URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server URL %q has no host", serverURL)
	}
	return fmt.Sprintf("%s://%s/web/home", u.Scheme, u.Host), nil
}

// NewConsoleExtension returns the standalone console domain. A nil opener
// uses the system browser.
func NewConsoleExtension(opener Opener) *Extension {
	if opener == nil {
		opener = open.Start
	}

	resolve := func(s domains.Session) (string, error) {
		if s.Client() == nil {
			return "", fmt.Errorf("not connected: run 'login profile use <name>' first")
		}
		return ConsoleURL(s.Client().ServerURL())
	}

	openCmd := &domains.Command{
		Name:             "open",
		Description:      "Open the tenant web console in the default browser.",
		DescriptionShort: "Open the web console",
		Execute: func(_ context.Context, _ []string, s domains.Session) domains.Result {
			target, err := resolve(s)
			if err != nil {
				return domains.FailErr(err)
			}
			if err := opener(target); err != nil {
				return domains.FailErr(fmt.Errorf("failed to open browser: %w", err))
			}
			return domains.Ok("Opened " + target)
		},
	}

	urlCmd := &domains.Command{
		Name:             "url",
		Description:      "Print the tenant web console address.",
		DescriptionShort: "Print the console URL",
		Execute: func(_ context.Context, _ []string, s domains.Session) domains.Result {
			target, err := resolve(s)
			if err != nil {
				return domains.FailErr(err)
			}
			return domains.Ok(target)
		},
	}

	return &Extension{
		TargetDomain: ConsoleDomain,
		Description:  "Open or print the F5 Distributed Cloud web console address.",
		Commands: map[string]*domains.Command{
			openCmd.Name: openCmd,
			urlCmd.Name:  urlCmd,
		},
		Default: openCmd,
	}
}
