package config

// Environment variable names.
const (
	EnvAPIURL    = "F5XC_API_URL"
	EnvAPIToken  = "F5XC_API_TOKEN"
	EnvNamespace = "F5XC_NAMESPACE"
	EnvOutput    = "F5XC_OUTPUT"
	EnvDebug     = "F5XC_DEBUG"
	EnvTimeout   = "F5XC_TIMEOUT"
	EnvProfile   = "F5XC_PROFILE"
	EnvConfig    = "F5XC_CONFIG"
	EnvNoColor   = "NO_COLOR"
)

// EnvVar describes one supported environment variable.
type EnvVar struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	RelatedFlag string `json:"related_flag,omitempty" yaml:"related_flag,omitempty"`
	Sensitive   bool   `json:"sensitive,omitempty" yaml:"sensitive,omitempty"`
	// Key is the setting the variable feeds, empty when handled elsewhere.
	Key string `json:"-" yaml:"-"`
}

// EnvVars is the single list of supported environment variables. It feeds
// setting resolution, --help and --spec output.
var EnvVars = []EnvVar{
	{Name: EnvAPIURL, Description: "F5 Distributed Cloud API endpoint URL.", RelatedFlag: "--server-url", Key: "server_url"},
	{Name: EnvAPIToken, Description: "API token for authenticating with F5 Distributed Cloud services.", Sensitive: true, Key: "api_token"},
	{Name: EnvNamespace, Description: "Default namespace for resource commands.", RelatedFlag: "--namespace", Key: "namespace"},
	{Name: EnvOutput, Description: "Default output format (table, json, yaml or text).", RelatedFlag: "--output", Key: "output"},
	{Name: EnvDebug, Description: "Enable debug logging of API requests.", RelatedFlag: "--debug", Key: "debug"},
	{Name: EnvTimeout, Description: "Per-request timeout, e.g. 15s.", RelatedFlag: "--timeout", Key: "timeout"},
	{Name: EnvProfile, Description: "Connection profile to use instead of the active one.", RelatedFlag: "--profile", Key: "profile"},
	{Name: EnvConfig, Description: "Path to the xcsh configuration file.", RelatedFlag: "--config"},
	{Name: EnvNoColor, Description: "Disable colored output when set to any value.", RelatedFlag: "--no-color"},
}

// LookupEnvVar returns the entry for name.
func LookupEnvVar(name string) (EnvVar, bool) {
	for _, e := range EnvVars {
		if e.Name == name {
			return e, true
		}
	}
	return EnvVar{}, false
}
