// Package config handles loading, layering and validation of xcsh settings.
//
// Precedence, highest first: command-line flags, environment variables, the
// active connection profile, the config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/f5xc/xcsh/pkg/api"
)

// AppName names the XDG directories.
const AppName = "xcsh"

// Settings is the resolved configuration.
type Settings struct {
	ServerURL string        `mapstructure:"server_url" yaml:"server_url,omitempty"`
	APIToken  string        `mapstructure:"api_token" yaml:"api_token,omitempty"`
	Namespace string        `mapstructure:"namespace" yaml:"namespace,omitempty"`
	Output    string        `mapstructure:"output" yaml:"output,omitempty"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
	Debug     bool          `mapstructure:"debug" yaml:"debug,omitempty"`
	NoColor   bool          `mapstructure:"no_color" yaml:"no_color,omitempty"`
	// Keyring stores profile tokens in the OS keyring instead of the
	// profile file.
	Keyring bool   `mapstructure:"keyring" yaml:"keyring,omitempty"`
	Profile string `mapstructure:"profile" yaml:"profile,omitempty"`
	// SpecDir adds API specifications to the embedded catalog.
	SpecDir string        `mapstructure:"spec_dir" yaml:"spec_dir,omitempty"`
	Retry   RetrySettings `mapstructure:"retry" yaml:"retry,omitempty"`
}

// RetrySettings mirrors api.RetryConfig.
type RetrySettings struct {
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay,omitempty"`
	MaxDelay     time.Duration `mapstructure:"max_delay" yaml:"max_delay,omitempty"`
	Multiplier   float64       `mapstructure:"multiplier" yaml:"multiplier,omitempty"`
	Jitter       bool          `mapstructure:"jitter" yaml:"jitter,omitempty"`
}

// RetryConfig converts the settings for the API client.
func (r RetrySettings) RetryConfig() *api.RetryConfig {
	return &api.RetryConfig{
		MaxRetries:   r.MaxRetries,
		InitialDelay: r.InitialDelay,
		MaxDelay:     r.MaxDelay,
		Multiplier:   r.Multiplier,
		Jitter:       r.Jitter,
	}
}

// ProfileOverlay returns the settings a named profile contributes. An empty
// name selects the active profile; no active profile yields nil.
type ProfileOverlay func(name string) (map[string]any, error)

// LoadOptions are the inputs of Loader.Load.
type LoadOptions struct {
	// Flags are the parsed persistent flags. Only flags the user set
	// override lower layers.
	Flags *pflag.FlagSet
	// ConfigFile overrides the default config file location.
	ConfigFile string
	Overlay    ProfileOverlay
}

// Loader reads settings from every layer.
type Loader struct {
	appName string
}

// NewLoader creates a loader for appName's XDG directories.
func NewLoader(appName string) *Loader {
	return &Loader{appName: appName}
}

// ConfigDir returns the XDG config directory of the application.
func (l *Loader) ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, l.appName)
}

// CacheDir returns the XDG cache directory of the application.
func (l *Loader) CacheDir() string {
	return filepath.Join(xdg.CacheHome, l.appName)
}

// ConfigFilePath resolves the config file location: the explicit path, then
// F5XC_CONFIG, then config.yaml in the config directory.
func (l *Loader) ConfigFilePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return filepath.Join(l.ConfigDir(), "config.yaml")
}

// Load resolves the settings.
func (l *Loader) Load(opts *LoadOptions) (*Settings, error) {
	if opts == nil {
		opts = &LoadOptions{}
	}
	v := viper.New()
	setDefaults(v)

	path := l.ConfigFilePath(opts.ConfigFile)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}
	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	if opts.Overlay != nil {
		if err := applyProfile(v, opts.Overlay); err != nil {
			return nil, err
		}
	}

	if raw := v.GetString("timeout"); raw != "" {
		d, err := ParseTimeout(raw)
		if err != nil {
			return nil, err
		}
		v.Set("timeout", d)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if os.Getenv(EnvNoColor) != "" {
		s.NoColor = true
	}
	return &s, nil
}

// EnsureDirs creates the config and cache directories.
func (l *Loader) EnsureDirs() error {
	for _, dir := range []string{l.ConfigDir(), l.CacheDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Save writes settings to the config file. Secrets are never written.
func (l *Loader) Save(path string, s *Settings) error {
	path = l.ConfigFilePath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	out := *s
	out.APIToken = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
