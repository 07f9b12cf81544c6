package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/f5xc/xcsh/pkg/api"
)

// Defaults applied below every other layer.
const (
	DefaultNamespace = "default"
	DefaultOutput    = "table"
)

func setDefaults(v *viper.Viper) {
	retry := api.DefaultRetryConfig()
	v.SetDefault("namespace", DefaultNamespace)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("timeout", api.DefaultTimeout)
	v.SetDefault("debug", false)
	v.SetDefault("no_color", false)
	v.SetDefault("keyring", false)
	v.SetDefault("retry.max_retries", retry.MaxRetries)
	v.SetDefault("retry.initial_delay", retry.InitialDelay)
	v.SetDefault("retry.max_delay", retry.MaxDelay)
	v.SetDefault("retry.multiplier", retry.Multiplier)
	v.SetDefault("retry.jitter", retry.Jitter)
}

func bindEnv(v *viper.Viper) error {
	for _, e := range EnvVars {
		if e.Key == "" {
			continue
		}
		if err := v.BindEnv(e.Key, e.Name); err != nil {
			return fmt.Errorf("failed to bind %s: %w", e.Name, err)
		}
	}
	return nil
}

// flagKeys maps persistent flag names to setting keys.
var flagKeys = map[string]string{
	"server-url": "server_url",
	"profile":    "profile",
	"debug":      "debug",
	"no-color":   "no_color",
	"timeout":    "timeout",
	"namespace":  "namespace",
	"output":     "output",
	"spec-dir":   "spec_dir",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// applyProfile merges the selected profile above the config file. Empty
// values leave the lower layer in place.
func applyProfile(v *viper.Viper, overlay ProfileOverlay) error {
	name := v.GetString("profile")
	values, err := overlay(name)
	if err != nil {
		return fmt.Errorf("failed to load profile %q: %w", name, err)
	}
	layer := make(map[string]any, len(values))
	for k, val := range values {
		if s, ok := val.(string); ok && s == "" {
			continue
		}
		if val == nil {
			continue
		}
		layer[k] = val
	}
	if len(layer) == 0 {
		return nil
	}
	if err := v.MergeConfigMap(layer); err != nil {
		return fmt.Errorf("failed to apply profile %q: %w", name, err)
	}
	return nil
}
