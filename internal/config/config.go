// Package config loads lineage reporting configuration from defaults,
// config files, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultNamespace qualifies datasets when no namespace is configured.
const DefaultNamespace = "leapsql"

// ErrURLRequired is returned by Validate when no catalog URL is set.
var ErrURLRequired = errors.New("catalog url is required")

// Config holds the settings for reporting lineage to a catalog.
type Config struct {
	// URL is the catalog API base URL.
	URL string `koanf:"url"`
	// Namespace qualifies every dataset and job name.
	Namespace string `koanf:"namespace"`
	// APIKey authenticates against the catalog. Optional.
	APIKey string `koanf:"api_key"`
	// ValidateDatasets resolves datasets against the catalog before
	// emitting, pruning ones the catalog does not know.
	ValidateDatasets bool `koanf:"validate_datasets"`
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
}

// Validate checks that the config is usable.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrURLRequired
	}
	return nil
}

// findConfigFile finds the config file to use.
// Priority: explicit path > leaplineage.yaml > leaplineage.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"leaplineage.yaml", "leaplineage.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration in precedence order (highest to lowest):
// overrides > LEAPLINEAGE_* env vars > OPENMETADATA_* env vars > config
// file > defaults. Only non-zero override fields participate.
func Load(cfgFile string, overrides Config) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"namespace": DefaultNamespace,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, discovered in the working directory if no
	// explicit path was given.
	if found := findConfigFile(cfgFile); found != "" {
		if err := k.Load(file.Provider(found), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", found, err)
		}
	}

	// 3. Catalog-native variables, kept for compatibility with
	// deployments that already export OPENMETADATA_* settings.
	fallback := map[string]interface{}{}
	for envName, key := range map[string]string{
		"OPENMETADATA_URL":       "url",
		"OPENMETADATA_NAMESPACE": "namespace",
		"OPENMETADATA_API_KEY":   "api_key",
	} {
		if v := os.Getenv(envName); v != "" {
			fallback[key] = v
		}
	}
	if len(fallback) > 0 {
		if err := k.Load(confmap.Provider(fallback, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load env vars: %w", err)
		}
	}

	// 4. Environment variables (LEAPLINEAGE_ prefix).
	// Transform: LEAPLINEAGE_API_KEY -> api_key
	if err := k.Load(env.Provider("LEAPLINEAGE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LEAPLINEAGE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Programmatic overrides (highest priority).
	over := map[string]interface{}{}
	if overrides.URL != "" {
		over["url"] = overrides.URL
	}
	if overrides.Namespace != "" {
		over["namespace"] = overrides.Namespace
	}
	if overrides.APIKey != "" {
		over["api_key"] = overrides.APIKey
	}
	if overrides.ValidateDatasets {
		over["validate_datasets"] = true
	}
	if len(over) > 0 {
		if err := k.Load(confmap.Provider(over, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}
