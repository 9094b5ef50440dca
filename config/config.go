// Package config loads qdbg's runtime settings: defaults, overridable
// by an optional YAML file and QDBG_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every knob the qdbg binary exposes.
type Config struct {
	Simulation struct {
		// Seed seeds the measurement RNG; 0 means OS entropy.
		Seed int64 `mapstructure:"seed"`
		// DefaultSimilarityThreshold is loaded but not consulted by the
		// assertion parser; an assert-eq line that omits a threshold
		// uses 1.0.
		DefaultSimilarityThreshold float64 `mapstructure:"default_similarity_threshold"`
	} `mapstructure:"simulation"`

	Diagnostics struct {
		// MaxErrorCauses bounds how many causes an explain request asks for.
		MaxErrorCauses int `mapstructure:"max_error_causes"`
	} `mapstructure:"diagnostics"`

	Logging struct {
		Level  string `mapstructure:"level"`  // zerolog level name
		Pretty bool   `mapstructure:"pretty"` // console writer instead of JSON
	} `mapstructure:"logging"`
}

// Default returns the configuration qdbg runs with before any file or
// environment override is applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Simulation.Seed = 0
	cfg.Simulation.DefaultSimilarityThreshold = 0.999
	cfg.Diagnostics.MaxErrorCauses = 3
	cfg.Logging.Level = "info"
	cfg.Logging.Pretty = true
	return cfg
}

// Load builds a Config starting from Default, then layers in
// ~/.qdbg.yaml (or the file named by explicitPath) and QDBG_-prefixed
// environment variables (e.g. QDBG_SIMULATION_SEED). A missing
// ~/.qdbg.yaml is not an error; a missing explicitPath file is.
func Load(explicitPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(".qdbg")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("QDBG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about; bind each one so an
	// environment variable applies even when no config file sets it.
	for _, key := range []string{
		"simulation.seed", "simulation.default_similarity_threshold",
		"diagnostics.max_error_causes", "logging.level", "logging.pretty",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// DefaultPath reports where Load looks when no explicit path is given,
// for a --config flag's help text.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".qdbg.yaml"
	}
	return filepath.Join(home, ".qdbg.yaml")
}
