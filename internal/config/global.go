// Package config handles global configuration and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/reffix/config.yml.
// Pointer fields distinguish an explicit zero from an unset key.
type GlobalConfig struct {
	DBLPURL        string   `yaml:"dblp_url,omitempty"`
	UserAgent      string   `yaml:"user_agent,omitempty"`
	RateLimit      *float64 `yaml:"rate_limit,omitempty"`
	MaxRetries     *int     `yaml:"max_retries,omitempty"`
	MaxHits        int      `yaml:"max_hits,omitempty"`
	Concurrency    int      `yaml:"concurrency,omitempty"`
	TitleThreshold float64  `yaml:"title_threshold,omitempty"`
	LogLevel       string   `yaml:"log_level,omitempty"`
	LogFormat      string   `yaml:"log_format,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "reffix"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// DotEnvFile is read from the working directory when present.
	DotEnvFile = ".env"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/reffix/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config %s: %w", path, err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// LoadDotEnv loads REFFIX_* variables from a .env file into the process
// environment. A missing file is not an error; variables already set win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DotEnvFile
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
