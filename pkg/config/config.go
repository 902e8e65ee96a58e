// Package config loads and writes the .aicomment.yaml project file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"aicomment/pkg/llm"

	"gopkg.in/yaml.v2"
)

// FileName is the name of the project configuration file
const FileName = ".aicomment.yaml"

// Defaults applied before the file and flags
const (
	DefaultLineThreshold = 3
	DefaultTokenCeiling  = 2048
)

// ErrConfigExists is returned when Save would overwrite an existing file
var ErrConfigExists = errors.New("configuration file already exists")

// Config holds backend settings and generation defaults for a project
type Config struct {
	llm.Config `yaml:",inline"`

	LineThreshold int      `yaml:"line_threshold"`
	TokenCeiling  int      `yaml:"token_ceiling"`
	Ignore        []string `yaml:"ignore,omitempty"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Config:        *llm.DefaultConfig(),
		LineThreshold: DefaultLineThreshold,
		TokenCeiling:  DefaultTokenCeiling,
	}
}

// Load reads the configuration at path on top of the defaults
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Find looks for the configuration file next to target, then in the working
// directory. It returns an empty string when there is none.
func Find(target string) string {
	var dirs []string
	if target != "" {
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			dirs = append(dirs, target)
		} else {
			dirs = append(dirs, filepath.Dir(target))
		}
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Resolve loads explicit when given, otherwise the file found for target,
// otherwise the defaults. Environment overrides are applied last.
func Resolve(explicit, target string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = Find(target)
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()
	return cfg, path, nil
}

// ApplyEnv fills settings from environment variables
func (c *Config) ApplyEnv() {
	OverrideFromEnv(&c.Config)
}

// OverrideFromEnv replaces the backend URL and model with LLM_URL and
// LLM_MODEL when they are set
func OverrideFromEnv(c *llm.Config) {
	c.URL = getEnvOrDefault("LLM_URL", c.URL)
	c.Model = getEnvOrDefault("LLM_MODEL", c.Model)
}

// Save writes the configuration to path. An existing file is only replaced
// when overwrite is set.
func (c *Config) Save(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Ignored reports whether the file name matches one of the ignore patterns
func (c *Config) Ignored(path string) bool {
	name := filepath.Base(path)
	for _, pattern := range c.Ignore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.ToSlash(path)); matched {
			return true
		}
	}
	return false
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
