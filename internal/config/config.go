// Package config resolves the module configuration at the boundary.
// Providers receive explicit values and never read the environment
// themselves.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the resolved configuration.
type Config struct {
	GitLab  GitLabConfig  `yaml:"gitlab"`
	Prompts PromptsConfig `yaml:"prompts"`
	Logging LoggingConfig `yaml:"logging"`
}

// GitLabConfig holds GitLab-specific settings.
type GitLabConfig struct {
	// BaseURL of the instance. Anything other than the public cloud
	// host implies self-hosted.
	BaseURL string `yaml:"base_url"`
	// Token is an optional personal access token. Without it, comment
	// retrieval is disabled; merge request operations still work
	// through the CLI.
	Token string `yaml:"token"`
}

// PromptsConfig holds follow-up prompt templates.
type PromptsConfig struct {
	// MRDescription overrides the default post-create description
	// prompt. Supports {pr_number} and {pr_url} placeholders.
	MRDescription string `yaml:"mr_description"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		GitLab: GitLabConfig{
			BaseURL: "https://gitlab.com",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and parses the config file at the given path, then
// overlays environment values. An empty path skips the file and
// resolves from environment and defaults alone.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		// Substitute environment variables
		data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
			varName := envVarPattern.FindSubmatch(match)[1]
			return []byte(os.Getenv(string(varName)))
		})

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays well-known environment variables over file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("GITLAB_BASE_URL"); v != "" {
		c.GitLab.BaseURL = v
	}
	if v := os.Getenv("GITLAB_TOKEN"); v != "" {
		c.GitLab.Token = v
	}
	if c.GitLab.BaseURL == "" {
		c.GitLab.BaseURL = "https://gitlab.com"
	}
}
