package config

import (
	"fmt"
	"os"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type AnthropicConfig struct {
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	ClassifierModel string `toml:"classifier_model"`
	MaxTokens       int    `toml:"max_tokens"`
}

type UserConfig struct {
	Anthropic           AnthropicConfig `toml:"anthropic"`
	DefaultSystemPrompt string          `toml:"default_system_prompt,omitempty"`
}

type Config struct {
	DataDirectory       string
	BaseURL             string
	APIKey              string
	Model               string
	ClassifierModel     string
	MaxTokens           int
	DefaultSystemPrompt string
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// applyEnvOverrides lets environment variables take precedence over the
// config files. The API key is env-only and is never written to disk.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("AURORA_API_KEY"); key != "" {
		c.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.APIKey = key
	}
	if model := os.Getenv("AURORA_MODEL"); model != "" {
		c.Model = model
	}
	if dataDir := os.Getenv("AURORA_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
}

func CheckDebug() bool {
	debug := os.Getenv("AURORA_DEBUG")
	return debug == "true" || debug == "1"
}

func CheckStream() bool {
	stream := os.Getenv("AURORA_STREAM")
	return stream == "true" || stream == "1"
}

func Load() (*Config, error) {
	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}

	cfg := &Config{
		DataDirectory: systemCfg.DataDirectory,
	}

	dataDir := cfg.DataDir()
	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	cfg.BaseURL = userCfg.Anthropic.BaseURL
	cfg.Model = userCfg.Anthropic.Model
	cfg.ClassifierModel = userCfg.Anthropic.ClassifierModel
	cfg.MaxTokens = userCfg.Anthropic.MaxTokens
	cfg.DefaultSystemPrompt = userCfg.DefaultSystemPrompt

	cfg.applyEnvOverrides()

	dataDir = cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}
