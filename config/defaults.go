package config

const (
	DefaultBaseURL         = "https://api.anthropic.com"
	DefaultModel           = "claude-sonnet-4-5-20250929"
	DefaultClassifierModel = "claude-3-5-haiku-20241022"
	DefaultMaxTokens       = 4096
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/aurora",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Anthropic: AnthropicConfig{
			BaseURL:         DefaultBaseURL,
			Model:           DefaultModel,
			ClassifierModel: DefaultClassifierModel,
			MaxTokens:       DefaultMaxTokens,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Aurora System Configuration
# Location: ~/.config/aurora/settings.toml
# This file uses TOML format: https://toml.io

# Directory where the database and user config are stored
data_directory = "~/.local/share/aurora"
`
}

func GenerateUserConfigTemplate() string {
	return `# Aurora User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io
#
# The API key is read from the AURORA_API_KEY (or ANTHROPIC_API_KEY)
# environment variable and is never stored in this file.

[anthropic]
# Anthropic API base URL
base_url = "https://api.anthropic.com"

# Model used for conversation turns
model = "claude-sonnet-4-5-20250929"

# Cheaper model used only for intent classification
classifier_model = "claude-3-5-haiku-20241022"

# Token budget per assistant turn
max_tokens = 4096

# Custom system prompt replacing the built-in one (optional)
default_system_prompt = ""
`
}
