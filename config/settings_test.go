package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUserConfigCreatesDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		t.Fatalf("failed to load user config: %v", err)
	}

	if cfg.Anthropic.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base URL, got %q", cfg.Anthropic.BaseURL)
	}
	if cfg.Anthropic.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected default max tokens, got %d", cfg.Anthropic.MaxTokens)
	}

	if !FileExists(filepath.Join(dataDir, "config.toml")) {
		t.Error("expected a default config file to be written")
	}
}

func TestLoadUserConfigFillsPartialFile(t *testing.T) {
	dataDir := t.TempDir()
	partial := "[anthropic]\nmodel = \"claude-test-model\"\n"
	if err := os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte(partial), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		t.Fatalf("failed to load user config: %v", err)
	}

	if cfg.Anthropic.Model != "claude-test-model" {
		t.Errorf("expected model from file, got %q", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.BaseURL != DefaultBaseURL {
		t.Errorf("missing fields must fall back to defaults, got %q", cfg.Anthropic.BaseURL)
	}
	if cfg.Anthropic.ClassifierModel != DefaultClassifierModel {
		t.Errorf("missing fields must fall back to defaults, got %q", cfg.Anthropic.ClassifierModel)
	}
}

func TestSaveUserConfigRoundTrip(t *testing.T) {
	dataDir := t.TempDir()

	in := DefaultUserConfig()
	in.Anthropic.Model = "claude-roundtrip"
	in.Anthropic.MaxTokens = 2048
	if err := SaveUserConfig(in, dataDir); err != nil {
		t.Fatalf("failed to save user config: %v", err)
	}

	out, err := LoadUserConfig(dataDir)
	if err != nil {
		t.Fatalf("failed to reload user config: %v", err)
	}
	if out.Anthropic.Model != "claude-roundtrip" || out.Anthropic.MaxTokens != 2048 {
		t.Errorf("round trip lost values: %+v", out.Anthropic)
	}

	info, err := os.Stat(filepath.Join(dataDir, "config.toml"))
	if err != nil {
		t.Fatalf("failed to stat config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestExpandPath(t *testing.T) {
	home := GetHomeDir()
	if got := ExpandPath("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("unexpected expansion: %q", got)
	}
	if got := ExpandPath("/absolute/path"); got != "/absolute/path" {
		t.Errorf("absolute paths must pass through, got %q", got)
	}
}
