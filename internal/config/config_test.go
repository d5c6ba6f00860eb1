package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "https://space.ai-builders.com" {
		t.Errorf("Upstream.BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Model != "gemini-3-flash-preview" {
		t.Errorf("Upstream.Model = %q", cfg.Upstream.Model)
	}
	if cfg.Upstream.TimeoutSeconds != 30 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want 30", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Prompts.Path != "prompts/prompts.md" {
		t.Errorf("Prompts.Path = %q", cfg.Prompts.Path)
	}
	if cfg.Extract.MaxTokens != 2000 {
		t.Errorf("Extract.MaxTokens = %d, want 2000", cfg.Extract.MaxTokens)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TIMELINE_SERVER__PORT", "9000")
	t.Setenv("TIMELINE_UPSTREAM__MODEL", "another-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Upstream.Model != "another-model" {
		t.Errorf("Upstream.Model = %q, want another-model", cfg.Upstream.Model)
	}
}

func TestLoad_LegacyTokenEnv(t *testing.T) {
	t.Setenv("AI_BUILDER_TOKEN", "legacy-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Upstream.Token != "legacy-secret" {
		t.Errorf("Upstream.Token = %q, want legacy-secret", cfg.Upstream.Token)
	}
}

func TestLoad_TokenEnvSubstitution(t *testing.T) {
	t.Setenv("MY_SECRET", "s3cret")
	t.Setenv("TIMELINE_UPSTREAM__TOKEN", "${MY_SECRET}")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Upstream.Token != "s3cret" {
		t.Errorf("Upstream.Token = %q, want s3cret", cfg.Upstream.Token)
	}
}
