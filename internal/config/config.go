// Package config loads service configuration from an optional config.yaml
// and TIMELINE_-prefixed environment variables.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Prompts  PromptsConfig  `koanf:"prompts"`
	Extract  ExtractConfig  `koanf:"extract"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// UpstreamConfig describes the AI Builder Space API hosting both the
// transcription and chat completion endpoints.
type UpstreamConfig struct {
	BaseURL        string `koanf:"base_url"`
	Token          string `koanf:"token"`
	Model          string `koanf:"model"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
}

type PromptsConfig struct {
	Path string `koanf:"path"`
}

type ExtractConfig struct {
	MaxTokens    int `koanf:"max_tokens"`
	PromptBudget int `koanf:"prompt_budget"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load from config.yaml file first
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("TIMELINE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "TIMELINE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	hadBaseURL := k.Exists("upstream.base_url")
	hadModel := k.Exists("upstream.model")

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("upstream.base_url") {
		k.Set("upstream.base_url", "https://space.ai-builders.com")
	}
	if !k.Exists("upstream.model") {
		k.Set("upstream.model", "gemini-3-flash-preview")
	}
	if !k.Exists("upstream.timeout_seconds") {
		k.Set("upstream.timeout_seconds", 30)
	}
	if !k.Exists("prompts.path") {
		k.Set("prompts.path", "prompts/prompts.md")
	}
	if !k.Exists("extract.max_tokens") {
		k.Set("extract.max_tokens", 2000)
	}
	if !k.Exists("extract.prompt_budget") {
		k.Set("extract.prompt_budget", 16000)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in the upstream token so secrets can
	// be referenced from the yaml file as ${AI_BUILDER_TOKEN}
	cfg.Upstream.Token = substituteEnvVars(cfg.Upstream.Token)

	// Legacy environment variables from earlier deployments.
	if cfg.Upstream.Token == "" {
		cfg.Upstream.Token = os.Getenv("AI_BUILDER_TOKEN")
	}
	if base := os.Getenv("AI_BUILDER_API_BASE"); base != "" && !hadBaseURL {
		cfg.Upstream.BaseURL = base
	}
	if model := os.Getenv("LLM_MODEL"); model != "" && !hadModel {
		cfg.Upstream.Model = model
	}

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
