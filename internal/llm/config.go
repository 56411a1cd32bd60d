package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderDummy     = "dummy"
)

// Default models per provider.
const (
	DefaultGeminiModel    = "gemini-2.5-pro"
	DefaultAnthropicModel = "claude-haiku-4-5-20251001"
)

// Config selects and configures a Reviewer.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New builds the Reviewer described by cfg. A live provider without an API
// key is not an error: the returned Reviewer falls back on every call.
func New(ctx context.Context, cfg Config) (Reviewer, error) {
	switch cfg.Provider {
	case ProviderDummy:
		return Dummy{}, nil
	case ProviderGemini, "":
		if cfg.APIKey == "" {
			return &Client{gen: missingKey{provider: ProviderGemini, env: "GEMINI_API_KEY"}}, nil
		}
		gen, err := newGeminiGenerator(ctx, cfg.APIKey, firstNonEmpty(cfg.Model, DefaultGeminiModel))
		if err != nil {
			return nil, err
		}
		return &Client{gen: gen, timeout: cfg.Timeout}, nil
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return &Client{gen: missingKey{provider: ProviderAnthropic, env: "ANTHROPIC_API_KEY"}}, nil
		}
		gen := newAnthropicGenerator(cfg.APIKey, firstNonEmpty(cfg.Model, DefaultAnthropicModel))
		return &Client{gen: gen, timeout: cfg.Timeout}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (use: gemini, anthropic, dummy)", cfg.Provider)
	}
}

// missingKey fails every request because no API key is configured.
type missingKey struct {
	provider string
	env      string
}

func (m missingKey) Generate(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%s is not configured", m.env)
}

func (m missingKey) Name() string { return m.provider }
