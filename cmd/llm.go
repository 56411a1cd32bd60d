package cmd

import (
	"context"
	"os"

	"github.com/spf13/viper"

	"github.com/joescharf/reviewmate/internal/llm"
)

// providerKeyEnv names the provider SDK's own API key variable, honored
// when llm.api_key is unset.
var providerKeyEnv = map[string]string{
	llm.ProviderGemini:    "GEMINI_API_KEY",
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// newReviewer creates the AI reviewer from config/env. A missing API key
// still yields a reviewer; its reviews fall back to the original code.
func newReviewer(ctx context.Context) (llm.Reviewer, error) {
	provider := viper.GetString("llm.provider")
	apiKey := viper.GetString("llm.api_key")
	if apiKey == "" {
		if env, ok := providerKeyEnv[provider]; ok {
			apiKey = os.Getenv(env)
		}
	}
	if apiKey == "" && provider != llm.ProviderDummy {
		ui.VerboseLog("No API key for %s; reviews will return the original code", provider)
	}

	return llm.New(ctx, llm.Config{
		Provider: provider,
		APIKey:   apiKey,
		Model:    viper.GetString("llm.model"),
		Timeout:  viper.GetDuration("llm.timeout"),
	})
}
