package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicGenerator calls the Anthropic Messages API.
type anthropicGenerator struct {
	api   *anthropic.Client
	model anthropic.Model
}

func newAnthropicGenerator(apiKey, model string) *anthropicGenerator {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicGenerator{
		api:   &client,
		model: anthropic.Model(model),
	}
}

func (a *anthropicGenerator) Name() string { return ProviderAnthropic }

func (a *anthropicGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	msg, err := a.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 8192,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in API response")
}
