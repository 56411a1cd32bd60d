package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiGenerator calls the Gemini API through the GenAI SDK.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

func newGeminiGenerator(ctx context.Context, apiKey, model string) (*geminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiGenerator{client: client, model: model}, nil
}

func (g *geminiGenerator) Name() string { return ProviderGemini }

func (g *geminiGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		},
	}
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini API call: %w", err)
	}

	text := geminiText(resp)
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return text, nil
}

// geminiText concatenates the text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
