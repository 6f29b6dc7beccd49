package coach

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator generates tips with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a GenAI client. Credentials come from the
// environment (GOOGLE_API_KEY or Vertex AI settings).
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	if model == "" {
		model = DefaultModelName
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// GenerateTip implements TipGenerator.
func (g *GeminiGenerator) GenerateTip(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenerateTip: generate content: %w", err)
	}
	return resp.Text(), nil
}

var _ TipGenerator = (*GeminiGenerator)(nil)
