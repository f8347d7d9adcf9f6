package assistant

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIGenerator generates text through the Google GenAI SDK.
type GenAIGenerator struct {
	client *genai.Client
}

// NewGenAIGenerator creates a Gemini API client. No request is made until
// Generate is called.
func NewGenAIGenerator(ctx context.Context, apiKey string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client}, nil
}

// Generate sends the turns in order and returns the text of the first candidate.
func (g *GenAIGenerator) Generate(ctx context.Context, model string, turns []Turn) (string, error) {
	contents := make([]*genai.Content, len(turns))
	for i, t := range turns {
		contents[i] = genai.NewContentFromText(t.Text, genai.Role(t.Role))
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}
