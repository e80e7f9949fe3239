package narrate

import (
	"context"

	"google.golang.org/genai"
)

const defaultGoogleModel = "gemini-2.5-flash"

type googleNarrator struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, apiKey, model string) (*googleNarrator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultGoogleModel
	}
	return &googleNarrator{client: client, model: model}, nil
}

// newVertex targets the Vertex AI backend. Authentication uses Application
// Default Credentials rather than an API key.
func newVertex(ctx context.Context, project, location, model string) (*googleNarrator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: location,
	})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = defaultGoogleModel
	}
	return &googleNarrator{client: client, model: model}, nil
}

func (n *googleNarrator) Stream(ctx context.Context, prompt string, fn func(delta string) error) error {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	config := &genai.GenerateContentConfig{}

	for resp, err := range n.client.Models.GenerateContentStream(ctx, n.model, contents, config) {
		if err != nil {
			return err
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.Text == "" {
					continue
				}
				if err := fn(part.Text); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
