// Package narrate streams model-written narration for demo agents.
//
// A Narrator turns a prompt into streamed text deltas. Implementations wrap
// the Anthropic, OpenAI, and Google GenAI SDKs, reduced to plain text
// streaming: one user turn in, prose deltas out. No tool calls, no
// structured output. Demo servers use a Narrator when an API key is
// configured and fall back to canned text when none is.
package narrate

import (
	"context"
	"fmt"
)

// Narrator streams narration for a prompt, calling fn once per text delta.
// Stream returns the first error from fn or from the underlying provider.
type Narrator interface {
	Stream(ctx context.Context, prompt string, fn func(delta string) error) error
}

// Config carries provider credentials and an optional model override.
type Config struct {
	AnthropicKey string
	OpenAIKey    string
	GoogleKey    string

	// Vertex AI authenticates with Application Default Credentials.
	VertexProject  string
	VertexLocation string

	// Model overrides the provider default when set.
	Model string
}

// New builds a Narrator for the named provider: "anthropic", "openai",
// "google" (Gemini API), or "vertex" (Vertex AI backend).
func New(ctx context.Context, provider string, cfg Config) (Narrator, error) {
	switch provider {
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return newAnthropic(cfg.AnthropicKey, cfg.Model), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return newOpenAI(cfg.OpenAIKey, cfg.Model), nil
	case "google":
		if cfg.GoogleKey == "" {
			return nil, fmt.Errorf("google provider requires an API key")
		}
		return newGemini(ctx, cfg.GoogleKey, cfg.Model)
	case "vertex":
		if cfg.VertexProject == "" || cfg.VertexLocation == "" {
			return nil, fmt.Errorf("vertex provider requires a project and location")
		}
		return newVertex(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (must be anthropic, openai, google, or vertex)", provider)
	}
}
