package narrate

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

type anthropicNarrator struct {
	client *anthropic.Client
	model  anthropic.Model
}

func newAnthropic(apiKey, model string) *anthropicNarrator {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicNarrator{client: &client, model: anthropic.Model(model)}
}

func (n *anthropicNarrator) Stream(ctx context.Context, prompt string, fn func(delta string) error) error {
	stream := n.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     n.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	for stream.Next() {
		event := stream.Current()
		if event.Type == "content_block_delta" {
			delta := event.AsContentBlockDelta()
			if textDelta := delta.Delta.AsTextDelta(); textDelta.Type == "text_delta" {
				if err := fn(textDelta.Text); err != nil {
					return err
				}
			}
		}
	}
	return stream.Err()
}
