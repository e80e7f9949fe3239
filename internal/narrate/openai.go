package narrate

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-5.2"

type openaiNarrator struct {
	client *openai.Client
	model  string
}

func newOpenAI(apiKey, model string) *openaiNarrator {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openaiNarrator{client: &client, model: model}
}

func (n *openaiNarrator) Stream(ctx context.Context, prompt string, fn func(delta string) error) error {
	stream := n.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model: n.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := fn(chunk.Choices[0].Delta.Content); err != nil {
				return err
			}
		}
	}
	return stream.Err()
}
