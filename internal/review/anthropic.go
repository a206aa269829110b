package review

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mgpai22/fillercut/internal/transcript"
)

// implements Reviewer using Anthropic Claude
type AnthropicReviewer struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicReviewer(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicReviewer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicReviewer{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (r *AnthropicReviewer) Review(
	ctx context.Context,
	words []transcript.Word,
) ([]Finding, error) {
	return reviewWords(ctx, words, r.options, r.complete)
}

func (r *AnthropicReviewer) complete(ctx context.Context, prompt string) (string, error) {
	message, err := r.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     r.model,
			MaxTokens: 4096,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(prompt),
				),
			},
		},
	)
	if err != nil {
		return "", err
	}
	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}
	return responseText, nil
}

func (r *AnthropicReviewer) Close() error {
	return nil
}
