package review

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/fillercut/internal/transcript"
)

// implements Reviewer using OpenAI chat completions
type OpenAIReviewer struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIReviewer(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIReviewer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	return &OpenAIReviewer{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (r *OpenAIReviewer) Review(
	ctx context.Context,
	words []transcript.Word,
) ([]Finding, error) {
	return reviewWords(ctx, words, r.options, r.complete)
}

func (r *OpenAIReviewer) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := r.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: r.model,
		},
	)
	if err != nil {
		return "", err
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return completion.Choices[0].Message.Content, nil
}

func (r *OpenAIReviewer) Close() error {
	return nil
}
