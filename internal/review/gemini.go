package review

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/mgpai22/fillercut/internal/transcript"
)

// implements Reviewer using Google Gemini
type GeminiReviewer struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiReviewer(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiReviewer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiReviewer{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (r *GeminiReviewer) Review(
	ctx context.Context,
	words []transcript.Word,
) ([]Finding, error) {
	return reviewWords(ctx, words, r.options, r.complete)
}

func (r *GeminiReviewer) complete(ctx context.Context, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := r.client.Models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				responseText += part.Text
			}
		}
	}
	return responseText, nil
}

func (r *GeminiReviewer) Close() error {
	return nil
}
