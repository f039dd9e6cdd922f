package genai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Provider executes a single structured completion against a language model
// and returns the raw assistant text. The adapter owns prompt construction
// and response parsing; providers own only the transport, so any
// OpenAI-compatible host (or a test fake) can be plugged in.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAIProvider talks to any OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	api   *openai.Client
	model string
}

// NewOpenAIProvider creates a provider. baseURL may be empty for the default
// OpenAI endpoint, or point at any compatible host.
func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Complete implements Provider with a JSON-object response format so the
// model is constrained to parseable output.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
