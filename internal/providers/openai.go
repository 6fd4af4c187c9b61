package providers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIProvider implements the Provider interface on top of the OpenAI
// chat completions API.
type OpenAIProvider struct {
	client      *openai.LLM
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAIProvider creates a new OpenAI provider for the given model.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}

	return &OpenAIProvider{
		client:      client,
		model:       model,
		temperature: 0.7,
		maxTokens:   1000,
	}, nil
}

// Complete implements the Provider interface
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, Usage, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	response, err := p.client.GenerateContent(ctx, messages,
		llms.WithModel(p.model),
		llms.WithMaxTokens(p.maxTokens),
		llms.WithTemperature(p.temperature),
	)
	if err != nil {
		return "", Usage{}, fmt.Errorf("completion failed: %w", err)
	}

	if response == nil || len(response.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("empty response from OpenAI")
	}

	choice := response.Choices[0]
	return choice.Content, usageFromInfo(choice.GenerationInfo), nil
}

// usageFromInfo extracts token counts from langchaingo generation info.
func usageFromInfo(info map[string]any) Usage {
	var usage Usage
	if v, ok := info["PromptTokens"].(int); ok {
		usage.InputTokens = v
	}
	if v, ok := info["CompletionTokens"].(int); ok {
		usage.OutputTokens = v
	}
	return usage
}

// SetTemperature sets the temperature for completions
func (p *OpenAIProvider) SetTemperature(temp float64) {
	p.temperature = temp
}

// SetMaxTokens sets the max tokens for completions
func (p *OpenAIProvider) SetMaxTokens(tokens int) {
	p.maxTokens = tokens
}

// ModelName returns the configured model name.
func (p *OpenAIProvider) ModelName() string {
	return p.model
}
