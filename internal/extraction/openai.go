package extraction

import (
	"context"
	"errors"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4-turbo-preview"

// ChatCompletionAPI is the part of *openai.Client used here.
type ChatCompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

func newOpenAIClient(apiKey string) *openai.Client {
	return openai.NewClient(apiKey)
}

// OpenAICompleter calls the OpenAI chat completions API.
type OpenAICompleter struct {
	client      ChatCompletionAPI
	model       string
	temperature float32
}

// NewOpenAICompleter returns a completer for model (gpt-4-turbo-preview when empty).
// A zero temperature is sent as the smallest positive float32, since the
// request field is omitempty and the API would otherwise apply its default of 1.
func NewOpenAICompleter(client ChatCompletionAPI, model string, temperature float64) *OpenAICompleter {
	if model == "" {
		model = defaultOpenAIModel
	}
	t := float32(temperature)
	if t == 0 {
		t = math.SmallestNonzeroFloat32
	}
	return &OpenAICompleter{client: client, model: model, temperature: t}
}

func (c *OpenAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", &LLMError{Provider: ProviderOpenAI, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &LLMError{Provider: ProviderOpenAI, Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}
