package extraction

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/imrishuroy/go-order-intake/internal/aws"
)

// Completer sends one system + user prompt pair to a language model and
// returns the text of its reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Provider names.
const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

// Settings configures a Completer.
type Settings struct {
	Provider     string
	Model        string // provider default when empty
	Temperature  float64
	OpenAIAPIKey string
}

// Deps carries the clients a provider may need.
type Deps struct {
	Bedrock aws.BedrockAPI
}

type providerFactory func(Settings, Deps) (Completer, error)

var providers = map[string]providerFactory{
	ProviderOpenAI: func(s Settings, _ Deps) (Completer, error) {
		if s.OpenAIAPIKey == "" {
			return nil, errors.New("OpenAI API key is required")
		}
		return NewOpenAICompleter(newOpenAIClient(s.OpenAIAPIKey), s.Model, s.Temperature), nil
	},
	ProviderBedrock: func(s Settings, d Deps) (Completer, error) {
		if d.Bedrock == nil {
			return nil, errors.New("bedrock runtime client is required")
		}
		return NewBedrockCompleter(d.Bedrock, s.Model, s.Temperature), nil
	},
}

// Providers lists the provider names NewCompleter accepts.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCompleter builds the Completer for s.Provider.
func NewCompleter(s Settings, d Deps) (Completer, error) {
	factory, ok := providers[s.Provider]
	if !ok {
		return nil, &LLMError{Provider: s.Provider, Err: fmt.Errorf("unknown provider, available: %v", Providers())}
	}
	c, err := factory(s, d)
	if err != nil {
		return nil, &LLMError{Provider: s.Provider, Err: err}
	}
	return c, nil
}
