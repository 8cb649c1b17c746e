package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/imrishuroy/go-order-intake/internal/aws"
)

const (
	defaultBedrockModel = "anthropic.claude-3-sonnet-20240229-v1:0"
	bedrockMaxTokens    = 2048
)

// BedrockCompleter calls a Bedrock model through the Converse API.
type BedrockCompleter struct {
	client      aws.BedrockAPI
	model       string
	temperature float32
}

// NewBedrockCompleter returns a completer for model (Claude 3 Sonnet when empty).
func NewBedrockCompleter(client aws.BedrockAPI, model string, temperature float64) *BedrockCompleter {
	if model == "" {
		model = defaultBedrockModel
	}
	return &BedrockCompleter{client: client, model: model, temperature: float32(temperature)}
}

func (c *BedrockCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: sdkaws.String(c.model),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: sdkaws.Float32(c.temperature),
			MaxTokens:   sdkaws.Int32(bedrockMaxTokens),
		},
	}
	if system != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		}
	}

	out, err := c.client.Converse(ctx, input)
	if err != nil {
		return "", &LLMError{Provider: ProviderBedrock, Err: err}
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", &LLMError{Provider: ProviderBedrock, Err: fmt.Errorf("unexpected output type %T", out.Output)}
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	if sb.Len() == 0 {
		return "", &LLMError{Provider: ProviderBedrock, Err: errors.New("no text in response")}
	}
	return sb.String(), nil
}
