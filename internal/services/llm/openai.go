package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"hazardwatch/internal/domain"
)

// OpenAIClient is the alternative generative backend over the chat
// completions API. A refusal plays the role of a block reason.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
}

func NewOpenAIClient(apiKey, model string, temperature float64, timeout time.Duration, opts ...option.RequestOption) *OpenAIClient {
	options := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	}, opts...)
	return &OpenAIClient{
		client:      openai.NewClient(options...),
		model:       model,
		temperature: temperature,
	}
}

func (c *OpenAIClient) Provider() string {
	return "openai"
}

func (c *OpenAIClient) Generate(ctx context.Context, req domain.PromptRequest) domain.Outcome {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Body),
		},
		MaxTokens:   openai.Int(int64(req.MaxOutputTokens)),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return domain.TransportError(fmt.Sprintf("chat completion: %v", err))
	}

	if len(resp.Choices) == 0 {
		return domain.Empty()
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return domain.Blocked(choice.Message.Refusal)
	}

	// A choice is present, so failing to extract text from it is a provider
	// fault rather than a clean empty result.
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return domain.TransportError("choice contained no extractable text")
	}
	return domain.Success(text)
}
