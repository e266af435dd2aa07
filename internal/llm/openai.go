package llm

import (
	"context"
	"errors"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/exedev/conclave/internal/chat"
)

// noSystemPromptModels lists OpenAI model ids that reject a system role
// and a temperature parameter. For these the system prompt is sent as a
// user turn and temperature is omitted.
var noSystemPromptModels = map[string]bool{
	"o1-preview":      true,
	"gpt-4.5-preview": true,
}

// OpenAIClient wraps the OpenAI chat completion API.
type OpenAIClient struct {
	api *openai.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{api: openai.NewClient(apiKey)}
}

func (c *OpenAIClient) Complete(ctx context.Context, model string, messages []chat.Message, system string, temperature float64) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(model, messages, system),
	}
	if !noSystemPromptModels[model] {
		req.Temperature = requestTemperature(temperature)
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &APIError{Message: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}

// requestTemperature maps the caller's temperature onto the wire
// field. go-openai marshals Temperature with omitempty, so a plain 0
// would vanish and the API default would apply; the library convention
// for an explicit zero is the smallest positive float32.
func requestTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func toOpenAIMessages(model string, msgs []chat.Message, system string) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		role := openai.ChatMessageRoleSystem
		if noSystemPromptModels[model] {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: system})
	}
	for _, m := range msgs {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func wrapOpenAIError(err error) error {
	var apierr *openai.APIError
	if errors.As(err, &apierr) {
		return &APIError{
			Message:    apierr.Message,
			StatusCode: apierr.HTTPStatusCode,
			Err:        err,
		}
	}
	return &APIError{Message: err.Error(), Err: err}
}
