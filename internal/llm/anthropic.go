package llm

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/exedev/conclave/internal/chat"
)

const (
	// extendedReasoningModel gets a streamed call with a thinking budget
	// instead of a plain completion.
	extendedReasoningModel = "claude-3-7-sonnet-20250219"
	extendedMaxTokens      = 64000
	thinkingBudgetTokens   = 54000

	defaultMaxTokens = 8192
)

// AnthropicClient wraps the Anthropic SDK.
type AnthropicClient struct {
	client    *anthropic.Client
	maxTokens int64
	logger    *log.Logger
}

func NewAnthropicClient(apiKey string, maxTokens int, logger *log.Logger) *AnthropicClient {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = log.Default()
	}
	c := anthropic.NewClient(opts...)
	return &AnthropicClient{
		client:    &c,
		maxTokens: int64(maxTokens),
		logger:    logger,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, model string, messages []chat.Message, system string, temperature float64) (string, error) {
	msgs := toAnthropicMessages(messages)

	if model == extendedReasoningModel {
		text, err := c.completeStreaming(ctx, model, msgs, system)
		if err == nil {
			return text, nil
		}
		// Stream setup or consumption failed; fall back to a single
		// non-streaming call with default sampling.
		c.logger.Printf("streaming error for %s, falling back to non-streaming call: %v", model, err)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(temperature),
		Messages:    msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapAnthropicError(err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

// completeStreaming raises the output ceiling, enables a thinking budget,
// and concatenates only the user-visible text deltas in arrival order.
// Thinking deltas never reach the caller.
func (c *AnthropicClient) completeStreaming(ctx context.Context, model string, msgs []anthropic.MessageParam, system string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: extendedMaxTokens,
		Thinking:  anthropic.ThinkingConfigParamOfEnabled(thinkingBudgetTokens),
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	var out strings.Builder
	for stream.Next() {
		event := stream.Current()
		if event.Type == "content_block_delta" && event.Delta.Type == "text_delta" {
			out.WriteString(event.Delta.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return "", wrapAnthropicError(err)
	}
	return out.String(), nil
}

// toAnthropicMessages folds the canonical history into the SDK shape.
// Anthropic has no system role inside the message list, so anything
// that is not an assistant turn goes out as a user turn.
func toAnthropicMessages(msgs []chat.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, len(msgs))
	for i, m := range msgs {
		if m.Role == chat.RoleAssistant {
			out[i] = anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content))
		} else {
			out[i] = anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content))
		}
	}
	return out
}

func wrapAnthropicError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &APIError{
			Message:    err.Error(),
			StatusCode: apierr.StatusCode,
			Body:       apierr.RawJSON(),
			Err:        err,
		}
	}
	return &APIError{Message: err.Error(), Err: err}
}
