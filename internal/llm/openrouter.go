package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/exedev/conclave/internal/chat"
)

const (
	openRouterURL     = "https://openrouter.ai/api/v1/chat/completions"
	openRouterTimeout = 60 * time.Second

	// noData is returned when the response carries no usable content,
	// matching what the UI historically displayed.
	noData = "<No data returned>"
)

// OpenRouterClient talks to the OpenRouter chat completion endpoint
// with plain bearer-token HTTP. No SDK involved.
type OpenRouterClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewOpenRouterClient(apiKey string) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:  apiKey,
		baseURL: openRouterURL,
		http:    &http.Client{Timeout: openRouterTimeout},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type wireResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenRouterClient) Complete(ctx context.Context, model string, messages []chat.Message, system string, temperature float64) (string, error) {
	wire := make([]wireMessage, 0, len(messages)+1)
	wire = append(wire, wireMessage{Role: chat.RoleSystem, Content: system})
	for _, m := range messages {
		wire = append(wire, wireMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(wireRequest{Model: model, Messages: wire, Temperature: temperature})
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("encoding request: %v", err), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("creating request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("sending request: %v", err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("reading response: %v", err), StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{
			Message:    fmt.Sprintf("openrouter returned %s", resp.Status),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var parsed wireResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &APIError{
			Message:    fmt.Sprintf("decoding response: %v", err),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        err,
		}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return noData, nil
	}
	return parsed.Choices[0].Message.Content, nil
}
