package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient speaks the OpenAI-compatible chat completions protocol,
// which most hosted and self-hosted model servers accept.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a client for baseURL (empty means the OpenAI
// API). httpClient may be nil.
func NewOpenAIClient(baseURL, apiKey string, httpClient *http.Client) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// Complete sends a non-streaming chat completion. DeepSeek-style servers
// return reasoning in reasoning_content next to the visible content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &BackendError{StatusCode: http.StatusOK, Message: "response has no choices"}
	}

	msg := resp.Choices[0].Message
	return &Response{
		Content:     msg.Content,
		Reasoning:   msg.ReasoningContent,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

// openAIError maps go-openai's status errors onto BackendError; everything
// else goes through classify.
func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &BackendError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		msg := strings.TrimSpace(string(reqErr.Body))
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &BackendError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}
	return classify(err)
}
