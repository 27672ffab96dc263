package llm

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	messages anthropicMessager
}

// NewAnthropicClient creates a client. Retries are disabled: a failed call
// is reported to the group instead.
func NewAnthropicClient(apiKey, baseURL string) *AnthropicClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	c := anthropic.NewClient(opts...)
	return &AnthropicClient{messages: &c.Messages}
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.messages.New(ctx, anthropicParams(req))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &BackendError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return nil, classify(err)
	}

	var content, reasoning strings.Builder
	for _, b := range resp.Content {
		switch b.Type {
		case "text":
			content.WriteString(b.Text)
		case "thinking":
			reasoning.WriteString(b.Thinking)
		}
	}
	return &Response{
		Content:     content.String(),
		Reasoning:   reasoning.String(),
		TotalTokens: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}

func anthropicParams(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return params
}
