package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient calls Google's Gemini API through the genai SDK.
type GeminiClient struct {
	genaiClient *genai.Client
}

// NewGeminiClient creates a Gemini client. baseURL may be empty.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	gi, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClient{genaiClient: gi}, nil
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	system, contents := geminiContents(req.Messages)

	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxTokens),
		ThinkingConfig:  &genai.ThinkingConfig{IncludeThoughts: true},
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &BackendError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return nil, classify(err)
	}
	return geminiResult(resp)
}

// geminiContents moves system turns into the system instruction and maps
// the rest onto user and model contents.
func geminiContents(messages []Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func geminiResult(resp *genai.GenerateContentResponse) (*Response, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		msg := resp.PromptFeedback.BlockReasonMessage
		if msg == "" {
			msg = fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		}
		return nil, &BackendError{StatusCode: 400, Message: "blocked: " + msg}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyReply
	}

	var content, reasoning strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if part.Thought {
			reasoning.WriteString(part.Text)
		} else {
			content.WriteString(part.Text)
		}
	}

	out := &Response{Content: content.String(), Reasoning: reasoning.String()}
	if resp.UsageMetadata != nil {
		out.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out, nil
}
