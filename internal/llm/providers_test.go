package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"

	"github.com/edgard/llmchat/internal/config"
)

type fakeMessager struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (f *fakeMessager) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = params
	return f.resp, f.err
}

func TestAnthropicClient_Complete(t *testing.T) {
	t.Parallel()

	fake := &fakeMessager{resp: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "thinking", Thinking: "plan"},
			{Type: "text", Text: "hi there"},
		},
		Usage: anthropic.Usage{InputTokens: 10, OutputTokens: 5},
	}}
	c := &AnthropicClient{messages: fake}

	resp, err := c.Complete(context.Background(), Request{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 512,
		Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: "u1"},
			{Role: RoleAssistant, Content: "a1"},
			{Role: RoleUser, Content: "u2"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "hi there" || resp.Reasoning != "plan" || resp.TotalTokens != 15 {
		t.Errorf("unexpected response %+v", resp)
	}
	if len(fake.params.System) != 1 || fake.params.System[0].Text != "sys" {
		t.Errorf("system = %+v", fake.params.System)
	}
	if len(fake.params.Messages) != 3 || fake.params.MaxTokens != 512 {
		t.Errorf("params = %d messages, max %d", len(fake.params.Messages), fake.params.MaxTokens)
	}
}

func TestAnthropicClient_ClassifiesDeadline(t *testing.T) {
	t.Parallel()

	c := &AnthropicClient{messages: &fakeMessager{err: context.DeadlineExceeded}}
	if _, err := c.Complete(context.Background(), Request{}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestGeminiContents(t *testing.T) {
	t.Parallel()

	system, contents := geminiContents([]Message{
		{Role: RoleSystem, Content: "rules"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleAssistant, Content: "a"},
	})
	if system != "rules" {
		t.Errorf("system = %q", system)
	}
	if len(contents) != 2 || contents[0].Role != string(genai.RoleUser) || contents[1].Role != string(genai.RoleModel) {
		t.Fatalf("unexpected contents %+v", contents)
	}
}

func TestGeminiResult(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "considering", Thought: true},
				{Text: "answer"},
			}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{TotalTokenCount: 7},
	}
	got, err := geminiResult(resp)
	if err != nil {
		t.Fatalf("geminiResult() error = %v", err)
	}
	if got.Content != "answer" || got.Reasoning != "considering" || got.TotalTokens != 7 {
		t.Errorf("unexpected response %+v", got)
	}

	if _, err := geminiResult(&genai.GenerateContentResponse{}); !errors.Is(err, ErrEmptyReply) {
		t.Errorf("empty candidates error = %v, want ErrEmptyReply", err)
	}
}

func TestRegistry_ResolveFallsBackToFirstPreset(t *testing.T) {
	t.Parallel()

	presets := []config.PresetConfig{
		{Name: "first", Provider: "openai", APIKey: "k", ModelName: "m1", MaxTokens: 1},
		{Name: "second", Provider: "anthropic", APIKey: "k", ModelName: "m2", MaxTokens: 1},
	}
	r, err := NewRegistry(context.Background(), presets, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if p, c := r.Resolve("second"); p.Name != "second" || c == nil {
		t.Errorf("Resolve(second) = %s, %v", p.Name, c)
	}
	if p, c := r.Resolve("missing"); p.Name != "first" || c == nil {
		t.Errorf("Resolve(missing) = %s, %v; want fallback", p.Name, c)
	}
	if !r.Has("first") || r.Has("off") {
		t.Errorf("Has() mismatch")
	}
}
