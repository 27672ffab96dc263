package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/llmchat/internal/config"
)

// Registry holds one Client per configured preset.
type Registry struct {
	presets []config.PresetConfig
	clients map[string]Client
	log     *slog.Logger
}

// NewRegistry builds a client for every preset.
func NewRegistry(ctx context.Context, presets []config.PresetConfig, log *slog.Logger) (*Registry, error) {
	if len(presets) == 0 {
		return nil, fmt.Errorf("%w: no presets configured", config.ErrConfiguration)
	}
	r := &Registry{
		presets: presets,
		clients: make(map[string]Client, len(presets)),
		log:     log.With("component", "llm_registry"),
	}
	for _, p := range presets {
		c, err := newClient(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to create client for preset %s: %w", p.Name, err)
		}
		r.clients[p.Name] = c
		r.log.Info("Model preset ready", "preset", p.Name, "provider", p.Provider, "model", p.ModelName)
	}
	return r, nil
}

func newClient(ctx context.Context, p config.PresetConfig) (Client, error) {
	switch p.Provider {
	case "", "openai":
		return NewOpenAIClient(p.APIBase, p.APIKey, nil), nil
	case "gemini":
		return NewGeminiClient(ctx, p.APIKey, p.APIBase)
	case "anthropic":
		return NewAnthropicClient(p.APIKey, p.APIBase), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrConfiguration, p.Provider)
	}
}

// Has reports whether name is a configured preset.
func (r *Registry) Has(name string) bool {
	_, ok := r.clients[name]
	return ok
}

// Names lists the configured presets in order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.presets))
	for i, p := range r.presets {
		names[i] = p.Name
	}
	return names
}

// Resolve returns the preset and client for name. An unknown name falls
// back to the first preset.
func (r *Registry) Resolve(name string) (config.PresetConfig, Client) {
	for _, p := range r.presets {
		if p.Name == name {
			return p, r.clients[p.Name]
		}
	}
	fallback := r.presets[0]
	r.log.Warn("Unknown preset, using fallback", "preset", name, "fallback", fallback.Name,
		"error", fmt.Errorf("%w: preset %q not found", config.ErrConfiguration, name))
	return fallback, r.clients[fallback.Name]
}
