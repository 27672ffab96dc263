package handlers

import (
	"log/slog"

	"github.com/edgard/llmchat/internal/config"
	"github.com/edgard/llmchat/internal/conversation"
	"github.com/edgard/llmchat/internal/database"
)

// Observer admits group messages into the conversation pipeline.
type Observer interface {
	Observe(groupID int64, ev conversation.RawEvent, directed bool) bool
}

// PresetCatalog lists the model presets that can be selected.
type PresetCatalog interface {
	Has(name string) bool
	Names() []string
}

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger        *slog.Logger
	Config        *config.Config
	Store         database.Store
	Conversations *conversation.Store
	Dispatcher    Observer
	Presets       PresetCatalog
}
