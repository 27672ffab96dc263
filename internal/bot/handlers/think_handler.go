package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewThinkHandler returns a handler for /llm_think, which toggles whether
// the model's reasoning is posted before its reply.
func NewThinkHandler(deps HandlerDeps) bot.HandlerFunc {
	return thinkHandler{deps}.Handle
}

type thinkHandler struct {
	deps HandlerDeps
}

func (h thinkHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "think")
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	enabled := h.deps.Conversations.Get(chatID).ToggleReasoning()
	log.InfoContext(ctx, "Reasoning output toggled", "chat_id", chatID, "enabled", enabled)

	text := h.deps.Config.Messages.ReasoningOff
	if enabled {
		text = h.deps.Config.Messages.ReasoningOn
	}
	send(ctx, b, log, chatID, text)
}
