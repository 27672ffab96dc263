package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewResetHandler returns a handler for /llm_reset. It clears the group's
// history and pending events; the preset and prompt are kept.
func NewResetHandler(deps HandlerDeps) bot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")
	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Reset handler called with nil Message or From", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	h.deps.Conversations.Get(chatID).Reset()
	log.InfoContext(ctx, "Group conversation reset", "chat_id", chatID, "user_id", update.Message.From.ID)

	send(ctx, b, log, chatID, h.deps.Config.Messages.HistoryReset)
}
