package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewPromptHandler returns a handler for /llm_prompt <text>, which sets the
// group's personality. An empty text restores the default.
func NewPromptHandler(deps HandlerDeps) bot.HandlerFunc {
	return promptHandler{deps}.Handle
}

type promptHandler struct {
	deps HandlerDeps
}

func (h promptHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "prompt")
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	text := commandArgs(update.Message.Text)
	h.deps.Conversations.Get(chatID).SetGroupPrompt(text)
	log.InfoContext(ctx, "Group prompt updated", "chat_id", chatID, "user_id", update.Message.From.ID, "length", len(text))

	send(ctx, b, log, chatID, h.deps.Config.Messages.PromptUpdated)
}
