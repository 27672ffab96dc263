package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")
	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command", "chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)
	send(ctx, b, log, update.Message.Chat.ID, withBotName(h.deps.Config.Messages.Welcome, h.deps.Config.Telegram.BotInfo.Username))
}

// withBotName substitutes the @botname placeholder when the username is
// known.
func withBotName(text, username string) string {
	if username == "" {
		return text
	}
	return strings.ReplaceAll(text, "@botname", "@"+username)
}
