package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewMessageHandler returns the default handler. Every group message that
// is not a command is rendered and offered to the dispatcher.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.From == nil || !isGroupChat(msg.Chat) {
		return
	}
	me := h.deps.Config.Telegram.BotInfo
	if msg.From.IsBot || (me.ID != 0 && msg.From.ID == me.ID) {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		log.DebugContext(ctx, "Ignoring unknown command", "chat_id", msg.Chat.ID)
		return
	}

	nicknames := h.deps.Config.Telegram.Nicknames
	directed := isDirected(msg, me, nicknames)
	ev := RenderEvent(msg, directed, botDisplayName(me, nicknames))
	if strings.TrimSpace(ev.Message) == "" {
		return
	}

	queued := h.deps.Dispatcher.Observe(msg.Chat.ID, ev, directed)
	log.DebugContext(ctx, "Group message observed", "chat_id", msg.Chat.ID, "message_id", msg.ID, "directed", directed, "queued", queued)
}
