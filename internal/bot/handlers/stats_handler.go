package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/llmchat/internal/conversation"
	"github.com/edgard/llmchat/internal/database"
)

const statsQueryTimeout = 5 * time.Second

// NewStatsHandler returns a handler for /llm_stats, which reports the
// group's state and archived model usage.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	queryCtx, cancel := context.WithTimeout(ctx, statsQueryTimeout)
	defer cancel()
	usage, err := h.deps.Store.GroupUsage(queryCtx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read group usage", "error", err, "chat_id", chatID)
		send(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	send(ctx, b, log, chatID, h.render(h.deps.Conversations.Get(chatID).Stats(), usage))
}

func (h statsHandler) render(s conversation.Stats, u database.Usage) string {
	return fmt.Sprintf(h.deps.Config.Messages.Stats,
		s.Preset, s.HistoryLen, s.PendingLen, s.Evicted, u.Calls, u.Failures, u.Tokens)
}
