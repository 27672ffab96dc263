// Package telegram creates the go-telegram bot, registers command handlers
// and delivers outgoing group messages.
package telegram

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"github.com/edgard/llmchat/internal/bot/handlers"
)

// NewTelegramBot creates a bot client for token.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created", "token_prefix", tokenPrefix(token))
	return b, nil
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:8] + "..."
}

// applyMiddleware wraps handler so that mw[0] runs first.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers every command with its middleware chain.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registered map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	if len(registered) == 0 {
		log.Warn("No handlers provided for registration")
		return nil
	}

	for name, h := range registered {
		if h.Handler == nil {
			log.Warn("Skipping registration for nil handler", "command", name)
			continue
		}
		b.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, applyMiddleware(h.Handler, h.Middleware))
		log.Debug("Registered handler", "command", name, "match_type", h.MatchType, "middleware_count", len(h.Middleware))
	}

	log.Info("Registered Telegram handlers", "count", len(registered))
	return nil
}
