// Package logger builds the process slog.Logger and the update logging
// middleware for the Telegram bot.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLogger creates the process logger, writing to stdout, and makes it the
// slog default. Unknown levels fall back to info.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := newLogger(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware logs every incoming update with its chat, sender and a short
// text preview, then the time spent handling it.
func Middleware(log *slog.Logger) bot.Middleware {
	log = log.With("component", "updates")
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			entry := log.With(updateAttrs(update)...)

			entry.DebugContext(ctx, "Processing update")
			next(ctx, b, update)
			entry.DebugContext(ctx, "Finished processing update", "duration", time.Since(start))
		}
	}
}

func updateAttrs(update *models.Update) []any {
	attrs := []any{"update_id", update.ID}

	msg, kind := update.Message, "message"
	if msg == nil && update.EditedMessage != nil {
		msg, kind = update.EditedMessage, "edited_message"
	}
	if msg == nil {
		return append(attrs, "update_type", "other")
	}

	attrs = append(attrs,
		"update_type", kind,
		"message_id", msg.ID,
		"chat_id", msg.Chat.ID,
		"chat_type", msg.Chat.Type,
	)
	if msg.From != nil {
		attrs = append(attrs, "user_id", msg.From.ID)
	}
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	return append(attrs, "text_preview", truncate(text, 50))
}

// truncate shortens s to at most maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
