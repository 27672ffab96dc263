// Package handlers contains the Telegram command and message handlers,
// their registration and their middleware.
package handlers

import (
	"context"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly lets only the configured bot admin through. Everyone else gets
// the unauthorized message.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}
			if update.Message.From.ID != deps.Config.Telegram.AdminUserID {
				denied(ctx, bot, deps, update.Message, "AdminOnly")
				return
			}
			next(ctx, bot, update)
		}
	}
}

// GroupAdminOnly lets through the bot admin and the chat's owner and
// administrators.
func GroupAdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.From == nil {
				return
			}
			if msg.From.ID == deps.Config.Telegram.AdminUserID {
				next(ctx, bot, update)
				return
			}

			member, err := bot.GetChatMember(ctx, &tgbot.GetChatMemberParams{ChatID: msg.Chat.ID, UserID: msg.From.ID})
			if err != nil {
				deps.Logger.ErrorContext(ctx, "Failed to look up chat member", "error", err, "chat_id", msg.Chat.ID, "user_id", msg.From.ID)
				denied(ctx, bot, deps, msg, "GroupAdminOnly")
				return
			}
			if !isChatAdmin(member) {
				denied(ctx, bot, deps, msg, "GroupAdminOnly")
				return
			}
			next(ctx, bot, update)
		}
	}
}

// GroupOnly silently drops commands sent outside group chats.
func GroupOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || !isGroupChat(update.Message.Chat) {
				deps.Logger.DebugContext(ctx, "Ignoring group command outside a group", "update_id", update.ID)
				return
			}
			next(ctx, bot, update)
		}
	}
}

func isChatAdmin(m *models.ChatMember) bool {
	if m == nil {
		return false
	}
	return m.Type == models.ChatMemberTypeOwner || m.Type == models.ChatMemberTypeAdministrator
}

func isGroupChat(c models.Chat) bool {
	return c.Type == models.ChatTypeGroup || c.Type == models.ChatTypeSupergroup
}

func denied(ctx context.Context, bot *tgbot.Bot, deps HandlerDeps, msg *models.Message, middleware string) {
	log := deps.Logger.With("middleware", middleware)
	log.WarnContext(ctx, "Unauthorized access attempt", "user_id", msg.From.ID, "chat_id", msg.Chat.ID)
	send(ctx, bot, log, msg.Chat.ID, deps.Config.Messages.Unauthorized)
}

// send replies with text, logging delivery failures.
func send(ctx context.Context, bot *tgbot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := bot.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
