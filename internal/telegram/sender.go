package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrNotAttached is returned by a Sender used before Attach.
var ErrNotAttached = errors.New("telegram sender has no bot attached")

// Sender posts messages to group chats. The bot is attached after
// construction because the bot's default handler needs the dispatcher,
// which in turn needs the Sender.
type Sender struct {
	b atomic.Pointer[bot.Bot]
}

// NewSender returns an unattached Sender.
func NewSender() *Sender {
	return &Sender{}
}

// Attach sets the bot used for delivery.
func (s *Sender) Attach(b *bot.Bot) {
	s.b.Store(b)
}

// MaxMessageLength is Telegram's limit on one text message, in UTF-16
// code units.
const MaxMessageLength = 4096

// Send posts text to the group as plain text. Text over MaxMessageLength
// goes out as several consecutive messages.
func (s *Sender) Send(ctx context.Context, groupID int64, text string) error {
	b := s.b.Load()
	if b == nil {
		return ErrNotAttached
	}
	for i, chunk := range splitMessage(text, MaxMessageLength) {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: groupID, Text: chunk}); err != nil {
			return fmt.Errorf("failed to send message part %d to chat %d: %w", i+1, groupID, err)
		}
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit UTF-16 code units,
// preferring to break after a newline in the back half of a chunk.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for text != "" {
		cut, lastBreak, units := len(text), -1, 0
		for i, r := range text {
			n := utf16.RuneLen(r)
			if n < 0 {
				n = 1
			}
			if units+n > limit {
				cut = i
				break
			}
			units += n
			if r == '\n' && units > limit/2 {
				lastBreak = i + 1
			}
		}
		if cut < len(text) && lastBreak > 0 {
			cut = lastBreak
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(text)
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}

// Typing shows the typing indicator in the group.
func (s *Sender) Typing(ctx context.Context, groupID int64) error {
	b := s.b.Load()
	if b == nil {
		return ErrNotAttached
	}
	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: groupID, Action: models.ChatActionTyping}); err != nil {
		return fmt.Errorf("failed to send typing action to chat %d: %w", groupID, err)
	}
	return nil
}
