package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/llmchat/internal/conversation"
)

// isDirected reports whether msg addresses the bot: a reply to one of its
// messages, an @mention of its username, or text that starts with one of
// its nicknames.
func isDirected(msg *models.Message, me models.User, nicknames []string) bool {
	if msg == nil {
		return false
	}
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && me.ID != 0 && msg.ReplyToMessage.From.ID == me.ID {
		return true
	}

	text := strings.ToLower(strings.TrimSpace(messageText(msg)))
	if me.Username != "" {
		mention := "@" + strings.ToLower(me.Username)
		for _, w := range strings.Fields(text) {
			if strings.TrimRightFunc(w, unicode.IsPunct) == mention {
				return true
			}
		}
	}
	for _, n := range nicknames {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.HasPrefix(text, n) {
			return true
		}
	}
	return false
}

// RenderEvent projects msg onto the text the model sees: an optional reply
// quote, an @-prefix naming the bot when directed, media placeholders and
// the message text.
func RenderEvent(msg *models.Message, directed bool, botName string) conversation.RawEvent {
	var sb strings.Builder
	if r := msg.ReplyToMessage; r != nil {
		fmt.Fprintf(&sb, "[Reply to %s's message: %s]\n", senderName(r.From), plainText(r))
	}
	if directed && botName != "" {
		sb.WriteString("@" + botName + " ")
	}
	sb.WriteString(plainText(msg))

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	return conversation.RawEvent{
		SenderNickname: senderName(msg.From),
		SenderUserID:   userID,
		Message:        sb.String(),
		SendTime:       time.Unix(int64(msg.Date), 0),
	}
}

// botDisplayName is the name the bot is addressed by in rendered events.
func botDisplayName(me models.User, nicknames []string) string {
	for _, n := range nicknames {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	if me.FirstName != "" {
		return me.FirstName
	}
	return me.Username
}

func senderName(u *models.User) string {
	if u == nil {
		return "unknown"
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return strconv.FormatInt(u.ID, 10)
}

func plainText(msg *models.Message) string {
	var sb strings.Builder
	switch {
	case len(msg.Photo) > 0:
		sb.WriteString("[image]")
	case msg.Voice != nil:
		sb.WriteString("[voice]")
	case msg.Sticker != nil:
		sb.WriteString("[sticker]")
	}
	sb.WriteString(messageText(msg))
	return sb.String()
}

func messageText(msg *models.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// commandArgs returns the text after the leading /command token.
func commandArgs(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		return strings.TrimSpace(text[i:])
	}
	return ""
}
