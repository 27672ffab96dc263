// Package prompt assembles the message list sent to the model from a
// group's history and the events it has not seen yet. Everything here is
// pure and deterministic.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/llmchat/internal/conversation"
	"github.com/edgard/llmchat/internal/llm"
)

const instructions = `You are chatting casually in a group chat. People usually call you %s. Each message below tells you the sender's nickname, user id and send time; address senders by their nickname.
Follow these rules when you reply:
- You may reply with several messages. Separate two messages with %s and add no extra newlines or spaces around it.
- Apart from %s, do not include any similar markers in your messages.
- Do not use markdown; the chat client does not render it.
- Write like a regular person: keep each message short and prefer more, shorter messages.
- Code does not need splitting; send it as a single message.
- Greet a sender politely only the first time you answer them.
- When there are several messages, answer the ones that mention you first. Skip messages from a while ago, or choose not to answer at all.
- If you need to think, think as little as possible.
Your personality follows. If it asks you to play someone or gives you a name, use that name.
%s`

// System renders the system instructions. personality is the group prompt,
// or the default one when the group has none.
func System(nicknames []string, delimiter, personality string) string {
	names := "the bot"
	if len(nicknames) > 0 {
		names = strings.Join(nicknames, ", ")
	}
	return fmt.Sprintf(instructions, names, delimiter, delimiter, personality)
}

type eventJSON struct {
	SenderNickname string `json:"SenderNickname"`
	SenderUserID   string `json:"SenderUserId"`
	Message        string `json:"Message"`
	SendTime       string `json:"SendTime"`
}

// FormatEvents serializes events as comma-joined JSON objects. This string
// is both the final user message and the user turn stored in history.
func FormatEvents(events []conversation.RawEvent) string {
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		// Encoding a struct of strings cannot fail.
		_ = enc.Encode(eventJSON{
			SenderNickname: ev.SenderNickname,
			SenderUserID:   strconv.FormatInt(ev.SenderUserID, 10),
			Message:        ev.Message,
			SendTime:       ev.SendTime.Format(time.RFC3339),
		})
		parts = append(parts, strings.TrimSuffix(buf.String(), "\n"))
	}
	return strings.Join(parts, ",")
}

// Build returns the system message, the newest window turns of history and
// a final user message carrying every pending event. If the window would
// start with an assistant turn, that turn is dropped so the conversation
// keeps alternating after the system message.
func Build(systemPrompt string, history []conversation.Turn, window int, pending []conversation.RawEvent) []llm.Message {
	if window < 0 {
		window = 0
	}
	if window < len(history) {
		history = history[len(history)-window:]
	}
	if len(history) > 0 && history[0].Role == conversation.RoleAssistant {
		history = history[1:]
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, t := range history {
		msgs = append(msgs, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: FormatEvents(pending)})
}
