package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/llmchat/internal/conversation"
)

// NewPresetHandler returns a handler for /llm_preset <name>. "off" disables
// the group; an unknown or missing name lists the available presets.
func NewPresetHandler(deps HandlerDeps) bot.HandlerFunc {
	return presetHandler{deps}.Handle
}

type presetHandler struct {
	deps HandlerDeps
}

func (h presetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "preset")
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	st := h.deps.Conversations.Get(chatID)
	send(ctx, b, log, chatID, h.apply(st, commandArgs(update.Message.Text)))
	log.InfoContext(ctx, "Preset command handled", "chat_id", chatID, "preset", st.Preset())
}

// apply switches st to name when possible and returns the reply text.
func (h presetHandler) apply(st *conversation.State, name string) string {
	msgs := h.deps.Config.Messages
	switch {
	case name == conversation.PresetOff:
		st.SetPreset(conversation.PresetOff)
		return msgs.PresetDisabled
	case name != "" && h.deps.Presets.Has(name):
		st.SetPreset(name)
		return fmt.Sprintf(msgs.PresetSwitched, name)
	default:
		return fmt.Sprintf(msgs.PresetList, st.Preset(), strings.Join(h.deps.Presets.Names(), "\n- "))
	}
}
