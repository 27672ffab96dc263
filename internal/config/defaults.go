package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultHistorySize    = 20
	defaultPastEventsSize = 10
	defaultRequestTimeout = 60 * time.Second
	defaultSendDelay      = 2 * time.Second
	defaultDelimiter      = "<botbr>"
)

const defaultPrompt = "You are a friendly regular of this group. Keep it casual, short and human."

var defaults = map[string]any{
	"logger.level": "info",
	"logger.json":  false,

	"database.path": "storage.db",

	"chat.history_size":        defaultHistorySize,
	"chat.past_events_size":    defaultPastEventsSize,
	"chat.random_trigger_prob": 0.0,
	"chat.request_timeout":     defaultRequestTimeout,
	"chat.send_delay":          defaultSendDelay,
	"chat.default_prompt":      defaultPrompt,
	"chat.delimiter":           defaultDelimiter,
	"chat.state_file":          "data/llmchat_state.json",

	"scheduler.tasks.state_snapshot.enabled":   true,
	"scheduler.tasks.state_snapshot.schedule":  "0 */5 * * * *",
	"scheduler.tasks.sql_maintenance.enabled":  true,
	"scheduler.tasks.sql_maintenance.schedule": "0 0 4 * * *",

	"messages.welcome":             "Hi! Mention @botname in the group and I'll join the conversation.",
	"messages.help":                "Mention @botname to talk to me.\n/llm_preset <name> - switch model preset (bot admin)\n/llm_prompt <text> - set this group's personality\n/llm_reset - forget this group's conversation\n/llm_think - toggle reasoning output\n/llm_stats - show usage for this group",
	"messages.service_unavailable": "Service temporarily unavailable, please try again later",
	"messages.unauthorized":        "You are not authorized to use this command.",
	"messages.preset_switched":     "Switched to preset: %s",
	"messages.preset_disabled":     "Chat disabled for this group.",
	"messages.preset_list":         "Current preset: %s\nAvailable presets:\n- %s",
	"messages.prompt_updated":      "Group prompt updated.",
	"messages.history_reset":       "Conversation memory cleared.",
	"messages.reasoning_on":        "Reasoning output enabled.",
	"messages.reasoning_off":       "Reasoning output disabled.",
	"messages.stats":               "Preset: %s\nHistory turns: %d\nPending events: %d\nEvicted before reply: %d\nModel calls: %d (failed %d)\nTokens used: %d",
	"messages.general_error":       "An error occurred. Please try again later.",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
