package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler is a command handler with its match rules and
// middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands returns every bot command keyed by its slash name.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = command("start", NewStartHandler(deps))
	handlers["/help"] = command("help", NewHelpHandler(deps))

	botAdmin := []tgbot.Middleware{GroupOnly(deps), AdminOnly(deps)}
	groupAdmin := []tgbot.Middleware{GroupOnly(deps), GroupAdminOnly(deps)}

	handlers["/llm_preset"] = command("llm_preset", NewPresetHandler(deps), botAdmin...)
	handlers["/llm_prompt"] = command("llm_prompt", NewPromptHandler(deps), groupAdmin...)
	handlers["/llm_reset"] = command("llm_reset", NewResetHandler(deps), groupAdmin...)
	handlers["/llm_think"] = command("llm_think", NewThinkHandler(deps), groupAdmin...)
	handlers["/llm_stats"] = command("llm_stats", NewStatsHandler(deps), groupAdmin...)

	return handlers
}

func command(pattern string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
	return RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     pattern,
		Handler:     h,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  mw,
	}
}
