// Package main is the entrypoint for the group chat bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/llmchat/internal/bot"
	"github.com/edgard/llmchat/internal/bot/handlers"
	"github.com/edgard/llmchat/internal/bot/tasks"
	"github.com/edgard/llmchat/internal/config"
	"github.com/edgard/llmchat/internal/conversation"
	"github.com/edgard/llmchat/internal/database"
	"github.com/edgard/llmchat/internal/dispatch"
	"github.com/edgard/llmchat/internal/llm"
	"github.com/edgard/llmchat/internal/logger"
	"github.com/edgard/llmchat/internal/snapshot"
	"github.com/edgard/llmchat/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit
// code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	conversations := conversation.NewStore(conversation.Limits{
		DefaultPreset: cfg.Chat.DefaultPreset,
		HistorySize:   cfg.Chat.HistorySize,
		PendingSize:   cfg.Chat.PastEventsSize,
	})
	snapshots := snapshot.NewManager(cfg.Chat.StateFile, conversations, log)
	if err := snapshots.Load(ctx); err != nil {
		log.Error("Failed to restore state snapshot, starting empty", "path", cfg.Chat.StateFile, "error", err)
	}

	models, err := llm.NewRegistry(ctx, cfg.Presets, log)
	if err != nil {
		log.Error("Failed to initialize model presets", "error", err)
		return 1
	}

	sender := telegram.NewSender()
	dispatcher := dispatch.New(ctx, conversations, models, sender, store, dispatch.OptionsFromConfig(cfg), log)

	hDeps := handlers.HandlerDeps{
		Logger:        log,
		Config:        cfg,
		Store:         store,
		Conversations: conversations,
		Dispatcher:    dispatcher,
		Presets:       models,
	}
	tDeps := tasks.TaskDeps{
		Logger:    log,
		Store:     store,
		Snapshots: snapshots,
		Config:    cfg,
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}
	sender.Attach(tg)

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	cfg.Telegram.BotInfo = *me
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	app := bot.NewBot(log, tg, sched, dispatcher, snapshots)

	log.Info("Starting bot", "presets", models.Names(), "default_preset", cfg.Chat.DefaultPreset)
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully")
	return 0
}
