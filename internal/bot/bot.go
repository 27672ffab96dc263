// Package bot wires the Telegram listener, the scheduler, the group
// dispatcher and the state snapshots into one lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/llmchat/internal/bot/tasks"
)

// finalSnapshotTimeout bounds the snapshot written after shutdown.
const finalSnapshotTimeout = 10 * time.Second

// Listener receives updates until ctx is cancelled. *tgbot.Bot satisfies it.
type Listener interface {
	Start(ctx context.Context)
}

// Drainer waits for in-flight group workers.
type Drainer interface {
	Wait()
}

// Bot owns the lifecycle of the running components.
type Bot struct {
	logger     *slog.Logger
	listener   Listener
	scheduler  *Scheduler
	dispatcher Drainer
	snapshots  tasks.Snapshotter
}

// NewBot assembles a Bot. snapshots may be nil.
func NewBot(logger *slog.Logger, listener Listener, scheduler *Scheduler, dispatcher Drainer, snapshots tasks.Snapshotter) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:     logger.With("component", "bot_orchestrator"),
		listener:   listener,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		snapshots:  snapshots,
	}
}

// Run starts the listener and the scheduler and blocks until ctx is
// cancelled or one of them fails. On the way out it waits for group
// workers and writes a final snapshot.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram listener")
		b.listener.Start(gCtx)
		b.logger.Info("Telegram listener stopped")

		if gCtx.Err() == nil {
			return errors.New("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if b.scheduler == nil {
			<-gCtx.Done()
			return nil
		}
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	b.shutdown()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}
	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}

func (b *Bot) shutdown() {
	if b.dispatcher != nil {
		b.logger.Info("Waiting for group workers")
		b.dispatcher.Wait()
	}
	if b.snapshots == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), finalSnapshotTimeout)
	defer cancel()
	if err := b.snapshots.Save(ctx); err != nil {
		b.logger.Error("Failed to write final state snapshot", "error", err)
		return
	}
	b.logger.Info("Final state snapshot written")
}
