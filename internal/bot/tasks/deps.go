// Package tasks implements the bot's scheduled jobs: periodic state
// snapshots and archive maintenance.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/llmchat/internal/config"
	"github.com/edgard/llmchat/internal/database"
)

// Snapshotter persists conversation state.
type Snapshotter interface {
	Save(ctx context.Context) error
}

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger    *slog.Logger
	Store     database.Store
	Snapshots Snapshotter
	Config    *config.Config
}
