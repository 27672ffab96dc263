package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the archive operations. Methods accept a context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveExchange inserts one model call record.
	SaveExchange(ctx context.Context, ex *Exchange) error

	// GroupUsage sums calls, failures and tokens for a group.
	GroupUsage(ctx context.Context, groupID int64) (Usage, error)

	// RunSQLMaintenance compacts the database file.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by db.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveExchange(ctx context.Context, ex *Exchange) error {
	if ex == nil {
		return fmt.Errorf("cannot save nil exchange")
	}
	if ex.GroupID == 0 {
		return fmt.Errorf("exchange must have a non-zero group_id")
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO exchanges (group_id, preset, model, prompt, reply, reasoning, total_tokens, failed, error, created_at)
        VALUES (:group_id, :preset, :model, :prompt, :reply, :reasoning, :total_tokens, :failed, :error, :created_at);
    `
	result, err := s.db.NamedExecContext(ctx, query, ex)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving exchange", "group_id", ex.GroupID, "error", err)
		return fmt.Errorf("failed to save exchange (group %d): %w", ex.GroupID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // row ids are positive
		ex.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving exchange", "group_id", ex.GroupID, "error", err)
	}
	return nil
}

func (s *sqlxStore) GroupUsage(ctx context.Context, groupID int64) (Usage, error) {
	var u Usage
	query := `
        SELECT COUNT(*) AS calls,
               COALESCE(SUM(CASE WHEN failed THEN 1 ELSE 0 END), 0) AS failures,
               COALESCE(SUM(total_tokens), 0) AS tokens
        FROM exchanges
        WHERE group_id = ?;
    `
	if err := s.db.GetContext(ctx, &u, query, groupID); err != nil {
		s.logger.ErrorContext(ctx, "Error reading group usage", "group_id", groupID, "error", err)
		return Usage{}, fmt.Errorf("failed to read usage for group %d: %w", groupID, err)
	}
	return u, nil
}

// RunSQLMaintenance executes VACUUM. It must run outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	}
	return nil
}
