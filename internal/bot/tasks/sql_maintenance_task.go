package tasks

import (
	"context"
	"fmt"
	"time"
)

func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting archive maintenance")
		startTime := time.Now()

		if err := deps.Store.Ping(ctx); err != nil {
			return fmt.Errorf("archive unreachable: %w", err)
		}
		err := deps.Store.RunSQLMaintenance(ctx)
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "Archive maintenance failed", "error", err, "duration", duration)
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Archive maintenance completed", "duration", duration)
		return nil
	}
}
