package tasks

import (
	"context"
	"fmt"
	"time"
)

func newSnapshotTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "state_snapshot")

	return func(ctx context.Context) error {
		startTime := time.Now()
		if err := deps.Snapshots.Save(ctx); err != nil {
			log.ErrorContext(ctx, "State snapshot failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("state snapshot failed: %w", err)
		}
		log.DebugContext(ctx, "State snapshot completed", "duration", time.Since(startTime))
		return nil
	}
}
