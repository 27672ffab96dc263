package tasks

import "context"

// ScheduledTaskFunc is the signature of every task. The context comes from
// the scheduler and must be respected.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every task keyed by the name used in the
// scheduler section of the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		"state_snapshot":  newSnapshotTask(deps),
		"sql_maintenance": newSQLMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
