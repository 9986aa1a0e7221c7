package monitoring

import "time"

// Summary is a point-in-time view of background activity.
type Summary struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Maintenance MaintenanceSummary `json:"maintenance"`
}

type MaintenanceSummary struct {
	Jobs []MaintenanceJobSummary `json:"jobs"`
}

type MaintenanceJobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	TotalRuns           uint64        `json:"total_runs"`
	RowsAffected        int64         `json:"rows_affected"`
}
