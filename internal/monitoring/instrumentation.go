package monitoring

import (
	"strings"
	"time"

	"github.com/charlesng35/investorportal/pkg/metrics"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// MaintenanceRun describes one execution of a background job.
type MaintenanceRun struct {
	Job          string
	Result       string
	Message      string
	Duration     time.Duration
	RowsAffected int64
}

// RecordMaintenanceRun stores the run on this module and updates Prometheus metrics.
func (m *Module) RecordMaintenanceRun(run MaintenanceRun) {
	run.Job = strings.TrimSpace(run.Job)
	if run.Job == "" {
		run.Job = "unknown"
	}
	run.Result = normalizeResult(run.Result)

	metrics.MaintenanceRuns.WithLabelValues(run.Job, run.Result).Inc()
	metrics.MaintenanceDuration.WithLabelValues(run.Job).Observe(run.Duration.Seconds())

	if m == nil || m.stats == nil {
		return
	}
	m.stats.maintenanceEntry(run.Job).record(run)
}

func normalizeResult(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case ResultSuccess:
		return ResultSuccess
	default:
		return ResultFailure
	}
}
