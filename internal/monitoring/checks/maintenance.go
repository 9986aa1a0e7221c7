package checks

import (
	"context"
	"strings"
	"time"

	"github.com/charlesng35/investorportal/internal/monitoring"
)

const defaultMaintenanceMaxAge = 26 * time.Hour

// Maintenance reports down when a job's latest run failed and degraded when a
// job has not run within maxAge. A zero maxAge uses 26h, one daily run plus slack.
func Maintenance(mod *monitoring.Module, maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}

	return monitoring.NewCheck("maintenance", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		summary := mod.Snapshot()

		if len(summary.Maintenance.Jobs) == 0 {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Details:  "no maintenance runs recorded",
				Duration: time.Since(start),
			}
		}

		status := monitoring.StatusUp
		var problems []string

		for _, job := range summary.Maintenance.Jobs {
			if job.ConsecutiveFailures > 0 {
				status = monitoring.StatusDown
				problems = append(problems, job.Job+": "+job.LastError)
				continue
			}
			if !job.LastRunAt.IsZero() && start.Sub(job.LastRunAt) > maxAge {
				if status != monitoring.StatusDown {
					status = monitoring.StatusDegraded
				}
				problems = append(problems, job.Job+": stale run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}

		return monitoring.ProbeResult{
			Status:   status,
			Details:  strings.Join(problems, "; "),
			Duration: time.Since(start),
		}
	})
}
