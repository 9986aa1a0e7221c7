package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type statStore struct {
	maintenance sync.Map // string -> *maintenanceStats
}

func newStatStore() *statStore {
	return &statStore{}
}

func (s *statStore) summary() Summary {
	jobs := []MaintenanceJobSummary{}
	s.maintenance.Range(func(key, value any) bool {
		jobs = append(jobs, value.(*maintenanceStats).snapshot(key.(string)))
		return true
	})
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Job < jobs[j].Job })

	return Summary{
		GeneratedAt: time.Now(),
		Maintenance: MaintenanceSummary{Jobs: jobs},
	}
}

func (s *statStore) maintenanceEntry(job string) *maintenanceStats {
	if value, ok := s.maintenance.Load(job); ok {
		return value.(*maintenanceStats)
	}
	actual, _ := s.maintenance.LoadOrStore(job, &maintenanceStats{})
	return actual.(*maintenanceStats)
}

type maintenanceStats struct {
	lastStatus          atomic.Value // string
	lastError           atomic.Value // string
	lastRun             atomic.Int64 // unix nano
	lastDuration        atomic.Int64 // nanoseconds
	lastSuccessfulRun   atomic.Int64
	consecutiveFailures atomic.Uint64
	totalRuns           atomic.Uint64
	affected            atomic.Int64
}

func (m *maintenanceStats) snapshot(job string) MaintenanceJobSummary {
	status, _ := m.lastStatus.Load().(string)
	errMsg, _ := m.lastError.Load().(string)

	summary := MaintenanceJobSummary{
		Job:                 job,
		LastStatus:          status,
		LastDuration:        time.Duration(m.lastDuration.Load()),
		LastError:           errMsg,
		ConsecutiveFailures: m.consecutiveFailures.Load(),
		TotalRuns:           m.totalRuns.Load(),
		RowsAffected:        m.affected.Load(),
	}
	if ts := m.lastRun.Load(); ts > 0 {
		summary.LastRunAt = time.Unix(0, ts)
	}
	if ts := m.lastSuccessfulRun.Load(); ts > 0 {
		summary.LastSuccessAt = time.Unix(0, ts)
	}
	return summary
}

func (m *maintenanceStats) record(run MaintenanceRun) {
	duration := run.Duration
	if duration < 0 {
		duration = 0
	}
	now := time.Now()
	m.lastStatus.Store(run.Result)
	m.lastError.Store(run.Message)
	m.lastRun.Store(now.UnixNano())
	m.lastDuration.Store(int64(duration))
	m.totalRuns.Add(1)
	m.affected.Add(run.RowsAffected)

	if run.Result == ResultSuccess {
		m.consecutiveFailures.Store(0)
		m.lastSuccessfulRun.Store(now.UnixNano())
		return
	}
	m.consecutiveFailures.Add(1)
}
