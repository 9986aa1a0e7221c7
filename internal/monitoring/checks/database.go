package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/database"
	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database returns a readiness probe that pings the database and confirms the
// investor type catalogue is seeded; signup cannot complete without it.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	if timeout <= 0 {
		timeout = defaultDatabaseTimeout
	}
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := database.Ping(probeCtx, db); err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		var types int64
		if err := db.WithContext(probeCtx).Model(&models.InvestorType{}).Count(&types).Error; err != nil {
			return monitoring.ResultFromError("database", fmt.Errorf("count investor types: %w", err), time.Since(start))
		}
		if types == 0 {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "no investor types seeded",
				Duration: time.Since(start),
			}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
	})
}
