package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/investorportal/internal/cache"
	"github.com/charlesng35/investorportal/internal/monitoring"
	"github.com/charlesng35/investorportal/internal/services"
	"github.com/charlesng35/investorportal/pkg/logger"
)

const (
	JobOfferingExpiry = "offering_expiry"
	JobAuditRetention = "audit_retention"
	JobCounterPurge   = "rate_counter_purge"

	defaultAuditRetentionDays = 90
	defaultExpirySpec         = "@hourly"
	defaultAuditSpec          = "@daily"
	defaultCounterSpec        = "@every 15m"
)

// Cleaner runs background upkeep: deactivating offerings past their end date,
// pruning audit logs beyond the retention window and dropping closed rate limit windows.
type Cleaner struct {
	offerings *services.OfferingService
	audit     *services.AuditService
	counters  *cache.CounterStore
	monitor   *monitoring.Module
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	expirySchedule  string
	auditSchedule   string
	counterSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithExpirySchedule overrides the cron specification for offering expiry.
func WithExpirySchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.expirySchedule = spec
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithCounterStore enables purging of expired rate limit counters.
func WithCounterStore(store *cache.CounterStore, spec string) Option {
	return func(cleaner *Cleaner) {
		cleaner.counters = store
		if spec != "" {
			cleaner.counterSchedule = spec
		}
	}
}

// WithMonitor records each job run on the given monitoring module.
func WithMonitor(mod *monitoring.Module) Option {
	return func(cleaner *Cleaner) {
		cleaner.monitor = mod
	}
}

// NewCleaner constructs a Cleaner. A nil service skips its job.
func NewCleaner(offerings *services.OfferingService, audit *services.AuditService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		offerings:       offerings,
		audit:           audit,
		now:             time.Now,
		retention:       defaultAuditRetentionDays,
		expirySchedule:  defaultExpirySpec,
		auditSchedule:   defaultAuditSpec,
		counterSchedule: defaultCounterSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.offerings == nil && c.audit == nil && c.counters == nil {
		return nil
	}

	if c.offerings != nil {
		if _, err := c.cron.AddFunc(c.expirySchedule, func() {
			if err := c.expireOfferings(context.Background()); err != nil {
				c.log.Warn("offering expiry failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.audit != nil {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if err := c.pruneAudit(context.Background()); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.counters != nil {
		if _, err := c.cron.AddFunc(c.counterSchedule, func() {
			if err := c.purgeCounters(context.Background()); err != nil {
				c.log.Warn("rate counter purge failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	c.log.Info("maintenance scheduler started",
		zap.String("expiry_schedule", c.expirySchedule),
		zap.String("audit_schedule", c.auditSchedule),
		zap.Int("audit_retention_days", c.retention),
	)
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job sequentially and aggregates their errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.offerings != nil {
		errs = multierr.Append(errs, c.expireOfferings(ctx))
	}
	if c.audit != nil {
		errs = multierr.Append(errs, c.pruneAudit(ctx))
	}
	if c.counters != nil {
		errs = multierr.Append(errs, c.purgeCounters(ctx))
	}
	return errs
}

func (c *Cleaner) expireOfferings(ctx context.Context) error {
	return c.track(JobOfferingExpiry, func() (int64, error) {
		return c.offerings.ExpireEnded(ctx, c.now())
	})
}

func (c *Cleaner) pruneAudit(ctx context.Context) error {
	return c.track(JobAuditRetention, func() (int64, error) {
		return c.audit.CleanupOlderThan(ctx, c.retention)
	})
}

func (c *Cleaner) purgeCounters(ctx context.Context) error {
	return c.track(JobCounterPurge, func() (int64, error) {
		return c.counters.PurgeExpired(ctx)
	})
}

func (c *Cleaner) track(job string, fn func() (int64, error)) error {
	start := time.Now()
	affected, err := fn()

	run := monitoring.MaintenanceRun{
		Job:          job,
		Result:       monitoring.ResultSuccess,
		Duration:     time.Since(start),
		RowsAffected: affected,
	}
	if err != nil {
		run.Result = monitoring.ResultFailure
		run.Message = err.Error()
	}
	c.monitor.RecordMaintenanceRun(run)

	if err == nil && affected > 0 {
		c.log.Info("maintenance job completed", zap.String("job", job), zap.Int64("rows", affected))
	}
	return err
}
