package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/api"
	"github.com/charlesng35/investorportal/internal/app"
	"github.com/charlesng35/investorportal/internal/app/maintenance"
	iauth "github.com/charlesng35/investorportal/internal/auth"
	"github.com/charlesng35/investorportal/internal/cache"
	"github.com/charlesng35/investorportal/internal/database"
	"github.com/charlesng35/investorportal/internal/middleware"
	"github.com/charlesng35/investorportal/internal/monitoring"
	"github.com/charlesng35/investorportal/internal/security"
	"github.com/charlesng35/investorportal/internal/services"
	"github.com/charlesng35/investorportal/pkg/logger"
	"github.com/charlesng35/investorportal/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Monitor   *monitoring.Module
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime opens the database and builds services, background jobs and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	stack.Monitor = monitoring.NewModule(monitoring.Options{ProbeTimeout: cfg.Monitoring.Health.ProbeTimeout})

	reportPosture(ctx, stack.DB, cfg, log)

	var counters *cache.CounterStore
	if cfg.Server.RateLimit.Requests > 0 {
		switch strings.ToLower(strings.TrimSpace(cfg.Server.RateLimit.Store)) {
		case app.RateStoreDatabase:
			counters = cache.NewCounterStore(stack.DB)
			stack.RateStore = middleware.NewDatabaseRateStore(counters)
		case "", app.RateStoreMemory:
			stack.RateStore = middleware.NewMemoryRateStore(cfg.Server.RateLimit.Window)
		default:
			return nil, fmt.Errorf("unsupported rate limit store %q", cfg.Server.RateLimit.Store)
		}
	}

	if cfg.Maintenance.Enabled {
		auditSvc, err := services.NewAuditService(stack.DB)
		if err != nil {
			return nil, fmt.Errorf("initialise audit service: %w", err)
		}
		offeringSvc, err := services.NewOfferingService(stack.DB)
		if err != nil {
			return nil, fmt.Errorf("initialise offering service: %w", err)
		}

		opts := []maintenance.Option{
			maintenance.WithMonitor(stack.Monitor),
			maintenance.WithExpirySchedule(cfg.Maintenance.OfferingExpiry),
			maintenance.WithAuditSchedule(cfg.Maintenance.AuditRetention),
			maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		}
		if counters != nil {
			opts = append(opts, maintenance.WithCounterStore(counters, cfg.Maintenance.RateCounterPurge))
		}

		stack.Cleaner = maintenance.NewCleaner(offeringSvc, auditSvc, opts...)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	deps := api.Dependencies{
		DB:        stack.DB,
		JWT:       jwtSvc,
		Config:    cfg,
		Monitor:   stack.Monitor,
		RateStore: stack.RateStore,
		Mailer:    initialiseMailer(cfg, log),
	}

	stack.Router, err = api.NewRouter(deps)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs still running at shutdown")
		}
	}

	if closer, ok := s.RateStore.(interface{ Close() }); ok {
		closer.Close()
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(ctx context.Context, cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseOptions()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := database.Ping(pingCtx, db); err != nil {
		closeDatabase(db, zap.NewNop())
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		closeDatabase(db, zap.NewNop())
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

// reportPosture logs configuration weaknesses. It never blocks startup.
func reportPosture(ctx context.Context, db *gorm.DB, cfg *app.Config, log *zap.Logger) {
	result := security.NewPostureService(db, cfg).Run(ctx)
	for _, check := range result.Checks {
		switch check.Status {
		case security.StatusFail:
			log.Error("security posture check failed", zap.String("check", check.ID), zap.String("message", check.Message), zap.String("remediation", check.Remediation))
		case security.StatusWarn:
			log.Warn("security posture warning", zap.String("check", check.ID), zap.String("message", check.Message))
		}
	}
	log.Info("security posture evaluated",
		zap.Int("pass", result.Summary[string(security.StatusPass)]),
		zap.Int("warn", result.Summary[string(security.StatusWarn)]),
		zap.Int("fail", result.Summary[string(security.StatusFail)]),
	)
}

// initialiseMailer returns nil when SMTP is disabled or misconfigured; referrals are still recorded.
func initialiseMailer(cfg *app.Config, log *zap.Logger) mail.Mailer {
	if !cfg.Email.SMTP.Enabled {
		return nil
	}
	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		log.Warn("smtp unavailable; referral invitations disabled", zap.Error(err))
		return nil
	}
	log.Info("smtp configured", zap.String("host", cfg.Email.SMTP.Host))
	return mailer
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
