package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/app"
	iauth "github.com/charlesng35/investorportal/internal/auth"
	"github.com/charlesng35/investorportal/internal/auth/providers"
	"github.com/charlesng35/investorportal/internal/handlers"
	"github.com/charlesng35/investorportal/internal/middleware"
	"github.com/charlesng35/investorportal/internal/monitoring"
	"github.com/charlesng35/investorportal/internal/monitoring/checks"
	"github.com/charlesng35/investorportal/internal/services"
	"github.com/charlesng35/investorportal/pkg/mail"
	"github.com/charlesng35/investorportal/web"
)

const defaultMetricsPath = "/metrics"

// Dependencies are the long-lived collaborators the router wires into handlers.
type Dependencies struct {
	DB     *gorm.DB
	JWT    *iauth.JWTService
	Config *app.Config

	// Monitor is optional; a private module is created when nil.
	Monitor *monitoring.Module
	// RateStore is optional; rate limiting is skipped when nil.
	RateStore middleware.RateStore
	// Mailer is optional; referral invitations are skipped when nil.
	Mailer mail.Mailer
}

// NewRouter builds the Gin engine, wires middleware and registers the portal routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, errors.New("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, errors.New("config must be provided")
	}
	cfg := deps.Config
	db := deps.DB

	mon := deps.Monitor
	if mon == nil {
		mon = monitoring.NewModule(monitoring.Options{ProbeTimeout: cfg.Monitoring.Health.ProbeTimeout})
	}

	r := gin.New()
	if err := loadAssets(r); err != nil {
		return nil, err
	}

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins))
	if cfg.Server.CSRF.Enabled {
		r.Use(middleware.CSRF(middleware.CSRFOptions{SecureCookie: cfg.Auth.Session.CookieSecure}))
	}
	if deps.RateStore != nil && cfg.Server.RateLimit.Requests > 0 {
		r.Use(middleware.RateLimit(deps.RateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	provider, err := providers.NewLocalProvider(db, cfg.Auth.LocalProviderConfig())
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db, provider, audit)
	if err != nil {
		return nil, err
	}
	offerings, err := services.NewOfferingService(db)
	if err != nil {
		return nil, err
	}
	allocations, err := services.NewAllocationService(db, audit)
	if err != nil {
		return nil, err
	}
	referrals, err := services.NewReferralService(db, audit, deps.Mailer, cfg.ReferralServiceConfig())
	if err != nil {
		return nil, err
	}

	cookieName := cfg.Auth.CookieName()
	authHandler, err := handlers.NewAuthHandler(users, offerings, provider, audit, deps.JWT, handlers.SessionCookieConfig{
		Name:   cookieName,
		Secure: cfg.Auth.Session.CookieSecure,
	})
	if err != nil {
		return nil, err
	}
	pageHandler, err := handlers.NewPageHandler(users, offerings, allocations, referrals, cookieName)
	if err != nil {
		return nil, err
	}
	intakeHandler, err := handlers.NewIntakeHandler(allocations, referrals)
	if err != nil {
		return nil, err
	}

	// Public pages
	r.GET("/", pageHandler.Landing)
	r.GET("/signup", authHandler.SignupForm)
	r.POST("/signup", authHandler.Signup)
	r.GET("/login", authHandler.LoginForm)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Intake endpoints identify the user in the payload.
	r.POST("/create-request-allocation", intakeHandler.CreateRequestAllocation)
	r.POST("/create-referral", intakeHandler.CreateReferral)

	// Session-guarded pages
	member := r.Group("")
	member.Use(middleware.Auth(deps.JWT, middleware.AuthOptions{CookieName: cookieName}))
	{
		member.GET("/home", pageHandler.Home)
		member.GET("/offerings", pageHandler.OfferingsList)
		member.GET("/offerings/:slug", pageHandler.OfferingDetail)
	}

	registerHealthRoutes(r, cfg, mon, db)
	registerMetricsRoute(r, cfg, mon)

	r.NoRoute(handlers.NotFound)

	return r, nil
}

func loadAssets(r *gin.Engine) error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	static, err := web.Static()
	if err != nil {
		return fmt.Errorf("load static assets: %w", err)
	}
	r.StaticFS("/static", http.FS(static))
	return nil
}

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, mon *monitoring.Module, db *gorm.DB) {
	if !cfg.Monitoring.Health.Enabled {
		return
	}

	manager := mon.Health()
	manager.RegisterLiveness(monitoring.NewCheck("process", func(_ context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(checks.Database(db, cfg.Monitoring.Health.ProbeTimeout))
	if cfg.Maintenance.Enabled {
		manager.RegisterReadiness(checks.Maintenance(mon, 26*time.Hour))
	}

	health := handlers.NewHealthHandler(manager)
	r.GET("/health", health.Health)
	r.GET("/health/live", health.Live)
	r.GET("/health/ready", health.Ready)
}

func registerMetricsRoute(r *gin.Engine, cfg *app.Config, mon *monitoring.Module) {
	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}
	path := cfg.Monitoring.Prometheus.Endpoint
	if path == "" {
		path = defaultMetricsPath
	}
	r.GET(path, gin.WrapH(mon.Handler()))
}
