package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/investorportal/internal/auth"
	"github.com/charlesng35/investorportal/internal/auth/providers"
	"github.com/charlesng35/investorportal/internal/database"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.False(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, []string{"https://portal.example.com", "https://www.example.com"}, cfg.Server.CORS.AllowedOrigins)
	require.Equal(t, 30, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Host)
	require.Equal(t, "require", cfg.Database.Options["sslmode"])

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, "investor_session", cfg.Auth.CookieName())
	require.True(t, cfg.Auth.Session.CookieSecure)
	require.Equal(t, 7, cfg.Auth.Local.LockoutThreshold)
	require.Equal(t, 20*time.Minute, cfg.Auth.Local.LockoutDuration)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.Equal(t, "@every 30m", cfg.Maintenance.OfferingExpiry)
	require.Equal(t, "@daily", cfg.Maintenance.AuditRetention)
	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.True(t, cfg.Monitoring.Health.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.True(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 12*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, "portal_session", cfg.Auth.CookieName())
	require.False(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, "@every 15m", cfg.Maintenance.RateCounterPurge)
	require.Equal(t, RateStoreMemory, cfg.Server.RateLimit.Store)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORTAL_SERVER_PORT", "7070")
	t.Setenv("PORTAL_DATABASE_DRIVER", "mysql")
	t.Setenv("PORTAL_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "mysql", cfg.Database.Driver)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORS.AllowedOrigins)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{
			JWT: JWTSettings{
				Secret: "secret",
				Issuer: "issuer",
				TTL:    30 * time.Minute,
			},
			Local: LocalAuthSettings{
				LockoutThreshold: 4,
				LockoutDuration:  10 * time.Minute,
			},
		},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.Auth.JWTServiceConfig())

	require.Equal(t, providers.LocalConfig{
		LockoutThreshold: 4,
		LockoutDuration:  10 * time.Minute,
	}, cfg.Auth.LocalProviderConfig())
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultAccessTokenTTL, cfg.JWTServiceConfig().AccessTokenTTL)
	require.Equal(t, "portal_session", cfg.CookieName())

	localCfg := cfg.LocalProviderConfig()
	require.Equal(t, defaultLockoutThreshold, localCfg.LockoutThreshold)
	require.Equal(t, defaultLockoutDuration, localCfg.LockoutDuration)
}

func TestEmailAndReferralAdapters(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{BaseURL: "https://portal.example.com"},
		Email: EmailConfig{
			SMTP: SMTPConfig{
				Enabled:  true,
				Host:     "smtp.example.com",
				Port:     2525,
				Username: "user",
				Password: "pass",
				From:     "no-reply@example.com",
				UseTLS:   true,
				Timeout:  10 * time.Second,
			},
		},
		Referral: ReferralConfig{SendTimeout: time.Minute},
	}

	settings := cfg.Email.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.Equal(t, 10*time.Second, settings.Timeout)

	referral := cfg.ReferralServiceConfig()
	require.Equal(t, "https://portal.example.com", referral.BaseURL)
	require.Equal(t, time.Minute, referral.SendTimeout)
}

func TestDatabaseOptionsAdapter(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "postgres",
		Host:     "db",
		Port:     5432,
		Name:     "portal",
		Username: "portal",
		Password: "pw",
		Options:  map[string]string{"sslmode": "disable"},
	}

	require.Equal(t, database.Config{
		Driver:   "postgres",
		Host:     "db",
		Port:     5432,
		Name:     "portal",
		User:     "portal",
		Password: "pw",
		Options:  map[string]string{"sslmode": "disable"},
	}, cfg.DatabaseOptions())
}
