package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/app"
	"github.com/charlesng35/investorportal/internal/models"
)

// CheckStatus captures the outcome of a posture check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

const (
	minSecretBytes         = 32
	recommendedSecretBytes = 48
	maxRecommendedTTL      = 24 * time.Hour
)

// Check contains the result of a single posture verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates all checks with a status summary.
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// Failed reports whether any check failed.
func (r Result) Failed() bool {
	return r.Summary[string(StatusFail)] > 0
}

// PostureService evaluates the portal's security-relevant configuration.
type PostureService struct {
	db  *gorm.DB
	cfg *app.Config
	now func() time.Time
}

// NewPostureService constructs the service. db may be nil, which downgrades the investor type check to a warning.
func NewPostureService(db *gorm.DB, cfg *app.Config) *PostureService {
	return &PostureService{db: db, cfg: cfg, now: time.Now}
}

// WithClock overrides the clock used in results (primarily for testing).
func (s *PostureService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Run executes all posture checks and returns their outcome.
func (s *PostureService) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	var checks []Check
	if s.cfg == nil {
		checks = []Check{{
			ID:          "configuration_loaded",
			Status:      StatusFail,
			Message:     "Configuration not loaded.",
			Remediation: "Load configuration before running the posture check.",
		}}
	} else {
		checks = []Check{
			s.checkJWTSecret(),
			s.checkSessionTTL(),
			s.checkSessionCookie(),
			s.checkCSRF(),
			s.checkLockout(),
			s.checkSMTPTransport(),
			s.checkInvestorTypes(ctx),
		}
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{
		CheckedAt: s.now().UTC(),
		Checks:    checks,
		Summary:   summary,
	}
}

func (s *PostureService) checkJWTSecret() Check {
	length := len(strings.TrimSpace(s.cfg.Auth.JWT.Secret))

	switch {
	case length == 0:
		return Check{
			ID:          "jwt_secret_strength",
			Status:      StatusFail,
			Message:     "Missing session signing secret.",
			Remediation: "Provide a cryptographically secure signing secret (>= 32 bytes).",
		}
	case length < minSecretBytes:
		return Check{
			ID:          "jwt_secret_strength",
			Status:      StatusFail,
			Message:     fmt.Sprintf("Session signing secret is too short (%d bytes).", length),
			Remediation: "Use a randomly generated secret of at least 32 bytes.",
			Details:     map[string]any{"length": length},
		}
	case length < recommendedSecretBytes:
		return Check{
			ID:          "jwt_secret_strength",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Session signing secret is %d bytes. Consider increasing to 48+ bytes.", length),
			Remediation: "Increase the length of PORTAL_AUTH_JWT_SECRET to at least 48 bytes.",
			Details:     map[string]any{"length": length},
		}
	default:
		return Check{
			ID:      "jwt_secret_strength",
			Status:  StatusPass,
			Message: fmt.Sprintf("Session signing secret length is %d bytes.", length),
			Details: map[string]any{"length": length},
		}
	}
}

func (s *PostureService) checkSessionTTL() Check {
	ttl := s.cfg.Auth.JWT.TTL
	if ttl <= 0 {
		return Check{
			ID:          "session_ttl",
			Status:      StatusWarn,
			Message:     "Session lifetime is not configured; using default duration.",
			Remediation: "Set PORTAL_AUTH_JWT_ACCESS_TOKEN_TTL to control session lifetime.",
		}
	}
	if ttl > maxRecommendedTTL {
		return Check{
			ID:          "session_ttl",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Session lifetime (%s) exceeds recommended maximum (%s).", ttl, maxRecommendedTTL),
			Remediation: "Reduce the session lifetime to 24 hours or lower.",
			Details:     map[string]any{"ttl": ttl.String()},
		}
	}
	return Check{
		ID:      "session_ttl",
		Status:  StatusPass,
		Message: fmt.Sprintf("Session lifetime is %s.", ttl),
		Details: map[string]any{"ttl": ttl.String()},
	}
}

func (s *PostureService) checkSessionCookie() Check {
	https := strings.HasPrefix(strings.ToLower(strings.TrimSpace(s.cfg.Server.BaseURL)), "https://")
	secure := s.cfg.Auth.Session.CookieSecure

	switch {
	case https && !secure:
		return Check{
			ID:          "session_cookie_secure",
			Status:      StatusWarn,
			Message:     "Portal is served over HTTPS but the session cookie is not marked Secure.",
			Remediation: "Set PORTAL_AUTH_SESSION_COOKIE_SECURE=true.",
		}
	case !https && secure:
		return Check{
			ID:          "session_cookie_secure",
			Status:      StatusFail,
			Message:     "Session cookie is marked Secure but the base URL is not HTTPS; browsers will drop it.",
			Remediation: "Serve the portal over HTTPS or disable auth.session.cookie_secure for local development.",
		}
	case !https:
		return Check{
			ID:      "session_cookie_secure",
			Status:  StatusWarn,
			Message: "Portal base URL is plain HTTP.",
		}
	default:
		return Check{
			ID:      "session_cookie_secure",
			Status:  StatusPass,
			Message: "Session cookie is Secure and the portal is served over HTTPS.",
		}
	}
}

func (s *PostureService) checkCSRF() Check {
	if !s.cfg.Server.CSRF.Enabled {
		return Check{
			ID:          "csrf_protection",
			Status:      StatusFail,
			Message:     "CSRF protection is disabled; forms and intake endpoints accept cross-site posts.",
			Remediation: "Set PORTAL_SERVER_CSRF_ENABLED=true.",
		}
	}
	return Check{ID: "csrf_protection", Status: StatusPass, Message: "CSRF protection enabled."}
}

func (s *PostureService) checkLockout() Check {
	local := s.cfg.Auth.Local
	if local.LockoutThreshold <= 0 || local.LockoutDuration <= 0 {
		return Check{
			ID:          "login_lockout",
			Status:      StatusWarn,
			Message:     "Login lockout is not configured; defaults apply.",
			Remediation: "Set auth.local.lockout_threshold and auth.local.lockout_duration.",
		}
	}
	return Check{
		ID:      "login_lockout",
		Status:  StatusPass,
		Message: fmt.Sprintf("Accounts lock for %s after %d failed logins.", local.LockoutDuration, local.LockoutThreshold),
	}
}

func (s *PostureService) checkSMTPTransport() Check {
	smtp := s.cfg.Email.SMTP
	switch {
	case !smtp.Enabled:
		return Check{ID: "smtp_transport", Status: StatusPass, Message: "SMTP disabled; referral invitations are not sent."}
	case !smtp.UseTLS:
		return Check{
			ID:          "smtp_transport",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("SMTP relay %s is used without TLS.", smtp.Host),
			Remediation: "Set PORTAL_EMAIL_SMTP_USE_TLS=true.",
		}
	default:
		return Check{ID: "smtp_transport", Status: StatusPass, Message: "SMTP relay uses TLS."}
	}
}

func (s *PostureService) checkInvestorTypes(ctx context.Context) Check {
	if s.db == nil {
		return Check{
			ID:          "investor_types_seeded",
			Status:      StatusWarn,
			Message:     "Database unavailable; unable to confirm investor types.",
			Remediation: "Ensure database connectivity before running the posture check.",
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.InvestorType{}).Count(&count).Error; err != nil {
		return Check{
			ID:          "investor_types_seeded",
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Could not count investor types: %v", err),
			Remediation: "Retry after resolving database errors.",
		}
	}
	if count == 0 {
		return Check{
			ID:          "investor_types_seeded",
			Status:      StatusFail,
			Message:     "No investor types exist; no user can see any offering.",
			Remediation: "Run migrations with seeding enabled.",
		}
	}
	return Check{
		ID:      "investor_types_seeded",
		Status:  StatusPass,
		Message: "Investor types present.",
		Details: map[string]any{"count": count},
	}
}
