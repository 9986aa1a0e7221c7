package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/api"
	"github.com/charlesng35/investorportal/internal/app"
	iauth "github.com/charlesng35/investorportal/internal/auth"
	sharedtestutil "github.com/charlesng35/investorportal/internal/database/testutil"
	"github.com/charlesng35/investorportal/internal/middleware"
	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/internal/monitoring"
	"github.com/charlesng35/investorportal/pkg/crypto"
	"github.com/charlesng35/investorportal/pkg/response"
)

const (
	jwtSecret  = "test-suite-super-secret-key-32-bytes!!"
	cookieName = middleware.DefaultSessionCookie
)

// Env encapsulates a fully-wired portal instance backed by an in-memory database for handler tests.
// It behaves like a browser: cookies set by responses are replayed on later requests.
type Env struct {
	T       *testing.T
	DB      *gorm.DB
	Router  *gin.Engine
	JWT     *iauth.JWTService
	Config  *app.Config
	Monitor *monitoring.Module

	cookies map[string]*http.Cookie
}

// Option adjusts the configuration before the router is built.
type Option func(*app.Config)

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	cfg := &app.Config{
		Server: app.ServerConfig{
			BaseURL: "http://portal.test",
			CSRF:    app.CSRFConfig{Enabled: true},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: jwtSecret,
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			Session: app.SessionSettings{CookieName: cookieName},
			Local: app.LocalAuthSettings{
				LockoutThreshold: 5,
				LockoutDuration:  15 * time.Minute,
			},
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true, ProbeTimeout: 2 * time.Second},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	mon := monitoring.NewModule(monitoring.Options{ProbeTimeout: cfg.Monitoring.Health.ProbeTimeout})

	router, err := api.NewRouter(api.Dependencies{
		DB:      db,
		JWT:     jwtSvc,
		Config:  cfg,
		Monitor: mon,
	})
	require.NoError(t, err)

	return &Env{
		T:       t,
		DB:      db,
		Router:  router,
		JWT:     jwtSvc,
		Config:  cfg,
		Monitor: mon,
		cookies: map[string]*http.Cookie{},
	}
}

// WithoutCSRF disables CSRF protection.
func WithoutCSRF() Option {
	return func(cfg *app.Config) { cfg.Server.CSRF.Enabled = false }
}

// CreateUser inserts an active user with a real password hash, attached to the named investor types.
func (e *Env) CreateUser(username, password string, investorTypes ...string) *models.User {
	e.T.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(e.T, err)

	types := make([]models.InvestorType, 0, len(investorTypes))
	for _, name := range investorTypes {
		types = append(types, sharedtestutil.MustInvestorType(e.T, e.DB, name))
	}

	user := &models.User{
		Username:           username,
		Email:              username + "@example.com",
		Password:           hashed,
		CountryOfResidence: "USA",
		IsActive:           true,
		InvestorTypes:      types,
	}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// Login submits the login form and asserts a session cookie was issued.
func (e *Env) Login(username, password string) {
	e.T.Helper()

	w := e.PostForm("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(e.T, http.StatusFound, w.Code, w.Body.String())
	require.NotEmpty(e.T, e.SessionToken(), "session cookie not issued")
}

// SessionToken returns the current session cookie value, if any.
func (e *Env) SessionToken() string {
	if c, ok := e.cookies[cookieName]; ok {
		return c.Value
	}
	return ""
}

// SetSessionToken installs token as the session cookie.
func (e *Env) SetSessionToken(token string) {
	e.cookies[cookieName] = &http.Cookie{Name: cookieName, Value: token}
}

// ClearCookies forgets every cookie, like a fresh browser.
func (e *Env) ClearCookies() {
	e.cookies = map[string]*http.Cookie{}
}

// Get issues a browser-style GET that prefers HTML.
func (e *Env) Get(path string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.Do(http.MethodGet, path, nil, "", "text/html")
}

// GetJSON issues a GET asking for JSON.
func (e *Env) GetJSON(path string) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.Do(http.MethodGet, path, nil, "", gin.MIMEJSON)
}

// PostForm submits url-encoded form values the way a browser form would.
func (e *Env) PostForm(path string, values url.Values) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.Do(http.MethodPost, path, strings.NewReader(values.Encode()), gin.MIMEPOSTForm, "text/html")
}

// PostJSON sends body encoded as JSON, or verbatim when body is a string.
func (e *Env) PostJSON(path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case string:
		reader = strings.NewReader(v)
	default:
		data, err := json.Marshal(v)
		require.NoError(e.T, err)
		reader = bytes.NewReader(data)
	}
	return e.Do(http.MethodPost, path, reader, gin.MIMEJSON, gin.MIMEJSON)
}

// Do executes a request against the router, replaying cookies and attaching the CSRF header to unsafe methods.
func (e *Env) Do(method, path string, body io.Reader, contentType, accept string) *httptest.ResponseRecorder {
	e.T.Helper()

	if e.Config.Server.CSRF.Enabled && requiresCSRFAttestation(method) {
		e.ensureCSRFCookie()
	}

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for _, c := range e.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	if csrf, ok := e.cookies[middleware.CSRFCookieName]; ok && requiresCSRFAttestation(method) {
		req.Header.Set(middleware.CSRFHeaderName, csrf.Value)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	e.captureCookies(w.Result())
	return w
}

func (e *Env) ensureCSRFCookie() {
	if _, ok := e.cookies[middleware.CSRFCookieName]; ok {
		return
	}
	w := e.Do(http.MethodGet, "/", nil, "", "text/html")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
}

func (e *Env) captureCookies(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(e.cookies, c.Name)
			continue
		}
		e.cookies[c.Name] = c
	}
}

func requiresCSRFAttestation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// IntakeResponse mirrors the intake endpoint envelope.
type IntakeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID uint `json:"id"`
	} `json:"data"`
}

// DecodeIntake parses an intake endpoint response.
func DecodeIntake(t *testing.T, w *httptest.ResponseRecorder) IntakeResponse {
	t.Helper()
	var resp IntakeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeJSON unmarshals the raw body of a page rendered as JSON.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload), w.Body.String())
	return payload
}
