package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/investorportal/internal/auth"
	"github.com/charlesng35/investorportal/internal/auth/providers"
	"github.com/charlesng35/investorportal/internal/middleware"
	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/internal/services"
	"github.com/charlesng35/investorportal/pkg/logger"
	"github.com/charlesng35/investorportal/pkg/metrics"
)

const homePath = "/home"

// SessionCookieConfig describes the cookie carrying the session token.
type SessionCookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler serves the signup, login and logout pages.
type AuthHandler struct {
	users     *services.UserService
	offerings *services.OfferingService
	provider  *providers.LocalProvider
	audit     *services.AuditService
	jwt       *iauth.JWTService
	cookie    SessionCookieConfig
	log       *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, offerings *services.OfferingService, provider *providers.LocalProvider, audit *services.AuditService, jwt *iauth.JWTService, cookie SessionCookieConfig) (*AuthHandler, error) {
	if users == nil || offerings == nil || provider == nil || jwt == nil {
		return nil, errors.New("auth handler: users, offerings, provider and jwt are required")
	}
	if strings.TrimSpace(cookie.Name) == "" {
		cookie.Name = middleware.DefaultSessionCookie
	}
	return &AuthHandler{
		users:     users,
		offerings: offerings,
		provider:  provider,
		audit:     audit,
		jwt:       jwt,
		cookie:    cookie,
		log:       logger.WithModule("auth"),
	}, nil
}

type loginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next" json:"next"`
}

// GET /signup
func (h *AuthHandler) SignupForm(c *gin.Context) {
	h.renderSignup(c, http.StatusOK, services.SignupInput{}, map[string]string{})
}

// POST /signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBind(&input); err != nil {
		metrics.Signups.WithLabelValues("invalid").Inc()
		h.renderSignup(c, http.StatusOK, input, map[string]string{formErrorKey: "the submitted form could not be read"})
		return
	}
	input.IPAddress = c.ClientIP()
	input.UserAgent = c.Request.UserAgent()

	user, err := h.users.Register(requestContext(c), input)
	if fields, ok := formErrors(err); ok {
		h.renderSignup(c, http.StatusOK, input, fields)
		return
	}
	if err != nil {
		h.log.Error("signup failed", zap.Error(err))
		renderError(c, err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		renderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, homePath)
}

// GET /login
func (h *AuthHandler) LoginForm(c *gin.Context) {
	if _, err := h.jwt.ValidateAccessToken(middleware.TokenFromRequest(c, h.cookie.Name)); err == nil {
		c.Redirect(http.StatusFound, middleware.SafeNext(c.Query("next"), homePath))
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{
		"form":   gin.H{"username": "", "next": middleware.SafeNext(c.Query("next"), "")},
		"errors": map[string]string{},
	})
}

// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if fields := bindForm(c, &form); fields != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.renderLogin(c, form, fields)
		return
	}

	user, err := h.provider.Authenticate(requestContext(c), providers.AuthenticateInput{
		Identifier: form.Username,
		Password:   form.Password,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		h.loginFailed(c, form, err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		renderError(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	h.recordLogin(c, user.ID, user.Username, services.AuditResultSuccess, nil)
	c.Redirect(http.StatusFound, middleware.SafeNext(form.Next, homePath))
}

// GET /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) loginFailed(c *gin.Context, form loginForm, err error) {
	message := "Please enter a correct username and password."
	result := "failure"
	switch {
	case errors.Is(err, providers.ErrAccountLocked):
		message = "This account is temporarily locked. Try again later."
		result = "locked"
	case errors.Is(err, providers.ErrAccountDisabled):
		message = "This account is inactive."
	case errors.Is(err, providers.ErrInvalidCredentials):
	default:
		h.log.Error("login failed", zap.Error(err))
		metrics.AuthAttempts.WithLabelValues("error").Inc()
		renderError(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues(result).Inc()
	h.recordLogin(c, 0, form.Username, services.AuditResultFailure, map[string]any{"reason": result})
	h.renderLogin(c, form, map[string]string{formErrorKey: message})
}

func (h *AuthHandler) startSession(c *gin.Context, user *models.User) error {
	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:   user.ID,
		Username: user.Username,
	})
	if err != nil {
		return err
	}
	h.setCookie(c, token, int(h.jwt.TTL()/time.Second))
	c.Set(middleware.CtxUsernameKey, user.Username)
	return nil
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) recordLogin(c *gin.Context, userID uint, username, result string, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	entry := services.AuditEntry{
		Username:  username,
		Action:    "user.login",
		Result:    result,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Metadata:  metadata,
	}
	if userID != 0 {
		entry.UserID = &userID
	}
	if err := h.audit.Log(requestContext(c), entry); err != nil {
		h.log.Warn("audit login", zap.Error(err))
	}
}

func (h *AuthHandler) renderLogin(c *gin.Context, form loginForm, fields map[string]string) {
	render(c, http.StatusOK, "login.html", gin.H{
		"form":   gin.H{"username": form.Username, "next": middleware.SafeNext(form.Next, "")},
		"errors": fields,
	})
}

func (h *AuthHandler) renderSignup(c *gin.Context, status int, input services.SignupInput, fields map[string]string) {
	types, err := h.offerings.ListInvestorTypes(requestContext(c))
	if err != nil {
		renderError(c, err)
		return
	}

	selected := make(map[uint]bool, len(input.InvestorTypes))
	for _, id := range input.InvestorTypes {
		selected[id] = true
	}

	render(c, status, "signup.html", gin.H{
		"form": gin.H{
			"username":             input.Username,
			"email":                input.Email,
			"phone_number":         input.PhoneNumber,
			"country_of_residence": input.CountryOfResidence,
			"investor_types":       input.InvestorTypes,
		},
		"errors":         fields,
		"investor_types": types,
		"selected_types": selected,
	})
}
