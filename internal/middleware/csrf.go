package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/investorportal/pkg/crypto"
	"github.com/charlesng35/investorportal/pkg/errors"
	"github.com/charlesng35/investorportal/pkg/logger"
	"github.com/charlesng35/investorportal/pkg/response"
)

const (
	// CSRFCookieName is the cookie used to transport the CSRF token to clients.
	CSRFCookieName = "portal_csrf"
	// CSRFHeaderName is the header the intake script sends with JSON posts.
	CSRFHeaderName = "X-CSRF-Token"
	// CSRFFormField is the hidden field the signup and login forms submit.
	CSRFFormField = "csrf_token"
	// CtxCSRFTokenKey exposes the current token to page handlers.
	CtxCSRFTokenKey = "csrfToken"

	csrfTokenLength   = 48
	defaultCSRFMaxAge = 12 * time.Hour
)

// CSRFOptions tune the token cookie.
type CSRFOptions struct {
	// SecureCookie forces the Secure flag even when TLS terminates upstream
	// without X-Forwarded-Proto.
	SecureCookie bool
	MaxAge       time.Duration
}

// CSRF guards state-changing requests with a double-submit cookie. Every
// request receives the token (cookie, response header, gin context); POST,
// PUT, PATCH and DELETE must echo it in the header or the form field.
func CSRF(opts CSRFOptions) gin.HandlerFunc {
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultCSRFMaxAge
	}
	log := logger.WithModule("csrf")

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, fresh := "", false
		if existing, err := c.Cookie(CSRFCookieName); err == nil && existing != "" {
			token = existing
		} else {
			generated, err := crypto.GenerateToken(csrfTokenLength)
			if err != nil {
				response.Error(c, errors.ErrInternalServer)
				c.Abort()
				return
			}
			token, fresh = generated, true
		}
		c.SetSameSite(http.SameSiteLaxMode)
		// Readable by app.js, which copies it into the header.
		c.SetCookie(CSRFCookieName, token, int(opts.MaxAge.Seconds()), "/", "", opts.SecureCookie || isSecureRequest(c.Request), false)
		c.Set(CtxCSRFTokenKey, token)

		if !mutates(c.Request.Method) {
			c.Header(CSRFHeaderName, token)
			c.Next()
			return
		}

		if !tokensMatch(token, submittedToken(c)) {
			log.Warn("csrf validation failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Bool("cookie_issued", fresh),
			)
			response.Error(c, errors.ErrCSRFInvalid)
			c.Abort()
			return
		}
		c.Next()
	}
}

func submittedToken(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader(CSRFHeaderName)); header != "" {
		return header
	}
	if strings.HasPrefix(c.ContentType(), gin.MIMEPOSTForm) || strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		return strings.TrimSpace(c.PostForm(CSRFFormField))
	}
	return ""
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func mutates(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func tokensMatch(expected, submitted string) bool {
	if expected == "" || len(expected) != len(submitted) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1
}
