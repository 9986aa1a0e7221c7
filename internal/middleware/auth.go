package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/investorportal/internal/auth"
	"github.com/charlesng35/investorportal/pkg/errors"
	"github.com/charlesng35/investorportal/pkg/response"
)

const (
	CtxClaimsKey   = "authClaims"
	CtxUserIDKey   = "userID"
	CtxUsernameKey = "username"

	// DefaultSessionCookie carries the signed session token for browsers.
	DefaultSessionCookie = "portal_session"
	// DefaultLoginPath is where unauthenticated page requests are sent.
	DefaultLoginPath = "/login"
)

// AuthOptions configures where the session token is read from and where browsers are redirected.
type AuthOptions struct {
	CookieName string
	LoginPath  string
}

func (o AuthOptions) withDefaults() AuthOptions {
	if o.CookieName == "" {
		o.CookieName = DefaultSessionCookie
	}
	if o.LoginPath == "" {
		o.LoginPath = DefaultLoginPath
	}
	return o
}

// Auth requires a valid session token from the session cookie or a Bearer header.
// Browsers are redirected to the login page; JSON clients receive 401.
func Auth(jwt *iauth.JWTService, opts AuthOptions) gin.HandlerFunc {
	opts = opts.withDefaults()

	return func(c *gin.Context) {
		claims, err := jwt.ValidateAccessToken(TokenFromRequest(c, opts.CookieName))
		if err != nil {
			if WantsJSON(c) {
				c.Header("WWW-Authenticate", "Bearer")
				response.Error(c, errors.ErrUnauthorized)
				c.Abort()
				return
			}
			c.Redirect(http.StatusFound, LoginRedirect(opts.LoginPath, c.Request.URL))
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUsernameKey, claims.Username)

		c.Next()
	}
}

// TokenFromRequest returns the Bearer token when present, otherwise the session cookie value.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	authz := c.GetHeader("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// WantsJSON reports whether the client asked for a JSON response rather than a page.
func WantsJSON(c *gin.Context) bool {
	if strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// LoginRedirect builds "<loginPath>?next=<path>" keeping slashes readable.
func LoginRedirect(loginPath string, target *url.URL) string {
	if target == nil || target.Path == "" {
		return loginPath
	}
	next := (&url.URL{Path: target.Path}).EscapedPath()
	if target.RawQuery != "" {
		next += "%3F" + url.QueryEscape(target.RawQuery)
	}
	return loginPath + "?next=" + next
}

// SafeNext returns next when it is a local absolute path, otherwise fallback.
func SafeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	parsed, err := url.Parse(next)
	if err != nil || parsed.Host != "" || parsed.Scheme != "" {
		return fallback
	}
	return next
}
