package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/investorportal/internal/middleware"
	apperrors "github.com/charlesng35/investorportal/pkg/errors"
	"github.com/charlesng35/investorportal/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(middleware.CtxUserIDKey)
}

// render writes data as JSON for clients that ask for it, otherwise as the named HTML template.
// The CSRF token is only added to the HTML view.
func render(c *gin.Context, status int, template string, data gin.H) {
	if middleware.WantsJSON(c) {
		c.JSON(status, data)
		return
	}

	htmlData := gin.H{}
	for k, v := range data {
		htmlData[k] = v
	}
	htmlData["csrf_token"] = c.GetString(middleware.CtxCSRFTokenKey)
	if _, ok := htmlData["username"]; !ok {
		htmlData["username"] = c.GetString(middleware.CtxUsernameKey)
	}

	c.Negotiate(status, gin.Negotiate{
		Offered:  []string{gin.MIMEHTML, gin.MIMEJSON},
		HTMLName: template,
		HTMLData: htmlData,
		JSONData: data,
	})
}

// renderError writes err as the API error envelope for JSON clients and as the error page otherwise.
func renderError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	status := apperrors.HTTPStatus(appErr)

	if middleware.WantsJSON(c) {
		response.Error(c, appErr)
		return
	}
	c.HTML(status, "error.html", gin.H{
		"status":   status,
		"message":  appErr.Message,
		"username": c.GetString(middleware.CtxUsernameKey),
	})
}

// NotFound answers unknown routes with the error page or the JSON envelope.
func NotFound(c *gin.Context) {
	renderError(c, apperrors.NewNotFound("Page not found"))
}
