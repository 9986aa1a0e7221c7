package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/investorportal/internal/middleware"
	"github.com/charlesng35/investorportal/internal/services"
)

const offeringsPath = "/offerings"

// PageHandler serves the landing, home and offering pages.
type PageHandler struct {
	users       *services.UserService
	offerings   *services.OfferingService
	allocations *services.AllocationService
	referrals   *services.ReferralService
	cookieName  string
}

// NewPageHandler constructs a PageHandler. cookieName is cleared when a session names a deleted user.
func NewPageHandler(users *services.UserService, offerings *services.OfferingService, allocations *services.AllocationService, referrals *services.ReferralService, cookieName string) (*PageHandler, error) {
	if users == nil || offerings == nil || allocations == nil || referrals == nil {
		return nil, errors.New("page handler: users, offerings, allocations and referrals are required")
	}
	if cookieName == "" {
		cookieName = middleware.DefaultSessionCookie
	}
	return &PageHandler{
		users:       users,
		offerings:   offerings,
		allocations: allocations,
		referrals:   referrals,
		cookieName:  cookieName,
	}, nil
}

// GET /
func (h *PageHandler) Landing(c *gin.Context) {
	render(c, http.StatusOK, "landing.html", gin.H{})
}

// GET /home
func (h *PageHandler) Home(c *gin.Context) {
	ctx := requestContext(c)
	user, err := h.users.GetByID(ctx, currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	offerings, err := h.offerings.ListVisible(ctx, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	requests, err := h.allocations.ListForUser(ctx, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	referrals, err := h.referrals.ListForUser(ctx, user.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	render(c, http.StatusOK, "home.html", gin.H{
		"user_id":         user.ID,
		"username":        user.Username,
		"offerings":       offerings,
		"req_allocations": requests,
		"referrals":       referrals,
	})
}

// GET /offerings
func (h *PageHandler) OfferingsList(c *gin.Context) {
	ctx := requestContext(c)
	userID := currentUserID(c)

	offerings, err := h.offerings.ListVisible(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	past, err := h.offerings.ListPast(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	render(c, http.StatusOK, "offerings_list.html", gin.H{
		"offerings":      offerings,
		"past_offerings": past,
	})
}

// GET /offerings/:slug
func (h *PageHandler) OfferingDetail(c *gin.Context) {
	userID := currentUserID(c)
	offering, err := h.offerings.GetForUser(requestContext(c), userID, c.Param("slug"))
	switch {
	case errors.Is(err, services.ErrOfferingForbidden):
		c.Redirect(http.StatusFound, offeringsPath)
		return
	case err != nil:
		h.fail(c, err)
		return
	}

	render(c, http.StatusOK, "offering_detail.html", gin.H{
		"user_id":  userID,
		"offering": offering,
	})
}

// fail ends the session when the signed-in user no longer exists and renders
// every other error.
func (h *PageHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, services.ErrUserNotFound) {
		h.endStaleSession(c)
		return
	}
	renderError(c, err)
}

func (h *PageHandler) endStaleSession(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{Name: h.cookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	if middleware.WantsJSON(c) {
		renderError(c, services.ErrUserNotFound)
		return
	}
	c.Redirect(http.StatusFound, middleware.LoginRedirect(middleware.DefaultLoginPath, c.Request.URL))
}
