package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/investorportal/internal/services"
	apperrors "github.com/charlesng35/investorportal/pkg/errors"
	"github.com/charlesng35/investorportal/pkg/logger"
	"github.com/charlesng35/investorportal/pkg/response"
)

const invalidPayloadMessage = "Invalid JSON payload"

// IntakeHandler accepts allocation requests and referrals as JSON and
// always answers 200 with a status envelope.
type IntakeHandler struct {
	allocations *services.AllocationService
	referrals   *services.ReferralService
	log         *zap.Logger
}

// NewIntakeHandler constructs an IntakeHandler.
func NewIntakeHandler(allocations *services.AllocationService, referrals *services.ReferralService) (*IntakeHandler, error) {
	if allocations == nil || referrals == nil {
		return nil, errors.New("intake handler: allocation and referral services are required")
	}
	return &IntakeHandler{
		allocations: allocations,
		referrals:   referrals,
		log:         logger.WithModule("intake"),
	}, nil
}

// Ids and amounts are left untyped so numeric strings and numbers both bind.
type allocationPayload struct {
	User     any `json:"user"`
	Offering any `json:"offering"`
	Amount   any `json:"amount"`
}

type referralPayload struct {
	User        any    `json:"user"`
	InviteName  string `json:"invite_name"`
	InviteEmail string `json:"invite_email"`
}

// POST /create-request-allocation
func (h *IntakeHandler) CreateRequestAllocation(c *gin.Context) {
	var payload allocationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.IntakeError(c, invalidPayloadMessage)
		return
	}

	id, err := h.allocations.Create(requestContext(c), services.AllocationRequestInput{
		User:      payload.User,
		Offering:  payload.Offering,
		Amount:    payload.Amount,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.intakeError(c, "allocation", err)
		return
	}
	response.IntakeCreated(c, id)
}

// POST /create-referral
func (h *IntakeHandler) CreateReferral(c *gin.Context) {
	var payload referralPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.IntakeError(c, invalidPayloadMessage)
		return
	}

	id, err := h.referrals.Create(requestContext(c), services.ReferralInput{
		User:        payload.User,
		InviteName:  payload.InviteName,
		InviteEmail: payload.InviteEmail,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		h.intakeError(c, "referral", err)
		return
	}
	response.IntakeCreated(c, id)
}

// intakeError reports AppError messages to the client; anything else is logged and masked.
func (h *IntakeHandler) intakeError(c *gin.Context, kind string, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.StatusCode < 500 {
		response.IntakeError(c, appErr.Message)
		return
	}
	h.log.Error("intake failed", zap.String("kind", kind), zap.Error(err))
	response.IntakeError(c, "")
}
