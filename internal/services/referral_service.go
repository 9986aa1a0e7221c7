package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/investorportal/internal/models"
	"github.com/charlesng35/investorportal/pkg/logger"
	"github.com/charlesng35/investorportal/pkg/mail"
	"github.com/charlesng35/investorportal/pkg/metrics"
	"github.com/charlesng35/investorportal/pkg/validator"
)

// ReferralInput is the intake payload for a referral.
type ReferralInput struct {
	User        any
	InviteName  string `validate:"required,max=150"`
	InviteEmail string `validate:"required,email,max=254"`
	IPAddress   string
	UserAgent   string
}

// ReferralConfig controls invitation delivery.
type ReferralConfig struct {
	// BaseURL is the public portal address used in invitation links.
	BaseURL     string
	SendTimeout time.Duration
}

// ReferralService records referrals and emails the invitee.
type ReferralService struct {
	db     *gorm.DB
	audit  *AuditService
	mailer mail.Mailer
	cfg    ReferralConfig
	log    *zap.Logger

	// dispatch runs invitation delivery; tests replace it to run inline.
	dispatch func(func())
}

// NewReferralService constructs a ReferralService. mailer may be nil to skip invitations.
func NewReferralService(db *gorm.DB, audit *AuditService, mailer mail.Mailer, cfg ReferralConfig) (*ReferralService, error) {
	if db == nil {
		return nil, errors.New("referral service: db is required")
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &ReferralService{
		db:       db,
		audit:    audit,
		mailer:   mailer,
		cfg:      cfg,
		log:      logger.WithModule("referrals"),
		dispatch: func(fn func()) { go fn() },
	}, nil
}

// Create stores the referral and returns its id.
func (s *ReferralService) Create(ctx context.Context, input ReferralInput) (uint, error) {
	ctx = ensureContext(ctx)

	id, err := s.create(ctx, input)
	result := "success"
	if err != nil {
		result = intakeResult(err)
	}
	metrics.Referrals.WithLabelValues(result).Inc()
	return id, err
}

func (s *ReferralService) create(ctx context.Context, input ReferralInput) (uint, error) {
	userID, ok := coerceID(input.User)
	if !ok {
		return 0, ErrMalformedReference
	}

	input.InviteName = strings.TrimSpace(input.InviteName)
	input.InviteEmail = strings.TrimSpace(input.InviteEmail)
	if err := validator.ValidateStruct(&input); err != nil {
		return 0, ErrInvalidInvite
	}
	name, email := input.InviteName, input.InviteEmail

	var user models.User
	db := s.db.WithContext(ctx)
	if err := db.Select("id", "username", "email").Take(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrReferenceNotFound.WithMessage("User not found")
		}
		return 0, fmt.Errorf("referral service: load user: %w", err)
	}

	referral := models.Referral{
		UserID:      user.ID,
		InviteName:  name,
		InviteEmail: email,
	}
	if err := db.Create(&referral).Error; err != nil {
		return 0, fmt.Errorf("referral service: create referral: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:    uintPtr(user.ID),
		Username:  user.Username,
		Action:    "referral.create",
		Resource:  fmt.Sprintf("referral:%d", referral.ID),
		Result:    AuditResultSuccess,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		Metadata:  map[string]any{"invite_email": email},
	})

	if s.mailer != nil {
		msg := s.invitation(user, referral)
		s.dispatch(func() { s.sendInvitation(referral.ID, msg) })
	}

	return referral.ID, nil
}

// ListForUser returns referrals made by the user, newest first.
func (s *ReferralService) ListForUser(ctx context.Context, userID uint) ([]models.Referral, error) {
	ctx = ensureContext(ctx)

	referrals := []models.Referral{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&referrals).Error; err != nil {
		return nil, fmt.Errorf("referral service: list referrals: %w", err)
	}
	return referrals, nil
}

func (s *ReferralService) invitation(user models.User, referral models.Referral) mail.Message {
	link := strings.TrimRight(s.cfg.BaseURL, "/") + "/signup"
	body := fmt.Sprintf(
		"Hi %s,\n\n%s has invited you to join the investor portal.\n\nCreate your account at %s\n",
		referral.InviteName, user.Username, link,
	)
	return mail.Message{
		To:      []string{referral.InviteEmail},
		ReplyTo: user.Email,
		Subject: fmt.Sprintf("%s invited you to the investor portal", user.Username),
		Body:    body,
	}
}

func (s *ReferralService) sendInvitation(referralID uint, msg mail.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SendTimeout)
	defer cancel()

	err := s.mailer.Send(ctx, msg)
	switch {
	case err == nil:
		s.log.Info("referral invitation sent", zap.Uint("referral_id", referralID))
	case errors.Is(err, mail.ErrSMTPDisabled):
		s.log.Debug("referral invitation skipped: smtp disabled", zap.Uint("referral_id", referralID))
	default:
		s.log.Warn("referral invitation failed", zap.Uint("referral_id", referralID), zap.Error(err))
	}
}
