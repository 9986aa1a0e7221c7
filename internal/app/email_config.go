package app

import (
	"github.com/charlesng35/investorportal/internal/services"
	"github.com/charlesng35/investorportal/pkg/mail"
)

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// ReferralServiceConfig combines the referral section with the public base URL used in invitations.
func (c *Config) ReferralServiceConfig() services.ReferralConfig {
	return services.ReferralConfig{
		BaseURL:     c.Server.BaseURL,
		SendTimeout: c.Referral.SendTimeout,
	}
}
