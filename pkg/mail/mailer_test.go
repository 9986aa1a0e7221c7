package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	gomail "github.com/go-mail/mail"
	"github.com/stretchr/testify/require"
)

func enabledSettings() SMTPSettings {
	return SMTPSettings{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "no-reply@example.com",
	}
}

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "host is required")

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "port is required")

	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, mailer)
}

func TestSMTPMailerSendDisabled(t *testing.T) {
	mailer, err := NewSMTPMailer(SMTPSettings{Enabled: false})
	require.NoError(t, err)

	err = mailer.Send(context.Background(), Message{
		To:      []string{"test@example.com"},
		Subject: "Test",
		Body:    "Hello",
	})
	require.ErrorIs(t, err, ErrSMTPDisabled)
}

func TestSMTPMailerDefaultTimeout(t *testing.T) {
	mailer, err := NewSMTPMailer(enabledSettings())
	require.NoError(t, err)

	sm, ok := mailer.(*smtpMailer)
	require.True(t, ok)
	require.Equal(t, 10*time.Second, sm.cfg.Timeout)
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	mailer, err := NewSMTPMailer(enabledSettings())
	require.NoError(t, err)
	sm := mailer.(*smtpMailer)

	var captured *gomail.Message
	sm.send = func(_ context.Context, _ SMTPSettings, msg *gomail.Message) error {
		captured = msg
		return nil
	}

	err = mailer.Send(context.Background(), Message{
		To:      []string{"friend@example.com", " friend@example.com ", ""},
		Subject: "You're invited\r\nBcc: evil@example.com",
		Body:    "Hello",
	})
	require.NoError(t, err)
	require.NotNil(t, captured)
	require.Equal(t, []string{"no-reply@example.com"}, captured.GetHeader("From"))
	require.Equal(t, []string{"friend@example.com"}, captured.GetHeader("To"))

	subject := captured.GetHeader("Subject")
	require.Len(t, subject, 1)
	require.False(t, strings.ContainsAny(subject[0], "\r\n"))
}

func TestSMTPMailerRejectsInvalidAddresses(t *testing.T) {
	mailer, err := NewSMTPMailer(enabledSettings())
	require.NoError(t, err)
	sm := mailer.(*smtpMailer)
	sm.send = func(context.Context, SMTPSettings, *gomail.Message) error {
		t.Fatal("send should not be called")
		return nil
	}

	err = mailer.Send(context.Background(), Message{To: nil, Subject: "x"})
	require.Error(t, err)

	err = mailer.Send(context.Background(), Message{To: []string{"not-an-address"}, Subject: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid recipient")
}

func TestSMTPMailerPropagatesSendError(t *testing.T) {
	mailer, err := NewSMTPMailer(enabledSettings())
	require.NoError(t, err)
	sm := mailer.(*smtpMailer)
	boom := errors.New("boom")
	sm.send = func(context.Context, SMTPSettings, *gomail.Message) error { return boom }

	err = mailer.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "x", Body: "y"})
	require.ErrorIs(t, err, boom)
}

func TestSMTPMailerHonoursCancelledContext(t *testing.T) {
	mailer, err := NewSMTPMailer(enabledSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = mailer.Send(ctx, Message{To: []string{"a@example.com"}, Subject: "x"})
	require.ErrorIs(t, err, context.Canceled)
}
