package email

import (
	"context"
	"fmt"
	"log/slog"

	"agency-contact-backend/config"
	"agency-contact-backend/internal/domain"
)

// Transport is a MailDispatcher with a lifecycle
type Transport interface {
	domain.MailDispatcher
	// Verify checks connectivity once; callers log failures and keep running
	Verify(ctx context.Context) error
	Close() error
}

// NewTransport picks the transport named by MAIL_TRANSPORT. It returns
// domain.ErrMailNotConfigured when the chosen transport lacks settings.
func NewTransport(cfg *config.Config, logger *slog.Logger) (Transport, error) {
	switch cfg.MailTransport {
	case "", "smtp":
		if cfg.SMTPHost == "" || cfg.SMTPFromEmail == "" {
			return nil, domain.ErrMailNotConfigured
		}
		return NewSMTPDispatcher(SMTPConfig{
			Host:               cfg.SMTPHost,
			Port:               cfg.SMTPPort,
			Username:           cfg.SMTPUsername,
			Password:           cfg.SMTPPassword,
			Secure:             cfg.SMTPSecure,
			InsecureSkipVerify: cfg.SMTPInsecureSkipVerify,
			SendTimeout:        cfg.SMTPSendTimeout,
		}, logger), nil
	case "resend":
		if cfg.ResendAPIKey == "" || cfg.SMTPFromEmail == "" {
			return nil, domain.ErrMailNotConfigured
		}
		return NewResendDispatcher(cfg.ResendAPIKey, cfg.SMTPSendTimeout, logger), nil
	case "log":
		return NewLogDispatcher(logger), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_TRANSPORT %q", cfg.MailTransport)
	}
}
