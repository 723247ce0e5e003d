package email

import (
	"context"
	"testing"

	"agency-contact-backend/config"
	"agency-contact-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransport(t *testing.T) {
	logger := testLogger()

	t.Run("smtp without host is not configured", func(t *testing.T) {
		_, err := NewTransport(&config.Config{MailTransport: "smtp", SMTPFromEmail: "web@agency.cz"}, logger)
		assert.ErrorIs(t, err, domain.ErrMailNotConfigured)
	})

	t.Run("smtp", func(t *testing.T) {
		tr, err := NewTransport(&config.Config{MailTransport: "smtp", SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPFromEmail: "web@agency.cz"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &SMTPDispatcher{}, tr)
	})

	t.Run("resend requires an API key", func(t *testing.T) {
		_, err := NewTransport(&config.Config{MailTransport: "resend", SMTPFromEmail: "web@agency.cz"}, logger)
		assert.ErrorIs(t, err, domain.ErrMailNotConfigured)

		tr, err := NewTransport(&config.Config{MailTransport: "resend", ResendAPIKey: "re_test", SMTPFromEmail: "web@agency.cz"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &ResendDispatcher{}, tr)
	})

	t.Run("log", func(t *testing.T) {
		tr, err := NewTransport(&config.Config{MailTransport: "log"}, logger)
		require.NoError(t, err)
		assert.NoError(t, tr.Verify(context.Background()))
		assert.NoError(t, tr.Send(context.Background(), teamMessage()))
		assert.NoError(t, tr.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewTransport(&config.Config{MailTransport: "pigeon"}, logger)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrMailNotConfigured)
	})
}
