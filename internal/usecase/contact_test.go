package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency-contact-backend/internal/domain"
	"agency-contact-backend/internal/usecase"
	"agency-contact-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newContactUsecase(d domain.MailDispatcher, retries int) domain.ContactUsecase {
	return usecase.NewContactUsecase(usecase.ContactDeps{
		Dispatcher:   d,
		Composer:     usecase.NewNotificationComposer("web@agency.cz", "Agentura", "team@agency.cz"),
		Validate:     validation.New(),
		RetryCount:   retries,
		RetryBackoff: time.Millisecond,
		Logger:       discardLogger(),
	})
}

func janaRequest() *domain.ContactRequest {
	return &domain.ContactRequest{FirstName: "Jana", Email: "jana@example.com", Message: "Ahoj"}
}

func TestValidateSubmission(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		req     domain.ContactRequest
		kind    domain.ValidationErrorKind
		field   string
		message string
	}{
		{"missing first name", domain.ContactRequest{Email: "jana@example.com", Message: "Ahoj"}, domain.MissingField, "firstName", "Vyplňte prosím jméno."},
		{"blank first name", domain.ContactRequest{FirstName: "   ", Email: "jana@example.com", Message: "Ahoj"}, domain.MissingField, "firstName", "Vyplňte prosím jméno."},
		{"missing email", domain.ContactRequest{FirstName: "Jana", Message: "Ahoj"}, domain.MissingField, "email", "Vyplňte prosím e-mail."},
		{"missing message", domain.ContactRequest{FirstName: "Jana", Email: "jana@example.com", Message: "\n\t"}, domain.MissingField, "message", "Vyplňte prosím zprávu."},
		{"missing wins over format", domain.ContactRequest{FirstName: "Jana", Email: "nope"}, domain.MissingField, "message", "Vyplňte prosím zprávu."},
		{"no at sign", domain.ContactRequest{FirstName: "Jana", Email: "jana.example.com", Message: "Ahoj"}, domain.InvalidEmailFormat, "email", validation.InvalidEmailMessage},
		{"no dot after at", domain.ContactRequest{FirstName: "Jana", Email: "jana@example", Message: "Ahoj"}, domain.InvalidEmailFormat, "email", validation.InvalidEmailMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := usecase.ValidateSubmission(v, &tt.req)

			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.kind, vErr.Kind)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, tt.message, vErr.Message)
		})
	}

	t.Run("valid submission is trimmed", func(t *testing.T) {
		sub, err := usecase.ValidateSubmission(v, &domain.ContactRequest{
			FirstName: " Jana ",
			LastName:  " Nováková",
			Email:     "jana@example.com ",
			Message:   " Ahoj ",
		})
		require.NoError(t, err)
		assert.Equal(t, "Jana", sub.FirstName)
		assert.Equal(t, "Jana Nováková", sub.FullName())
		assert.Equal(t, "jana@example.com", sub.Email)
		assert.Equal(t, "Ahoj", sub.Message)
		assert.Empty(t, sub.Company)
	})
}

func TestSendContactMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("both notifications delivered", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", mock.Anything, to("jana@example.com")).Return(nil).Once()
		d.On("Send", mock.Anything, mock.MatchedBy(func(msg domain.OutboundMessage) bool {
			return msg.To == "team@agency.cz" &&
				msg.ReplyTo == "jana@example.com" &&
				msg.Subject == "Nová poptávka: Jana (Bez firmy)"
		})).Return(nil).Once()

		report, err := newContactUsecase(d, 0).SendContactMessage(ctx, janaRequest())
		require.NoError(t, err)
		assert.True(t, report.Delivered())
		d.AssertExpectations(t)
	})

	t.Run("invalid submission sends nothing", func(t *testing.T) {
		d := new(MockDispatcher)

		report, err := newContactUsecase(d, 0).SendContactMessage(ctx, &domain.ContactRequest{FirstName: "Jana", Email: "jana@example.com"})
		assert.Nil(t, report)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
		d.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("client fails, team still notified", func(t *testing.T) {
		d := new(MockDispatcher)
		rejected := &domain.SendError{Kind: domain.SendRejected, Err: errors.New("550 mailbox unavailable")}
		d.On("Send", mock.Anything, to("jana@example.com")).Return(rejected).Once()
		d.On("Send", mock.Anything, to("team@agency.cz")).Return(nil).Once()

		report, err := newContactUsecase(d, 0).SendContactMessage(ctx, janaRequest())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
		assert.ErrorIs(t, err, rejected)
		require.NotNil(t, report)
		assert.False(t, report.Delivered())
		assert.NoError(t, report.Team)
		d.AssertExpectations(t)
	})

	t.Run("team fails", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", mock.Anything, to("jana@example.com")).Return(nil).Once()
		d.On("Send", mock.Anything, to("team@agency.cz")).Return(&domain.SendError{Kind: domain.SendTransport}).Once()

		report, err := newContactUsecase(d, 0).SendContactMessage(ctx, janaRequest())
		assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
		assert.NoError(t, report.Client)
		assert.Error(t, report.Team)
	})

	t.Run("no transport configured", func(t *testing.T) {
		uc := usecase.NewContactUsecase(usecase.ContactDeps{Logger: discardLogger()})
		_, err := uc.SendContactMessage(ctx, janaRequest())
		assert.ErrorIs(t, err, domain.ErrMailNotConfigured)
	})

	t.Run("canceled request context still sends", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), mock.Anything).Return(nil).Twice()

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := newContactUsecase(d, 0).SendContactMessage(canceled, janaRequest())
		assert.NoError(t, err)
		d.AssertExpectations(t)
	})
}

func TestSendContactMessageRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("transport errors are retried", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", mock.Anything, to("jana@example.com")).Return(&domain.SendError{Kind: domain.SendTransport}).Once()
		d.On("Send", mock.Anything, to("jana@example.com")).Return(nil).Once()
		d.On("Send", mock.Anything, to("team@agency.cz")).Return(&domain.SendError{Kind: domain.SendTimeout}).Once()
		d.On("Send", mock.Anything, to("team@agency.cz")).Return(nil).Once()

		report, err := newContactUsecase(d, 2).SendContactMessage(ctx, janaRequest())
		require.NoError(t, err)
		assert.True(t, report.Delivered())
		d.AssertNumberOfCalls(t, "Send", 4)
	})

	t.Run("rejections are not retried", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", mock.Anything, to("jana@example.com")).Return(&domain.SendError{Kind: domain.SendRejected}).Once()
		d.On("Send", mock.Anything, to("team@agency.cz")).Return(nil).Once()

		_, err := newContactUsecase(d, 3).SendContactMessage(ctx, janaRequest())
		assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
		d.AssertNumberOfCalls(t, "Send", 2)
	})

	t.Run("retries are bounded", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", mock.Anything, to("jana@example.com")).Return(nil).Once()
		d.On("Send", mock.Anything, to("team@agency.cz")).Return(&domain.SendError{Kind: domain.SendTransport})

		report, err := newContactUsecase(d, 2).SendContactMessage(ctx, janaRequest())
		assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
		assert.Error(t, report.Team)
		d.AssertNumberOfCalls(t, "Send", 4)
	})

	t.Run("no retry by default", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", mock.Anything, mock.Anything).Return(&domain.SendError{Kind: domain.SendTransport})

		_, err := newContactUsecase(d, 0).SendContactMessage(ctx, janaRequest())
		assert.Error(t, err)
		d.AssertNumberOfCalls(t, "Send", 2)
	})
}
