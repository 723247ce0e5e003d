package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agency-contact-backend/internal/domain"
	"agency-contact-backend/pkg/metrics"
	"agency-contact-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const (
	roleClient = "client"
	roleTeam   = "team"
)

// ContactDeps wires the contact usecase. A nil Dispatcher means no mail
// transport is configured and every submission fails with ErrMailNotConfigured.
type ContactDeps struct {
	Dispatcher   domain.MailDispatcher
	Composer     *NotificationComposer
	Validate     *validator.Validate
	RetryCount   int
	RetryBackoff time.Duration
	Logger       *slog.Logger
}

type contactUsecase struct {
	dispatcher   domain.MailDispatcher
	composer     *NotificationComposer
	validate     *validator.Validate
	retryCount   int
	retryBackoff time.Duration
	logger       *slog.Logger
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(deps ContactDeps) domain.ContactUsecase {
	v := deps.Validate
	if v == nil {
		v = validation.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &contactUsecase{
		dispatcher:   deps.Dispatcher,
		composer:     deps.Composer,
		validate:     v,
		retryCount:   max(deps.RetryCount, 0),
		retryBackoff: deps.RetryBackoff,
		logger:       logger,
	}
}

// ValidateSubmission trims the request and checks it. Missing fields are
// reported before a malformed e-mail.
func ValidateSubmission(v *validator.Validate, req *domain.ContactRequest) (domain.Submission, error) {
	sub := domain.NewSubmission(req)
	err := v.Struct(sub)
	if err == nil {
		return sub, nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return sub, err
	}

	fe := validation.FirstRequired(errs)
	kind := domain.InvalidEmailFormat
	if fe.Tag() == "required" {
		kind = domain.MissingField
	}
	return sub, &domain.ValidationError{
		Kind:    kind,
		Field:   fe.Field(),
		Message: validation.FormatFieldError(fe),
	}
}

// SendContactMessage validates the request, then sends the visitor
// confirmation and the team alert. Both sends are attempted even if the
// first one fails.
func (uc *contactUsecase) SendContactMessage(ctx context.Context, req *domain.ContactRequest) (*domain.DispatchReport, error) {
	sub, err := ValidateSubmission(uc.validate, req)
	if err != nil {
		metrics.ContactSubmissions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if uc.dispatcher == nil || uc.composer == nil {
		metrics.ContactSubmissions.WithLabelValues("unavailable").Inc()
		return nil, domain.ErrMailNotConfigured
	}

	clientMsg, teamMsg, err := uc.composer.Compose(sub)
	if err != nil {
		metrics.ContactSubmissions.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("compose notifications: %w", err)
	}

	// the visitor may disconnect; the team still has to hear about it
	ctx = context.WithoutCancel(ctx)

	report := &domain.DispatchReport{
		Client: uc.dispatch(ctx, roleClient, clientMsg),
		Team:   uc.dispatch(ctx, roleTeam, teamMsg),
	}

	switch {
	case report.Delivered():
		metrics.ContactSubmissions.WithLabelValues("delivered").Inc()
		uc.logger.Info("Contact submission delivered", "subject", teamMsg.Subject)
		return report, nil
	case report.Client == nil || report.Team == nil:
		metrics.ContactSubmissions.WithLabelValues("partial").Inc()
	default:
		metrics.ContactSubmissions.WithLabelValues("failed").Inc()
	}
	return report, fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, report.Err())
}

// dispatch sends msg once, then retries transport failures and timeouts
// up to retryCount times with a doubling backoff.
func (uc *contactUsecase) dispatch(ctx context.Context, role string, msg domain.OutboundMessage) error {
	backoff := uc.retryBackoff
	for attempt := 0; ; attempt++ {
		err := uc.dispatcher.Send(ctx, msg)
		if err == nil {
			metrics.MailSends.WithLabelValues(role, "sent").Inc()
			return nil
		}

		kind := domain.SendErrorKindOf(err)
		metrics.MailSends.WithLabelValues(role, kind.String()).Inc()

		if attempt >= uc.retryCount || !domain.Retryable(err) {
			uc.logger.Error("Failed to send notification",
				"message", role,
				"kind", kind.String(),
				"attempts", attempt+1,
				"error", err,
			)
			return err
		}

		uc.logger.Warn("Retrying notification", "message", role, "kind", kind.String(), "attempt", attempt+1, "backoff", backoff)
		if backoff > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return err
			}
			backoff *= 2
		}
	}
}
