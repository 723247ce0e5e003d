package email

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"agency-contact-backend/internal/domain"

	"github.com/resend/resend-go/v2"
)

// ResendDispatcher sends through the Resend HTTP API instead of an SMTP relay
type ResendDispatcher struct {
	client  *resend.Client
	timeout time.Duration
	logger  *slog.Logger
}

func NewResendDispatcher(apiKey string, timeout time.Duration, logger *slog.Logger) *ResendDispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	httpClient := &http.Client{Transport: statusRecorder{base: http.DefaultTransport}}
	return &ResendDispatcher{
		client:  resend.NewCustomClient(httpClient, apiKey),
		timeout: timeout,
		logger:  logger,
	}
}

func (d *ResendDispatcher) Send(ctx context.Context, msg domain.OutboundMessage) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		ReplyTo: msg.ReplyTo,
	}

	var status int
	sent, err := d.client.Emails.SendWithContext(withStatus(ctx, &status), params)
	if err != nil {
		return classifyResendError(ctx, status, err)
	}

	d.logger.Debug("Mail accepted by Resend", "id", sent.Id, "subject", msg.Subject)
	return nil
}

// Verify lists the account's domains, which proves the API key works.
// Sending-only keys are refused here even though they can send.
func (d *ResendDispatcher) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var status int
	if _, err := d.client.Domains.ListWithContext(withStatus(ctx, &status)); err != nil {
		return classifyResendError(ctx, status, err)
	}
	return nil
}

func (d *ResendDispatcher) Close() error {
	return nil
}

// classifyResendError maps an API failure onto SendError kinds. resend-go
// drops the status code from its errors, so it comes from statusRecorder.
// Client errors are permanent except auth and rate limiting.
func classifyResendError(ctx context.Context, status int, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, resend.ErrRateLimit):
		return &domain.SendError{Kind: domain.SendTransport, Err: err}
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()):
		return &domain.SendError{Kind: domain.SendTimeout, Err: err}
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return &domain.SendError{Kind: domain.SendTransport, Err: err}
	case status >= 400 && status < 500:
		return &domain.SendError{Kind: domain.SendRejected, Err: err}
	default:
		return &domain.SendError{Kind: domain.SendTransport, Err: err}
	}
}

type statusKey struct{}

func withStatus(ctx context.Context, status *int) context.Context {
	return context.WithValue(ctx, statusKey{}, status)
}

// statusRecorder stores the response status into the *int carried by the
// request context
type statusRecorder struct {
	base http.RoundTripper
}

func (t statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		if status, ok := req.Context().Value(statusKey{}).(*int); ok {
			*status = resp.StatusCode
		}
	}
	return resp, err
}
