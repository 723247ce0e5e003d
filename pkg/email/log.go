package email

import (
	"context"
	"log/slog"

	"agency-contact-backend/internal/domain"
)

// LogDispatcher logs messages instead of sending them. Meant for local
// development where no relay is available.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(_ context.Context, msg domain.OutboundMessage) error {
	d.logger.Info("Mail logged (development mode - not actually sent)",
		"from", msg.From,
		"to", msg.To,
		"reply_to", msg.ReplyTo,
		"subject", msg.Subject,
		"body_bytes", len(msg.HTMLBody),
	)
	return nil
}

func (d *LogDispatcher) Verify(context.Context) error { return nil }

func (d *LogDispatcher) Close() error { return nil }
