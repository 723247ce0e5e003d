package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/textproto"
	"time"

	"agency-contact-backend/internal/domain"

	"gopkg.in/gomail.v2"
)

const defaultSendTimeout = 10 * time.Second

// SMTPConfig describes the outbound relay
type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	Secure             bool // implicit TLS; otherwise STARTTLS when the relay offers it
	InsecureSkipVerify bool
	SendTimeout        time.Duration
}

// SMTPDispatcher keeps one authenticated session to the relay and reuses it
// across requests. Sends are serialized on the session; a failed send drops
// it and the next send dials again.
type SMTPDispatcher struct {
	dialer  *gomail.Dialer
	timeout time.Duration
	logger  *slog.Logger

	// one-slot semaphore guarding session; a channel so waiters can give up on ctx
	sem     chan struct{}
	session gomail.SendCloser
}

func NewSMTPDispatcher(cfg SMTPConfig, logger *slog.Logger) *SMTPDispatcher {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.Secure {
		d.SSL = true
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("InsecureSkipVerify is enabled for SMTP TLS connection", "host", cfg.Host)
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host} //nolint:gosec // opt-in for test relays
	}

	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	return &SMTPDispatcher{
		dialer:  d,
		timeout: timeout,
		logger:  logger,
		sem:     make(chan struct{}, 1),
	}
}

// Verify opens (or reuses) the session, proving host, TLS and credentials work
func (s *SMTPDispatcher) Verify(ctx context.Context) error {
	return s.withSession(ctx, func() error {
		return s.ensureSession()
	})
}

// Send delivers exactly one message. No retries happen here.
func (s *SMTPDispatcher) Send(ctx context.Context, msg domain.OutboundMessage) error {
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return &domain.SendError{Kind: domain.SendRejected, Err: fmt.Errorf("invalid sender %q: %w", msg.From, err)}
	}
	m := buildMessage(msg)

	err = s.withSession(ctx, func() error {
		if err := s.ensureSession(); err != nil {
			return err
		}
		if err := s.session.Send(from.Address, []string{msg.To}, m); err != nil {
			s.dropSession()
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Mail accepted by relay", "host", s.dialer.Host, "subject", msg.Subject)
	return nil
}

// Close ends the session with QUIT
func (s *SMTPDispatcher) Close() error {
	select {
	case s.sem <- struct{}{}:
	case <-time.After(s.timeout):
		return errors.New("smtp: session busy, not closed")
	}
	defer func() { <-s.sem }()

	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

// withSession runs fn while holding the session, bounded by the send timeout.
// If the deadline passes first the caller gets a timeout while fn keeps the
// session until the relay answers or the connection dies.
func (s *SMTPDispatcher) withSession(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return &domain.SendError{Kind: domain.SendTimeout, Err: ctx.Err()}
	}

	done := make(chan error, 1)
	go func() {
		defer func() { <-s.sem }()
		done <- fn()
	}()

	select {
	case err := <-done:
		if err != nil {
			return classifySMTPError(err)
		}
		return nil
	case <-ctx.Done():
		return &domain.SendError{Kind: domain.SendTimeout, Err: ctx.Err()}
	}
}

func (s *SMTPDispatcher) ensureSession() error {
	if s.session != nil {
		return nil
	}
	sc, err := s.dialer.Dial()
	if err != nil {
		return err
	}
	s.session = sc
	s.logger.Info("SMTP session established", "host", s.dialer.Host, "port", s.dialer.Port)
	return nil
}

func (s *SMTPDispatcher) dropSession() {
	if s.session == nil {
		return
	}
	_ = s.session.Close()
	s.session = nil
}

func buildMessage(msg domain.OutboundMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	return m
}

// classifySMTPError maps relay and network failures onto SendError kinds.
// Authentication replies count as transport problems, other 5xx replies
// are permanent rejections of the message.
func classifySMTPError(err error) error {
	var sendErr *domain.SendError
	if errors.As(err, &sendErr) {
		return err
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch {
		case protoErr.Code == 530 || protoErr.Code == 534 || protoErr.Code == 535:
			return &domain.SendError{Kind: domain.SendTransport, Err: err}
		case protoErr.Code >= 500:
			return &domain.SendError{Kind: domain.SendRejected, Err: err}
		default:
			return &domain.SendError{Kind: domain.SendTransport, Err: err}
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.SendError{Kind: domain.SendTimeout, Err: err}
	}

	return &domain.SendError{Kind: domain.SendTransport, Err: err}
}
