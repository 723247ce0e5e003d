package email

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"agency-contact-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayedMessage struct {
	From string
	To   []string
	Data string
}

// fakeRelay is a minimal SMTP server: no TLS, no AUTH
type fakeRelay struct {
	ln         net.Listener
	rejectRcpt string
	silent     bool

	mu       sync.Mutex
	conns    []net.Conn
	messages []relayedMessage
	wg       sync.WaitGroup
}

func startFakeRelay(t *testing.T, configure func(r *fakeRelay)) *fakeRelay {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	r := &fakeRelay{ln: ln}
	if configure != nil {
		configure(r)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			r.mu.Lock()
			r.conns = append(r.conns, conn)
			r.mu.Unlock()

			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.handle(conn)
			}()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		r.mu.Lock()
		for _, c := range r.conns {
			_ = c.Close()
		}
		r.mu.Unlock()
		r.wg.Wait()
	})
	return r
}

func (r *fakeRelay) handle(conn net.Conn) {
	defer conn.Close()
	if r.silent {
		_, _ = io.Copy(io.Discard, conn)
		return
	}

	rd := bufio.NewReader(conn)
	fmt.Fprintf(conn, "220 localhost Test SMTP Service Ready\r\n")

	var current relayedMessage
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			fmt.Fprintf(conn, "250-localhost Hello\r\n250 OK\r\n")
		case strings.HasPrefix(upper, "MAIL FROM:"):
			current = relayedMessage{From: strings.Trim(line[len("MAIL FROM:"):], "<> ")}
			fmt.Fprintf(conn, "250 OK\r\n")
		case strings.HasPrefix(upper, "RCPT TO:"):
			rcpt := strings.Trim(line[len("RCPT TO:"):], "<> ")
			if r.rejectRcpt != "" && rcpt == r.rejectRcpt {
				fmt.Fprintf(conn, "550 5.1.1 Mailbox unavailable\r\n")
				continue
			}
			current.To = append(current.To, rcpt)
			fmt.Fprintf(conn, "250 OK\r\n")
		case upper == "DATA":
			fmt.Fprintf(conn, "354 End data with <CR><LF>.<CR><LF>\r\n")
			var data strings.Builder
			for {
				dline, derr := rd.ReadString('\n')
				if derr != nil {
					return
				}
				if dline == ".\r\n" {
					break
				}
				data.WriteString(dline)
			}
			current.Data = data.String()
			r.mu.Lock()
			r.messages = append(r.messages, current)
			r.mu.Unlock()
			fmt.Fprintf(conn, "250 OK queued\r\n")
		case upper == "RSET", upper == "NOOP":
			fmt.Fprintf(conn, "250 OK\r\n")
		case upper == "QUIT":
			fmt.Fprintf(conn, "221 Bye\r\n")
			return
		default:
			fmt.Fprintf(conn, "502 Command not implemented\r\n")
		}
	}
}

func (r *fakeRelay) port() int {
	return r.ln.Addr().(*net.TCPAddr).Port
}

func (r *fakeRelay) connCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *fakeRelay) received() []relayedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]relayedMessage(nil), r.messages...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(r *fakeRelay, timeout time.Duration) *SMTPDispatcher {
	return NewSMTPDispatcher(SMTPConfig{
		Host:        "127.0.0.1",
		Port:        r.port(),
		SendTimeout: timeout,
	}, testLogger())
}

func teamMessage() domain.OutboundMessage {
	return domain.OutboundMessage{
		From:     `"Agentura" <web@agency.cz>`,
		To:       "team@agency.cz",
		Subject:  "New inquiry: Jana",
		ReplyTo:  "jana@example.com",
		HTMLBody: "<p>Ahoj</p>",
	}
}

func TestSMTPDispatcherSend(t *testing.T) {
	relay := startFakeRelay(t, nil)
	d := newTestDispatcher(relay, 5*time.Second)
	defer d.Close()

	require.NoError(t, d.Send(context.Background(), teamMessage()))

	msgs := relay.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, "web@agency.cz", msgs[0].From)
	assert.Equal(t, []string{"team@agency.cz"}, msgs[0].To)
	assert.Contains(t, msgs[0].Data, "Subject: New inquiry: Jana")
	assert.Contains(t, msgs[0].Data, "Reply-To: jana@example.com")
	assert.Contains(t, msgs[0].Data, "To: team@agency.cz")
	assert.Contains(t, msgs[0].Data, "text/html")
}

func TestSMTPDispatcherReusesSession(t *testing.T) {
	relay := startFakeRelay(t, nil)
	d := newTestDispatcher(relay, 5*time.Second)
	defer d.Close()

	require.NoError(t, d.Verify(context.Background()))
	require.NoError(t, d.Send(context.Background(), teamMessage()))
	require.NoError(t, d.Send(context.Background(), teamMessage()))

	assert.Len(t, relay.received(), 2)
	assert.Equal(t, 1, relay.connCount(), "all sends should share one session")
}

func TestSMTPDispatcherConcurrentSends(t *testing.T) {
	relay := startFakeRelay(t, nil)
	d := newTestDispatcher(relay, 5*time.Second)
	defer d.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- d.Send(context.Background(), teamMessage())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, relay.received(), 10)
	assert.Equal(t, 1, relay.connCount())
}

func TestSMTPDispatcherRejectedRecipient(t *testing.T) {
	relay := startFakeRelay(t, func(r *fakeRelay) { r.rejectRcpt = "nobody@example.com" })
	d := newTestDispatcher(relay, 5*time.Second)
	defer d.Close()

	msg := teamMessage()
	msg.To = "nobody@example.com"
	err := d.Send(context.Background(), msg)
	require.Error(t, err)

	var sendErr *domain.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, domain.SendRejected, sendErr.Kind)
	assert.False(t, domain.Retryable(err))

	t.Run("next send dials a fresh session", func(t *testing.T) {
		require.NoError(t, d.Send(context.Background(), teamMessage()))
		assert.Equal(t, 2, relay.connCount())
	})
}

func TestSMTPDispatcherTimeout(t *testing.T) {
	relay := startFakeRelay(t, func(r *fakeRelay) { r.silent = true })
	d := newTestDispatcher(relay, 100*time.Millisecond)

	start := time.Now()
	err := d.Send(context.Background(), teamMessage())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	var sendErr *domain.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, domain.SendTimeout, sendErr.Kind)
	assert.True(t, domain.Retryable(err))
}

func TestSMTPDispatcherUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	d := NewSMTPDispatcher(SMTPConfig{Host: "127.0.0.1", Port: port, SendTimeout: 2 * time.Second}, testLogger())

	err = d.Verify(context.Background())
	var sendErr *domain.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, domain.SendTransport, sendErr.Kind)
}

func TestSMTPDispatcherInvalidSender(t *testing.T) {
	d := NewSMTPDispatcher(SMTPConfig{Host: "127.0.0.1", Port: 2525}, testLogger())

	msg := teamMessage()
	msg.From = "not an address"
	err := d.Send(context.Background(), msg)

	var sendErr *domain.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, domain.SendRejected, sendErr.Kind)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifySMTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.SendErrorKind
	}{
		{"mailbox unavailable", &textproto.Error{Code: 550, Msg: "no such user"}, domain.SendRejected},
		{"quota exceeded", &textproto.Error{Code: 552, Msg: "quota"}, domain.SendRejected},
		{"auth failed", &textproto.Error{Code: 535, Msg: "bad credentials"}, domain.SendTransport},
		{"service unavailable", &textproto.Error{Code: 421, Msg: "try later"}, domain.SendTransport},
		{"network timeout", &net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}}, domain.SendTimeout},
		{"deadline", context.DeadlineExceeded, domain.SendTimeout},
		{"connection reset", io.ErrUnexpectedEOF, domain.SendTransport},
		{"already classified", &domain.SendError{Kind: domain.SendRejected}, domain.SendRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.SendErrorKindOf(classifySMTPError(tt.err)))
		})
	}
}
