package domain

import "errors"

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrMailNotConfigured = errors.New("mail transport is not configured")
	ErrDeliveryFailed    = errors.New("contact notification delivery failed")
)

type ValidationErrorKind int

const (
	MissingField ValidationErrorKind = iota + 1
	InvalidEmailFormat
)

func (k ValidationErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing_field"
	case InvalidEmailFormat:
		return "invalid_email_format"
	default:
		return "unknown"
	}
}

// ValidationError carries the offending field and a message safe to show visitors
type ValidationError struct {
	Kind    ValidationErrorKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type SendErrorKind int

const (
	SendTransport SendErrorKind = iota + 1
	SendRejected
	SendTimeout
)

func (k SendErrorKind) String() string {
	switch k {
	case SendTransport:
		return "transport"
	case SendRejected:
		return "rejected"
	case SendTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// SendError wraps a dispatch failure. Rejected is permanent, the other kinds
// may succeed on another attempt.
type SendError struct {
	Kind SendErrorKind
	Err  error
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return "send " + e.Kind.String()
	}
	return "send " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Retryable reports whether err is a SendError worth another attempt
func Retryable(err error) bool {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Kind != SendRejected
	}
	return false
}

// SendErrorKindOf returns the kind of a SendError, SendTransport for anything else
func SendErrorKindOf(err error) SendErrorKind {
	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Kind
	}
	return SendTransport
}
