package security

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventRateLimitDegraded  EventType = "rate_limit_degraded"
	EventValidationFailed   EventType = "validation_failed"
	EventDispatchFailed     EventType = "dispatch_failed"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Environment  string                 `json:"env"`
	Level        string                 `json:"level"`
	Event        EventType              `json:"event"`
	SubjectType  string                 `json:"subject_type,omitempty"`  // "email", "ip"
	SubjectValue string                 `json:"subject_value,omitempty"` // Masked or hashed for PII
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SecurityLogger provides structured logging for security events
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

var (
	defaultLogger *SecurityLogger
	defaultMu     sync.Mutex
)

// InitSecurityLogger initializes the security logger with Zap and makes it the default
func InitSecurityLogger(serviceName, environment string) *SecurityLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.MessageKey = "message"

	// Containers collect stdout
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return SetDefault(NewSecurityLogger(logger, serviceName, environment))
}

// NewSecurityLogger wraps an existing zap logger
func NewSecurityLogger(logger *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{
		zapLogger:   logger,
		serviceName: serviceName,
		environment: environment,
	}
}

// SetDefault replaces the process-wide security logger
func SetDefault(sl *SecurityLogger) *SecurityLogger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = sl
	return sl
}

// DefaultLogger returns the default security logger instance
func DefaultLogger() *SecurityLogger {
	defaultMu.Lock()
	sl := defaultLogger
	defaultMu.Unlock()
	if sl == nil {
		return InitSecurityLogger("agency-contact-backend", getEnvironment())
	}
	return sl
}

// Zap exposes the underlying logger for request logging middleware
func (sl *SecurityLogger) Zap() *zap.Logger {
	return sl.zapLogger
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment

	severity := GetSeverity(event.Event)
	level := severity.zapLevel()
	event.Level = level.String()

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(severity)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)
}

// LogRateLimitTriggered logs when rate limiting is triggered
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint},
	})
}

// LogRateLimitDegraded logs a failing rate limit store
func (sl *SecurityLogger) LogRateLimitDegraded(ctx context.Context, ip, requestID string, err error) {
	sl.Log(ctx, SecurityEvent{
		Event:       EventRateLimitDegraded,
		SubjectType: "system",
		IP:          ip,
		RequestID:   requestID,
		Details:     map[string]interface{}{"error": err.Error()},
	})
}

// LogValidationFailed logs a rejected contact submission
func (sl *SecurityLogger) LogValidationFailed(ctx context.Context, email, ip, requestID, field, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventValidationFailed,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]interface{}{"field": field, "reason": reason},
	})
}

// LogDispatchFailed logs a notification the relay did not accept
func (sl *SecurityLogger) LogDispatchFailed(ctx context.Context, recipient, ip, requestID string, details map[string]interface{}) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventDispatchFailed,
		SubjectType:  "email",
		SubjectValue: MaskEmail(recipient),
		IP:           ip,
		RequestID:    requestID,
		Details:      details,
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// --- Helper Functions ---

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// getEnvironment determines the current environment
func getEnvironment() string {
	if os.Getenv("GIN_MODE") == "release" {
		return "production"
	}
	return "development"
}
