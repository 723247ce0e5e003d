package security

import "go.uber.org/zap/zapcore"

// Severity represents the severity level of a security event
// This is derived from EventType, NOT user-provided
type Severity string

const (
	SeverityINFO     Severity = "INFO"
	SeverityMEDIUM   Severity = "MEDIUM"
	SeverityWARN     Severity = "WARN"
	SeverityHIGH     Severity = "HIGH"
	SeverityCRITICAL Severity = "CRITICAL"
)

// EventSeverityMap defines the hard-coded severity for each event type
var EventSeverityMap = map[EventType]Severity{
	// a visitor mistyped the form
	EventValidationFailed: SeverityINFO,

	EventRateLimitTriggered: SeverityWARN,

	// the shared limiter is down or the team may miss an inquiry
	EventRateLimitDegraded: SeverityHIGH,
	EventDispatchFailed:    SeverityHIGH,
}

// GetSeverity returns the severity for an event type
// If the event type is not mapped, defaults to MEDIUM
func GetSeverity(eventType EventType) Severity {
	if severity, ok := EventSeverityMap[eventType]; ok {
		return severity
	}
	return SeverityMEDIUM
}

// IsHighOrAbove returns true if the event is HIGH or CRITICAL severity
func IsHighOrAbove(eventType EventType) bool {
	severity := GetSeverity(eventType)
	return severity == SeverityHIGH || severity == SeverityCRITICAL
}

func (s Severity) zapLevel() zapcore.Level {
	switch s {
	case SeverityINFO:
		return zapcore.InfoLevel
	case SeverityHIGH, SeverityCRITICAL:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}
