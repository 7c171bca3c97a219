package afterauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// Severity is the three-level classification attached to every audit
// event. It is derived deterministically from the event type and drives
// routing to the high-risk log.
type Severity string

const (
	// SeverityLow is the default classification.
	SeverityLow Severity = "low"
	// SeverityMedium marks events worth reviewing.
	SeverityMedium Severity = "medium"
	// SeverityHigh marks events routed to the dedicated high-risk log.
	SeverityHigh Severity = "high"
)

// Audit event types emitted by the pipeline. Callers may record their own
// types; unknown types classify as low severity.
const (
	EventLoginSuccess           = "login_success"
	EventLoginFailed            = "login_failed"
	EventUnauthorizedAccess     = "unauthorized_access"
	EventSuspiciousActivity     = "suspicious_activity"
	EventPasswordChange         = "password_change"
	EventPermissionChange       = "permission_change"
	EventUnusualLoginTime       = "unusual_login_time"
	EventFrequentLoginAttempts  = "frequent_login_attempts"
	EventIPAddressChange        = "ip_address_change"
	EventMultipleFailedAttempts = "multiple_failed_attempts"
	EventElevatedLogin          = "elevated_login"
	EventElevatedUnusualTime    = "elevated_unusual_login_time"
	EventElevatedFrequentLogin  = "elevated_frequent_login"
)

// classifySeverity is the fixed event classification table. Unknown event
// types default to low.
func classifySeverity(eventType string) Severity {
	switch eventType {
	case EventLoginFailed, EventUnauthorizedAccess, EventSuspiciousActivity:
		return SeverityHigh
	case EventPasswordChange, EventPermissionChange, EventUnusualLoginTime:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// AuditEvent is a structured, immutable audit record. Events are stored
// append-only, newest first, in bounded lists.
type AuditEvent struct {
	ActorID   int64          `json:"actor_id"`
	ActorName string         `json:"actor_name"`
	EventType string         `json:"event_type"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp int64          `json:"timestamp"`
	Severity  Severity       `json:"severity"`
}

// AuditSink receives the asynchronous mirror of every recorded audit
// event.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
