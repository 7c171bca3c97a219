package afterauth

import (
	"context"
	"encoding/json"
)

// RecordAudit classifies and persists an audit event for the actor. The
// event lands in the actor's own log and the global log; high-severity
// events are additionally copied to the high-risk log. When the mirror is
// enabled, a copy is dispatched asynchronously to the configured sink.
func (e *Engine) RecordAudit(ctx context.Context, actorID int64, actorName, eventType string, details map[string]any) {
	_ = e.recordAudit(ctx, actorID, actorName, eventType, details)
}

func (e *Engine) recordAudit(ctx context.Context, actorID int64, actorName, eventType string, details map[string]any) error {
	event := AuditEvent{
		ActorID:   actorID,
		ActorName: actorName,
		EventType: eventType,
		Details:   details,
		Timestamp: e.now().UnixMilli(),
		Severity:  classifySeverity(eventType),
	}

	if err := e.appendAuditEntry(ctx, e.keys.Audit(actorID), event, e.config.Audit.ActorCap); err != nil {
		return err
	}
	if err := e.appendAuditEntry(ctx, e.keys.GlobalAudit(), event, e.config.Audit.GlobalCap); err != nil {
		return err
	}
	if event.Severity == SeverityHigh {
		if err := e.appendAuditEntry(ctx, e.keys.HighRiskAudit(), event, e.config.Audit.HighRiskCap); err != nil {
			return err
		}
		e.metrics.Inc(MetricHighRiskEvent)
	}

	e.audit.Emit(ctx, event)
	e.metrics.Inc(MetricAuditRecorded)
	return nil
}

// appendAuditEntry pushes an event onto a bounded audit list, newest
// first, and refreshes the retention TTL.
func (e *Engine) appendAuditEntry(ctx context.Context, key string, event AuditEvent, maxLen int) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := e.store.ListPush(ctx, key, string(data)); err != nil {
		return err
	}
	if err := e.store.ListTrim(ctx, key, 0, int64(maxLen)-1); err != nil {
		return err
	}
	return e.store.Expire(ctx, key, e.config.Audit.RetentionTTL)
}

// AuditLog returns up to limit of the actor's audit events, newest first.
// A non-positive limit returns the full retained window.
func (e *Engine) AuditLog(ctx context.Context, actorID int64, limit int) ([]AuditEvent, error) {
	return e.readAuditList(ctx, e.keys.Audit(actorID), limit)
}

// GlobalAuditLog returns the instance-wide audit trail, newest first.
func (e *Engine) GlobalAuditLog(ctx context.Context, limit int) ([]AuditEvent, error) {
	return e.readAuditList(ctx, e.keys.GlobalAudit(), limit)
}

// HighRiskEvents returns the high-severity audit trail, newest first.
func (e *Engine) HighRiskEvents(ctx context.Context, limit int) ([]AuditEvent, error) {
	return e.readAuditList(ctx, e.keys.HighRiskAudit(), limit)
}

// ElevatedAuditLog returns the dedicated elevated-login trail, newest
// first.
func (e *Engine) ElevatedAuditLog(ctx context.Context, limit int) ([]AuditEvent, error) {
	return e.readAuditList(ctx, e.keys.ElevatedAudit(), limit)
}

func (e *Engine) readAuditList(ctx context.Context, key string, limit int) ([]AuditEvent, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := e.store.ListRange(ctx, key, 0, stop)
	if err != nil {
		return nil, err
	}

	events := make([]AuditEvent, 0, len(raw))
	for _, item := range raw {
		var event AuditEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
