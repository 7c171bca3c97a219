package afterauth

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestSeverityClassification(t *testing.T) {
	cases := []struct {
		event string
		want  Severity
	}{
		{EventLoginFailed, SeverityHigh},
		{EventUnauthorizedAccess, SeverityHigh},
		{EventSuspiciousActivity, SeverityHigh},
		{EventPasswordChange, SeverityMedium},
		{EventPermissionChange, SeverityMedium},
		{EventUnusualLoginTime, SeverityMedium},
		{EventLoginSuccess, SeverityLow},
		{EventElevatedUnusualTime, SeverityLow},
		{"someone_elses_event", SeverityLow},
	}

	for _, tc := range cases {
		if got := classifySeverity(tc.event); got != tc.want {
			t.Errorf("classifySeverity(%q) = %q, want %q", tc.event, got, tc.want)
		}
	}
}

func TestHighSeverityRoutedToHighRiskLog(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	engine.RecordAudit(ctx, 42, "casey", EventLoginFailed, nil)
	engine.RecordAudit(ctx, 42, "casey", EventLoginSuccess, nil)

	highRisk, err := engine.HighRiskEvents(ctx, 10)
	if err != nil {
		t.Fatalf("high risk log: %v", err)
	}
	if len(highRisk) != 1 || highRisk[0].EventType != EventLoginFailed {
		t.Fatalf("expected only login_failed in high-risk log, got %+v", highRisk)
	}

	global, err := engine.GlobalAuditLog(ctx, 10)
	if err != nil {
		t.Fatalf("global log: %v", err)
	}
	if len(global) != 2 {
		t.Fatalf("expected both events in global log, got %d", len(global))
	}
}

func TestActorAuditLogCappedNewestFirst(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	cfg := engine.config
	cfg.Audit.ActorCap = 5
	engine.config = cfg

	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		fixClock(engine, base.Add(time.Duration(i)*time.Second))
		engine.RecordAudit(ctx, 42, "casey", EventLoginSuccess, map[string]any{"seq": strconv.Itoa(i)})
	}

	events, err := engine.AuditLog(ctx, 42, 0)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected cap of 5 events, got %d", len(events))
	}
	if events[0].Details["seq"] != "7" {
		t.Fatalf("expected newest event first, got seq %v", events[0].Details["seq"])
	}
	if events[4].Details["seq"] != "3" {
		t.Fatalf("expected oldest retained event to be seq 3, got %v", events[4].Details["seq"])
	}
}

func TestActorAuditLogHoldsDefaultCap(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	retained := engine.config.Audit.ActorCap
	if retained != 1000 {
		t.Fatalf("default actor cap = %d, want 1000", retained)
	}

	for i := 0; i <= retained; i++ {
		engine.RecordAudit(ctx, 42, "casey", EventLoginSuccess, map[string]any{"seq": strconv.Itoa(i)})
	}

	events, err := engine.AuditLog(ctx, 42, 0)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	if len(events) != retained {
		t.Fatalf("expected exactly %d retained events, got %d", retained, len(events))
	}
	if events[0].Details["seq"] != strconv.Itoa(retained) {
		t.Fatalf("expected newest event first, got seq %v", events[0].Details["seq"])
	}
}

func TestAuditMirrorReceivesEvents(t *testing.T) {
	mr, rdb, sink, engine := newMirroredEngine(t)
	defer func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	}()
	ctx := context.Background()

	engine.RecordAudit(ctx, 42, "casey", EventPasswordChange, nil)

	select {
	case event := <-sink.Events():
		if event.EventType != EventPasswordChange || event.Severity != SeverityMedium {
			t.Fatalf("unexpected mirrored event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("mirrored event never arrived")
	}
}
