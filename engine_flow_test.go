package afterauth

import (
	"context"
	"testing"
	"time"
)

func TestRunLoginFlowCompletes(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	// Mid-day login avoids the off-hours detector.
	fixClock(engine, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
	engine.RunLoginFlow(ctx, testLogin(ActorStandard))

	sess, err := engine.GetSession(ctx, 42)
	if err != nil {
		t.Fatalf("session after flow: %v", err)
	}
	if sess.ActorName != "casey" || sess.IP != "10.0.0.1" {
		t.Fatalf("unexpected session contents: %+v", sess)
	}

	events, err := engine.AuditLog(ctx, 42, 10)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected at least a login_success audit event")
	}
	found := false
	for _, event := range events {
		if event.EventType == EventLoginSuccess {
			found = true
		}
	}
	if !found {
		t.Fatal("login_success event missing from actor audit log")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricFlowCompleted] != 1 {
		t.Fatalf("expected one completed flow, got %d", snap.Counters[MetricFlowCompleted])
	}

	stats, err := engine.ActorStats(ctx, 42)
	if err != nil {
		t.Fatalf("actor stats: %v", err)
	}
	if stats.TotalLogins != 1 {
		t.Fatalf("expected 1 total login, got %d", stats.TotalLogins)
	}
}

func TestRunLoginFlowSurvivesStoreOutage(t *testing.T) {
	engine, mr, done := newTestEngine(t)
	defer done()

	mr.Close()

	// Every stage fails; the flow itself must neither error nor panic.
	engine.RunLoginFlow(context.Background(), testLogin(ActorStandard))

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricFlowDegraded] != 1 {
		t.Fatalf("expected one degraded flow, got %d", snap.Counters[MetricFlowDegraded])
	}
	if snap.Counters[MetricStageFailure] == 0 {
		t.Fatal("expected stage failures to be counted")
	}
}

func TestRunLoginFlowElevated(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	fixClock(engine, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
	engine.RunLoginFlow(ctx, testLogin(ActorElevated))

	events, err := engine.ElevatedAuditLog(ctx, 10)
	if err != nil {
		t.Fatalf("elevated audit log: %v", err)
	}
	if len(events) != 1 || events[0].EventType != EventElevatedLogin {
		t.Fatalf("expected one elevated_login event, got %+v", events)
	}

	total, err := engine.store.Get(ctx, engine.keys.StatsElevatedTotal())
	if err != nil {
		t.Fatalf("elevated total counter: %v", err)
	}
	if total != "1" {
		t.Fatalf("expected elevated total 1, got %s", total)
	}

	marker, err := engine.store.Get(ctx, engine.keys.ElevatedMarker(42))
	if err != nil {
		t.Fatalf("elevated marker: %v", err)
	}
	if marker != "true" {
		t.Fatalf("expected elevated marker \"true\", got %q", marker)
	}
}

func TestRunLoginFlowNormalizesContextFallbacks(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	fixClock(engine, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	ctx := WithClientIP(context.Background(), "192.168.1.50")
	ctx = WithUserAgent(ctx, "ctx-agent")

	login := testLogin(ActorStandard)
	login.IP = ""
	login.UserAgent = ""
	engine.RunLoginFlow(ctx, login)

	sess, err := engine.GetSession(ctx, 42)
	if err != nil {
		t.Fatalf("session after flow: %v", err)
	}
	if sess.IP != "192.168.1.50" || sess.UserAgent != "ctx-agent" {
		t.Fatalf("context fallbacks not applied: %+v", sess)
	}
}

func TestQueueLoginNotificationRespectsFlag(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	fixClock(engine, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	// No flag: nothing queued.
	engine.RunLoginFlow(ctx, testLogin(ActorStandard))
	queued, err := engine.store.ListRange(ctx, engine.keys.NotifyQueue(), 0, -1)
	if err != nil {
		t.Fatalf("notify queue: %v", err)
	}
	if len(queued) != 0 {
		t.Fatalf("expected empty notify queue, got %d entries", len(queued))
	}

	// Opted in: one job queued.
	if err := engine.store.Set(ctx, engine.keys.NotifyFlag(42), "true", time.Hour); err != nil {
		t.Fatalf("set notify flag: %v", err)
	}
	engine.RunLoginFlow(ctx, testLogin(ActorStandard))
	queued, err = engine.store.ListRange(ctx, engine.keys.NotifyQueue(), 0, -1)
	if err != nil {
		t.Fatalf("notify queue: %v", err)
	}
	if len(queued) != 1 {
		t.Fatalf("expected one queued notification, got %d", len(queued))
	}
}

func TestComplianceFlagsExcessiveFailures(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	fixClock(engine, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	if err := engine.store.Set(ctx, engine.keys.FailedAttempts(42), "9", time.Hour); err != nil {
		t.Fatalf("seed failed counter: %v", err)
	}
	engine.RunLoginFlow(ctx, testLogin(ActorStandard))

	events, err := engine.AuditLog(ctx, 42, 50)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	found := false
	for _, event := range events {
		if event.EventType == EventMultipleFailedAttempts {
			found = true
		}
	}
	if !found {
		t.Fatal("expected multiple_failed_attempts event")
	}
	if engine.MetricsSnapshot().Counters[MetricComplianceFlagged] != 1 {
		t.Fatal("expected compliance flag counter to increment")
	}
}
