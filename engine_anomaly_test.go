package afterauth

import (
	"context"
	"testing"
	"time"
)

func hasEvent(t *testing.T, engine *Engine, actorID int64, eventType string) bool {
	t.Helper()
	events, err := engine.AuditLog(context.Background(), actorID, 0)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	for _, event := range events {
		if event.EventType == eventType {
			return true
		}
	}
	return false
}

func TestOffHoursLoginDetected(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	fixClock(engine, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC))
	login := testLogin(ActorStandard)
	if err := engine.detectAnomalies(ctx, login.normalize(ctx), engine.config.Anomaly.Standard); err != nil {
		t.Fatalf("detect anomalies: %v", err)
	}

	if !hasEvent(t, engine, 42, EventUnusualLoginTime) {
		t.Fatal("3am login should be flagged as unusual")
	}
}

func TestBusinessHoursLoginNotFlagged(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	fixClock(engine, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
	login := testLogin(ActorStandard)
	if err := engine.detectAnomalies(ctx, login.normalize(ctx), engine.config.Anomaly.Standard); err != nil {
		t.Fatalf("detect anomalies: %v", err)
	}

	if hasEvent(t, engine, 42, EventUnusualLoginTime) {
		t.Fatal("2pm login must not be flagged")
	}
}

func TestLoginBurstDetected(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		fixClock(engine, base.Add(time.Duration(i)*time.Minute))
		if _, err := engine.IssueToken(ctx, 42, "casey", IssueOptions{IP: "10.0.0.1"}); err != nil {
			t.Fatalf("issue token %d: %v", i, err)
		}
	}

	// Fourth login 2m30s after the oldest entry: inside the 5m window.
	fixClock(engine, base.Add(150*time.Second))
	login := testLogin(ActorStandard)
	if err := engine.checkLoginBurst(ctx, login.normalize(ctx), engine.config.Anomaly.Standard, engine.now()); err != nil {
		t.Fatalf("burst check: %v", err)
	}

	if !hasEvent(t, engine, 42, EventFrequentLoginAttempts) {
		t.Fatal("rapid logins should trigger the burst detector")
	}
}

func TestSpreadOutLoginsNotFlagged(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		fixClock(engine, base.Add(time.Duration(i)*time.Minute))
		if _, err := engine.IssueToken(ctx, 42, "casey", IssueOptions{IP: "10.0.0.1"}); err != nil {
			t.Fatalf("issue token %d: %v", i, err)
		}
	}

	// Next login well past the 5m window.
	fixClock(engine, base.Add(10*time.Minute))
	login := testLogin(ActorStandard)
	if err := engine.checkLoginBurst(ctx, login.normalize(ctx), engine.config.Anomaly.Standard, engine.now()); err != nil {
		t.Fatalf("burst check: %v", err)
	}

	if hasEvent(t, engine, 42, EventFrequentLoginAttempts) {
		t.Fatal("spread-out logins must not trigger the burst detector")
	}
}

func TestIPChangeDetected(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	fixClock(engine, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	first := testLogin(ActorStandard)
	if err := engine.checkIPChange(ctx, first.normalize(ctx)); err != nil {
		t.Fatalf("first ip check: %v", err)
	}
	if hasEvent(t, engine, 42, EventIPAddressChange) {
		t.Fatal("first login must only seed the last-ip key")
	}

	second := testLogin(ActorStandard)
	second.IP = "203.0.113.9"
	if err := engine.checkIPChange(ctx, second.normalize(ctx)); err != nil {
		t.Fatalf("second ip check: %v", err)
	}
	if !hasEvent(t, engine, 42, EventIPAddressChange) {
		t.Fatal("changed IP should be flagged")
	}

	events, err := engine.AuditLog(ctx, 42, 0)
	if err != nil {
		t.Fatalf("audit log: %v", err)
	}
	for _, event := range events {
		if event.EventType == EventIPAddressChange {
			if event.Details["previous_ip"] != "10.0.0.1" || event.Details["current_ip"] != "203.0.113.9" {
				t.Fatalf("unexpected ip change details: %+v", event.Details)
			}
		}
	}
}

func TestElevatedBurstUsesSeparateHistory(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	login := testLogin(ActorElevated)

	// Four rapid elevated logins stay under the five-entry minimum.
	for i := 0; i < 4; i++ {
		fixClock(engine, base.Add(time.Duration(i)*time.Minute))
		if err := engine.checkLoginBurst(ctx, login.normalize(ctx), engine.config.Anomaly.Elevated, engine.now()); err != nil {
			t.Fatalf("burst check %d: %v", i, err)
		}
	}
	if hasEvent(t, engine, 42, EventElevatedFrequentLogin) {
		t.Fatal("four samples must not satisfy the elevated minimum of five")
	}

	// The fifth inside the 60m window fires.
	fixClock(engine, base.Add(5*time.Minute))
	if err := engine.checkLoginBurst(ctx, login.normalize(ctx), engine.config.Anomaly.Elevated, engine.now()); err != nil {
		t.Fatalf("fifth burst check: %v", err)
	}
	if !hasEvent(t, engine, 42, EventElevatedFrequentLogin) {
		t.Fatal("five rapid elevated logins should trigger the burst detector")
	}
}
