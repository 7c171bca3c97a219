package afterauth

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := New().
		WithRedis(rdb).
		WithSigningKey("hs256", testSigningKey, nil).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("build engine: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	}
}

func newMirroredEngine(t *testing.T) (*miniredis.Miniredis, *redis.Client, *ChannelSink, *Engine) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sink := NewChannelSink(16)

	engine, err := New().
		WithRedis(rdb).
		WithSigningKey("hs256", testSigningKey, nil).
		WithAuditSink(sink).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("build engine: %v", err)
	}
	return mr, rdb, sink, engine
}

// fixClock pins the engine clock to the given instant.
func fixClock(e *Engine, at time.Time) {
	e.now = func() time.Time { return at }
}

func testLogin(kind ActorKind) LoginContext {
	return LoginContext{
		ActorID:   42,
		ActorName: "casey",
		Token:     "token-under-test-value-longer-than-twenty",
		Kind:      kind,
		IP:        "10.0.0.1",
		UserAgent: "test-agent",
	}
}
