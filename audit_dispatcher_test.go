package afterauth

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{MirrorEnabled: true, MirrorBuffer: 8}, sink)

	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), AuditEvent{ActorID: int64(i), EventType: EventLoginSuccess})
	}
	d.Close()

	received := 0
	for received < 3 {
		select {
		case <-sink.Events():
			received++
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 3 events delivered before close drained", received)
		}
	}
}

func TestDispatcherCountsDrops(t *testing.T) {
	// An unbuffered-ish sink that never reads forces backpressure.
	blocked := make(chan struct{})
	sink := blockingSink{release: blocked}

	d := newAuditDispatcher(AuditConfig{MirrorEnabled: true, MirrorBuffer: 1, MirrorDropIfFull: true}, sink)
	defer func() {
		close(blocked)
		d.Close()
	}()

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), AuditEvent{ActorID: int64(i)})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected drops under backpressure")
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{MirrorEnabled: false}, nil)
	if d != nil {
		t.Fatal("disabled mirror must not start a dispatcher")
	}

	// Nil receivers are safe everywhere.
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports zero drops")
	}
}

func TestDispatcherEmitAfterCloseIsNoOp(t *testing.T) {
	sink := NewChannelSink(1)
	d := newAuditDispatcher(AuditConfig{MirrorEnabled: true, MirrorBuffer: 1}, sink)
	d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: EventLoginSuccess})

	select {
	case <-sink.Events():
		t.Fatal("no event should be delivered after close")
	case <-time.After(50 * time.Millisecond):
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(ctx context.Context, event AuditEvent) {
	<-s.release
}
