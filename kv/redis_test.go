package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(rdb), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()

	if _, err := store.Get(context.Background(), "absent"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetGetRoundTripWithTTL(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("get = %q, %v", got, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestListPushPrependsNewestFirst(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		if err := store.ListPush(ctx, "list", v); err != nil {
			t.Fatalf("push %s: %v", v, err)
		}
	}

	items, err := store.ListRange(ctx, "list", 0, -1)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(items) != 3 || items[0] != "c" || items[2] != "a" {
		t.Fatalf("expected newest-first order, got %v", items)
	}

	if err := store.ListTrim(ctx, "list", 0, 1); err != nil {
		t.Fatalf("trim: %v", err)
	}
	items, err = store.ListRange(ctx, "list", 0, -1)
	if err != nil {
		t.Fatalf("range after trim: %v", err)
	}
	if len(items) != 2 || items[0] != "c" {
		t.Fatalf("trim should keep the newest entries, got %v", items)
	}
}

func TestSetMembership(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.SetAdd(ctx, "s", "m1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.SetAdd(ctx, "s", "m2"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.SetRemove(ctx, "s", "m1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	members, err := store.SetMembers(ctx, "s")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0] != "m2" {
		t.Fatalf("expected [m2], got %v", members)
	}
}

func TestIncrCounts(t *testing.T) {
	store, _, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := store.Incr(ctx, "counter")
		if err != nil || n != i {
			t.Fatalf("incr = %d, %v; want %d", n, err, i)
		}
	}
}

func TestOutageWrapsStoreUnavailable(t *testing.T) {
	store, mr, done := newStoreTest(t)
	defer done()
	ctx := context.Background()

	mr.Close()

	if err := store.Set(ctx, "k", "v", time.Minute); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
