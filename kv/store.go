package kv

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable wraps backend transport failures so callers can treat
// any outage uniformly.
var ErrStoreUnavailable = errors.New("kv store unavailable")

// ErrKeyNotFound is returned by Get when the key is absent or expired.
var ErrKeyNotFound = errors.New("kv key not found")

// Store is the capability set the core consumes. Every durable side effect
// of the login pipeline goes through this interface.
//
// List semantics are most-recent-first: ListPush prepends, so index 0 of
// ListRange is always the newest entry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	ListPush(ctx context.Context, key, value string) error
	ListTrim(ctx context.Context, key string, start, stop int64) error
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	SetAdd(ctx context.Context, key, member string) error
	SetRemove(ctx context.Context, key, member string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Ping(ctx context.Context) error
}
