// Package kv defines the key-value capability the afterauth core depends
// on: string get/set with TTL, list push/trim/range, set membership,
// counters, and key expiry. The canonical implementation is RedisStore,
// backed by a go-redis UniversalClient; the Store interface exists so tests
// and embedders can substitute their own backend.
package kv
