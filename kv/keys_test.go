package kv

import "testing"

func TestKeysCarryPrefix(t *testing.T) {
	k := NewKeys("custom")

	if got := k.Session(7); got != "custom:sess:7" {
		t.Fatalf("session key = %q", got)
	}
	if got := k.Token("abc"); got != "custom:tok:abc" {
		t.Fatalf("token key = %q", got)
	}
	if got := k.StatsDailyActor("2026-03-10", 7); got != "custom:stats:daily:2026-03-10:actor:7" {
		t.Fatalf("daily actor key = %q", got)
	}
}

func TestEmptyPrefixDefaults(t *testing.T) {
	k := NewKeys("")
	if got := k.GlobalAudit(); got != "aa:audit:global" {
		t.Fatalf("global audit key = %q", got)
	}
}
