package kv

import "strconv"

// Keys defines the key layout shared by every component of the pipeline.
// All keys carry a common prefix so multiple deployments can share one
// Redis database.
type Keys struct {
	prefix string
}

// NewKeys creates a key layout with the given prefix. An empty prefix
// defaults to "aa".
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = "aa"
	}
	return Keys{prefix: prefix}
}

func (k Keys) actor(kind string, actorID int64) string {
	return k.prefix + ":" + kind + ":" + strconv.FormatInt(actorID, 10)
}

// Session is the per-actor session record, overwritten on each login.
func (k Keys) Session(actorID int64) string { return k.actor("sess", actorID) }

// Token is the direct token lookup key.
func (k Keys) Token(token string) string { return k.prefix + ":tok:" + token }

// TokenSet is the per-actor set of active tokens.
func (k Keys) TokenSet(actorID int64) string { return k.actor("toks", actorID) }

// Blacklist marks a revoked token. A token with a live blacklist key is
// never valid regardless of signature state.
func (k Keys) Blacklist(token string) string { return k.prefix + ":blk:" + token }

// History is the per-actor login history list, newest first.
func (k Keys) History(actorID int64) string { return k.actor("hist", actorID) }

// ElevatedHistory is the separate history list kept for elevated actors.
func (k Keys) ElevatedHistory(actorID int64) string { return k.actor("histel", actorID) }

// Online marks the actor as currently logged in.
func (k Keys) Online(actorID int64) string { return k.actor("online", actorID) }

// LastIP holds the most recent login IP seen by the anomaly detector.
func (k Keys) LastIP(actorID int64) string { return k.actor("lastip", actorID) }

// ElevatedLastIP holds the most recent elevated login IP.
func (k Keys) ElevatedLastIP(actorID int64) string { return k.actor("ellastip", actorID) }

// ElevatedMarker flags an actor as having an active elevated login.
func (k Keys) ElevatedMarker(actorID int64) string { return k.actor("eladm", actorID) }

// Audit is the per-actor audit log list.
func (k Keys) Audit(actorID int64) string { return k.actor("audit", actorID) }

// GlobalAudit is the instance-wide audit log list.
func (k Keys) GlobalAudit() string { return k.prefix + ":audit:global" }

// HighRiskAudit receives only high-severity events.
func (k Keys) HighRiskAudit() string { return k.prefix + ":audit:highrisk" }

// ElevatedAudit is the dedicated log for elevated-actor login events.
func (k Keys) ElevatedAudit() string { return k.prefix + ":audit:elevated" }

// Permissions is the per-actor permission snapshot.
func (k Keys) Permissions(actorID int64) string { return k.actor("perm", actorID) }

// Roles mirrors the role list of the snapshot under its own key.
func (k Keys) Roles(actorID int64) string { return k.actor("roles", actorID) }

// PermissionCheck is the once-per-day elevated permission-change marker.
func (k Keys) PermissionCheck(actorID int64) string { return k.actor("permchk", actorID) }

// FailedAttempts is the failed-login counter read by the compliance stage.
func (k Keys) FailedAttempts(actorID int64) string { return k.actor("failed", actorID) }

// NotifyFlag gates login notifications per actor.
func (k Keys) NotifyFlag(actorID int64) string { return k.actor("notif", actorID) }

// NotifyQueue is the outbound notification list consumed by deliverers.
func (k Keys) NotifyQueue() string { return k.prefix + ":notifq" }

// NotifyPending marks a queued notification awaiting delivery.
func (k Keys) NotifyPending(actorID int64, unixMillis int64) string {
	return k.actor("notifsent", actorID) + ":" + strconv.FormatInt(unixMillis, 10)
}

// StatsActor is the per-actor cumulative login statistics record.
func (k Keys) StatsActor(actorID int64) string { return k.actor("stats:actor", actorID) }

// StatsDailyTotal counts all logins on the given day (YYYY-MM-DD).
func (k Keys) StatsDailyTotal(date string) string {
	return k.prefix + ":stats:daily:" + date + ":total"
}

// StatsDailyActor counts one actor's logins on the given day.
func (k Keys) StatsDailyActor(date string, actorID int64) string {
	return k.prefix + ":stats:daily:" + date + ":actor:" + strconv.FormatInt(actorID, 10)
}

// StatsGlobalTotal is the lifetime login counter.
func (k Keys) StatsGlobalTotal() string { return k.prefix + ":stats:total" }

// StatsGlobalToday is the rolling 24h login counter.
func (k Keys) StatsGlobalToday() string { return k.prefix + ":stats:today" }

// StatsElevatedTotal is the lifetime elevated login counter.
func (k Keys) StatsElevatedTotal() string { return k.prefix + ":stats:elevated:total" }

// StatsElevatedToday is the rolling elevated daily counter.
func (k Keys) StatsElevatedToday() string { return k.prefix + ":stats:elevated:today" }
