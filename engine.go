package afterauth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/nharu-x/afterauth/jwt"
	"github.com/nharu-x/afterauth/kv"
)

// Engine is the post-authentication pipeline. It owns the token lifecycle,
// the audit trail, anomaly detection, the permission cache, and the login
// statistics for every actor that completed primary credential checks.
//
// Build one via New().WithRedis(...).Build() and share it; all methods are
// safe for concurrent use.
type Engine struct {
	config  Config
	store   kv.Store
	keys    kv.Keys
	signer  *jwt.Signer
	audit   *auditDispatcher
	metrics *Metrics
	flavors map[ActorKind]ActorFlavor
	now     func() time.Time
}

// RunLoginFlow executes every post-login stage for the given login. It
// never returns an error: each stage is best-effort, and a failing stage
// is logged, counted, and skipped so the remaining stages still run. The
// caller's login has already succeeded; nothing here may undo that.
func (e *Engine) RunLoginFlow(ctx context.Context, login LoginContext) {
	if e == nil {
		return
	}
	start := e.now()
	login = login.normalize(ctx)

	flavor, ok := e.flavors[login.Kind]
	if !ok {
		log.Printf("afterauth: login flow aborted: %v: %s", ErrUnknownActorKind, login.Kind)
		return
	}

	failures := 0
	run := func(name string, fn func() error) {
		if !e.runStage(name, fn) {
			failures++
		}
	}

	run("session", func() error { return e.updateSession(ctx, login) })
	run("audit", func() error { return e.auditLoginSuccess(ctx, login) })
	run("anomaly", func() error { return e.detectAnomalies(ctx, login, flavor.Thresholds(&e.config)) })
	run("notify", func() error { return e.queueLoginNotification(ctx, login) })
	run("permissions", func() error { return e.refreshPermissions(ctx, login, flavor) })
	run("compliance", func() error { return e.complianceCheck(ctx, login) })
	run("stats", func() error { return e.updateStatistics(ctx, login) })
	run("hook", func() error { return flavor.Hook(ctx, e, login) })

	if failures == 0 {
		e.metrics.Inc(MetricFlowCompleted)
	} else {
		e.metrics.Inc(MetricFlowDegraded)
	}
	e.metrics.Observe(MetricFlowLatency, e.now().Sub(start))
}

// runStage executes one best-effort pipeline stage. A panic or error is
// logged and absorbed; it must never propagate to the caller.
func (e *Engine) runStage(name string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("afterauth: %s stage panic: %v", name, r)
			e.metrics.Inc(MetricStageFailure)
			ok = false
		}
	}()

	if err := fn(); err != nil {
		log.Printf("afterauth: %s stage failed: %v", name, err)
		e.metrics.Inc(MetricStageFailure)
		return false
	}
	return true
}

// updateSession overwrites the actor's session record with fresh login
// metadata. Exactly one session record exists per actor.
func (e *Engine) updateSession(ctx context.Context, login LoginContext) error {
	now := e.now().UnixMilli()
	sess := Session{
		ActorID:    login.ActorID,
		ActorName:  login.ActorName,
		LoginTime:  now,
		LastActive: now,
		IP:         login.IP,
		UserAgent:  login.UserAgent,
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, e.keys.Session(login.ActorID), string(data), e.config.Session.TTL)
}

func (e *Engine) auditLoginSuccess(ctx context.Context, login LoginContext) error {
	details := map[string]any{
		"ip":          login.IP,
		"user_agent":  login.UserAgent,
		"location":    login.Location,
		"device_info": login.DeviceInfo,
	}
	if login.Token != "" {
		details["token"] = truncateToken(login.Token)
	}
	return e.recordAudit(ctx, login.ActorID, login.ActorName, EventLoginSuccess, details)
}

// queueLoginNotification pushes a notification job when the actor opted in.
// The flag key must hold the literal "true"; anything else means opted out.
func (e *Engine) queueLoginNotification(ctx context.Context, login LoginContext) error {
	if !e.config.Notify.Enabled {
		return nil
	}

	flag, err := e.store.Get(ctx, e.keys.NotifyFlag(login.ActorID))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	if flag != "true" {
		return nil
	}

	now := e.now().UnixMilli()
	job, err := json.Marshal(map[string]any{
		"actor_id":   login.ActorID,
		"actor_name": login.ActorName,
		"ip":         login.IP,
		"user_agent": login.UserAgent,
		"location":   login.Location,
		"timestamp":  now,
	})
	if err != nil {
		return err
	}

	if err := e.store.ListPush(ctx, e.keys.NotifyQueue(), string(job)); err != nil {
		return err
	}
	if err := e.store.Set(ctx, e.keys.NotifyPending(login.ActorID, now), "queued", e.config.Notify.PendingTTL); err != nil {
		return err
	}

	e.metrics.Inc(MetricNotificationQueued)
	return nil
}

// complianceCheck flags actors whose failed-login counter exceeded the
// configured limit. The counter is maintained by the caller's credential
// layer; this stage only reads it.
func (e *Engine) complianceCheck(ctx context.Context, login LoginContext) error {
	raw, err := e.store.Get(ctx, e.keys.FailedAttempts(login.ActorID))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil
		}
		return err
	}

	failed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	if failed <= e.config.Compliance.FailedAttemptLimit {
		return nil
	}

	e.metrics.Inc(MetricComplianceFlagged)
	return e.recordAudit(ctx, login.ActorID, login.ActorName, EventMultipleFailedAttempts, map[string]any{
		"failed_attempts": failed,
		"limit":           e.config.Compliance.FailedAttemptLimit,
	})
}

// Config returns a defensive copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many mirrored audit events were discarded
// because the mirror buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close drains and stops the audit mirror. The engine stays usable for
// store-backed operations afterwards; only mirroring stops.
func (e *Engine) Close() {
	e.audit.Close()
}

/*
====================================
SERVICE INTEGRATION
====================================
*/

// Name implements Service.
func (e *Engine) Name() string { return "afterauth.engine" }

// Initialize implements Service. It verifies backend connectivity.
func (e *Engine) Initialize(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	return e.store.Ping(ctx)
}

// Health implements Service.
func (e *Engine) Health(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	return e.store.Ping(ctx)
}

// Shutdown implements Service.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.Close()
	return nil
}

func truncateToken(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
