package afterauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/nharu-x/afterauth/kv"
)

// ActorFlavor customizes the login pipeline for a class of actors. The
// engine ships with standard and elevated flavors; callers may register
// their own via the builder.
type ActorFlavor interface {
	// Kind reports the actor kind this flavor serves.
	Kind() ActorKind
	// Thresholds returns the anomaly detection thresholds for this flavor.
	Thresholds(cfg *Config) AnomalyThresholds
	// Loader returns the permission loader, or nil to use defaults only.
	Loader() PermissionLoader
	// Fallback returns the permission set served when the loader fails.
	Fallback() PermissionSet
	// Hook runs as the final pipeline stage. Errors are logged and
	// swallowed like any other stage failure.
	Hook(ctx context.Context, e *Engine, login LoginContext) error
}

// StandardActor is the default flavor for ordinary users.
type StandardActor struct {
	PermissionLoader PermissionLoader
}

// Kind describes the kind operation and its observable behavior.
func (StandardActor) Kind() ActorKind { return ActorStandard }

// Thresholds describes the thresholds operation and its observable behavior.
func (StandardActor) Thresholds(cfg *Config) AnomalyThresholds {
	return cfg.Anomaly.Standard
}

// Loader describes the loader operation and its observable behavior.
func (a StandardActor) Loader() PermissionLoader {
	if a.PermissionLoader != nil {
		return a.PermissionLoader
	}
	return func(ctx context.Context, actorID int64) (PermissionSet, error) {
		return PermissionSet{
			Roles:       []string{"user"},
			Permissions: []string{"read", "write"},
		}, nil
	}
}

// Fallback describes the fallback operation and its observable behavior.
func (StandardActor) Fallback() PermissionSet {
	return PermissionSet{
		Roles:       []string{"user"},
		Permissions: []string{"read", "write"},
	}
}

// Hook describes the hook operation and its observable behavior.
func (StandardActor) Hook(context.Context, *Engine, LoginContext) error { return nil }

// ElevatedActor is the flavor for privileged accounts. It tightens the
// anomaly thresholds, extends session retention, and maintains dedicated
// elevated counters and audit history.
type ElevatedActor struct {
	PermissionLoader PermissionLoader
}

// Kind describes the kind operation and its observable behavior.
func (ElevatedActor) Kind() ActorKind { return ActorElevated }

// Thresholds describes the thresholds operation and its observable behavior.
func (ElevatedActor) Thresholds(cfg *Config) AnomalyThresholds {
	return cfg.Anomaly.Elevated
}

// Loader describes the loader operation and its observable behavior.
func (a ElevatedActor) Loader() PermissionLoader {
	if a.PermissionLoader != nil {
		return a.PermissionLoader
	}
	return func(ctx context.Context, actorID int64) (PermissionSet, error) {
		return PermissionSet{
			Roles: []string{"admin", "superuser", "authenticated"},
			Permissions: []string{
				"read", "write", "delete",
				"admin_panel", "user_management", "system_config",
				"audit_logs", "backup_restore", "security_settings",
			},
		}, nil
	}
}

// Fallback describes the fallback operation and its observable behavior.
func (ElevatedActor) Fallback() PermissionSet {
	return PermissionSet{
		Roles:       []string{"admin"},
		Permissions: []string{"read", "write", "admin_panel"},
	}
}

// Hook describes the hook operation and its observable behavior.
//
// Hook may return an error when input validation, dependency calls, or security checks fail.
func (ElevatedActor) Hook(ctx context.Context, e *Engine, login LoginContext) error {
	now := e.now()

	if _, err := e.store.Incr(ctx, e.keys.StatsElevatedTotal()); err != nil {
		return err
	}
	if _, err := e.store.Incr(ctx, e.keys.StatsElevatedToday()); err != nil {
		return err
	}
	_ = e.store.Expire(ctx, e.keys.StatsElevatedToday(), e.config.Stats.TodayTTL)

	if err := e.store.Set(ctx, e.keys.ElevatedLastIP(login.ActorID), login.IP, 24*time.Hour); err != nil {
		return err
	}
	if err := e.store.Set(ctx, e.keys.ElevatedMarker(login.ActorID), "true", 24*time.Hour); err != nil {
		return err
	}

	// Privileged sessions outlive standard ones.
	if err := e.store.Expire(ctx, e.keys.Session(login.ActorID), e.config.Session.ElevatedTTL); err != nil {
		return err
	}

	event := AuditEvent{
		ActorID:   login.ActorID,
		ActorName: login.ActorName,
		EventType: EventElevatedLogin,
		Details: map[string]any{
			"ip":         login.IP,
			"user_agent": login.UserAgent,
		},
		Timestamp: now.UnixMilli(),
		Severity:  classifySeverity(EventElevatedLogin),
	}
	if err := e.appendAuditEntry(ctx, e.keys.ElevatedAudit(), event, e.config.Audit.ElevatedCap); err != nil {
		return err
	}

	return checkPermissionDrift(ctx, e, login, now)
}

// checkPermissionDrift records a permission_change marker at most once per
// 24h per actor.
func checkPermissionDrift(ctx context.Context, e *Engine, login LoginContext, now time.Time) error {
	key := e.keys.PermissionCheck(login.ActorID)

	last, err := e.store.Get(ctx, key)
	if err == nil && last != "" {
		lastMs, perr := strconv.ParseInt(last, 10, 64)
		if perr == nil && now.UnixMilli()-lastMs < (24*time.Hour).Milliseconds() {
			return nil
		}
	} else if err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return err
	}

	if err := e.store.Set(ctx, key, strconv.FormatInt(now.UnixMilli(), 10), 25*time.Hour); err != nil {
		return err
	}
	e.RecordAudit(ctx, login.ActorID, login.ActorName, EventPermissionChange, map[string]any{
		"check": "scheduled_review",
	})
	return nil
}

func defaultFlavors() map[ActorKind]ActorFlavor {
	return map[ActorKind]ActorFlavor{
		ActorStandard: StandardActor{},
		ActorElevated: ElevatedActor{},
	}
}
