package afterauth

import (
	"context"
	"encoding/json"
	"log"
	"strings"
)

// refreshPermissions rebuilds the actor's cached permission snapshot from
// the flavor's loader. The snapshot is replaced wholesale, never merged.
// A loader failure serves the flavor's fallback set instead of erroring
// the stage, so a broken permission source degrades rather than breaks
// the login.
func (e *Engine) refreshPermissions(ctx context.Context, login LoginContext, flavor ActorFlavor) error {
	set, err := flavor.Loader()(ctx, login.ActorID)
	if err != nil {
		log.Printf("afterauth: permission loader failed for actor %d: %v", login.ActorID, err)
		set = flavor.Fallback()
		e.metrics.Inc(MetricPermissionFallback)
	}

	snapshot := PermissionSnapshot{
		Roles:       set.Roles,
		Permissions: set.Permissions,
		LastUpdated: e.now().UnixMilli(),
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, e.keys.Permissions(login.ActorID), string(data), e.config.Permission.TTL); err != nil {
		return err
	}
	if err := e.store.Set(ctx, e.keys.Roles(login.ActorID), strings.Join(set.Roles, ","), e.config.Permission.TTL); err != nil {
		return err
	}

	e.metrics.Inc(MetricPermissionRefresh)
	return nil
}

// Permissions loads the actor's cached permission snapshot. An expired or
// absent snapshot returns kv.ErrKeyNotFound; callers decide whether to
// trigger a reload.
func (e *Engine) Permissions(ctx context.Context, actorID int64) (PermissionSnapshot, error) {
	var snapshot PermissionSnapshot

	raw, err := e.store.Get(ctx, e.keys.Permissions(actorID))
	if err != nil {
		return snapshot, err
	}
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

// HasPermission reports whether the cached snapshot grants the named
// permission. Missing or unreadable snapshots fail closed.
func (e *Engine) HasPermission(ctx context.Context, actorID int64, permission string) bool {
	snapshot, err := e.Permissions(ctx, actorID)
	if err != nil {
		return false
	}
	for _, p := range snapshot.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// HasRole reports whether the cached snapshot grants the named role.
// Missing or unreadable snapshots fail closed.
func (e *Engine) HasRole(ctx context.Context, actorID int64, role string) bool {
	snapshot, err := e.Permissions(ctx, actorID)
	if err != nil {
		return false
	}
	for _, r := range snapshot.Roles {
		if r == role {
			return true
		}
	}
	return false
}
