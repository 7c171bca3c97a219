package afterauth

import "context"

// ActorKind selects the flavor of the login flow: ordinary users and
// elevated (administrative) accounts share the same stage sequence but
// plug in their own permission loader, anomaly thresholds, and hook.
type ActorKind uint8

const (
	// ActorStandard is an ordinary authenticated user.
	ActorStandard ActorKind = iota
	// ActorElevated is an administrative or otherwise privileged account.
	ActorElevated
)

func (k ActorKind) String() string {
	switch k {
	case ActorElevated:
		return "elevated"
	default:
		return "standard"
	}
}

// LoginContext carries everything the caller knows about a login that has
// already passed primary credential verification. Optional fields default
// to "127.0.0.1" / "Unknown" when absent; IP and user agent may also
// arrive via WithClientIP / WithUserAgent on the context.
type LoginContext struct {
	ActorID    int64
	ActorName  string
	Token      string
	Kind       ActorKind
	IP         string
	UserAgent  string
	Location   string
	DeviceInfo map[string]string
}

func (l LoginContext) normalize(ctx context.Context) LoginContext {
	if l.IP == "" {
		l.IP = clientIPFromContext(ctx)
	}
	if l.IP == "" {
		l.IP = "127.0.0.1"
	}
	if l.UserAgent == "" {
		l.UserAgent = userAgentFromContext(ctx)
	}
	if l.UserAgent == "" {
		l.UserAgent = "Unknown"
	}
	if l.Location == "" {
		l.Location = "Unknown"
	}
	if l.DeviceInfo == nil {
		l.DeviceInfo = map[string]string{}
	}
	return l
}

// Session is the per-actor session record. One exists per actor; it is
// overwritten on each new login and expires passively via TTL.
type Session struct {
	ActorID    int64  `json:"actor_id"`
	ActorName  string `json:"actor_name"`
	LoginTime  int64  `json:"login_time"`
	LastActive int64  `json:"last_active"`
	IP         string `json:"ip"`
	UserAgent  string `json:"user_agent"`
}

// PermissionSet is the result of a permission loader: the roles and
// permission names granted to one actor.
type PermissionSet struct {
	Roles       []string
	Permissions []string
}

// PermissionSnapshot is the cached form of a PermissionSet, rebuilt (never
// merged) on each login with a one-hour TTL.
type PermissionSnapshot struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	LastUpdated int64    `json:"last_updated"`
}

// PermissionLoader fetches the current roles and permissions for an actor.
// Loaders are injected per actor kind and may fail; the cache falls back to
// a minimal default set rather than propagating the failure.
type PermissionLoader func(ctx context.Context, actorID int64) (PermissionSet, error)

// LoginStats is the per-actor cumulative login record. Field names match
// the stored JSON consumed by ops tooling.
type LoginStats struct {
	TotalLogins int64 `json:"totalLogins"`
	LastLogin   int64 `json:"lastLogin"`
	LoginStreak int64 `json:"loginStreak"`
}

// IssueOptions carries the optional metadata recorded alongside a newly
// issued token.
type IssueOptions struct {
	IP        string
	UserAgent string
	Claims    map[string]string
}
