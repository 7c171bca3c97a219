package afterauth

import (
	"errors"
	"time"
)

// Config defines a public type used by afterauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	KeyPrefix  string
	Token      TokenConfig
	Session    SessionConfig
	History    HistoryConfig
	Audit      AuditConfig
	Anomaly    AnomalyConfig
	Permission PermissionConfig
	Stats      StatsConfig
	Notify     NotifyConfig
	Compliance ComplianceConfig
	Metrics    MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by afterauth APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	TTL           time.Duration
	BlacklistTTL  time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by afterauth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	TTL         time.Duration
	ElevatedTTL time.Duration
	OnlineTTL   time.Duration
}

// HistoryConfig defines a public type used by afterauth APIs.
//
// HistoryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistoryConfig struct {
	Cap         int
	TTL         time.Duration
	ElevatedCap int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by afterauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	ActorCap         int
	GlobalCap        int
	HighRiskCap      int
	ElevatedCap      int
	RetentionTTL     time.Duration
	MirrorEnabled    bool
	MirrorBuffer     int
	MirrorDropIfFull bool
}

/*
====================================
ANOMALY CONFIG
====================================
*/

// AnomalyThresholds defines a public type used by afterauth APIs.
//
// AnomalyThresholds instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AnomalyThresholds struct {
	OffHoursStart      int // logins before this hour are off-hours
	OffHoursEnd        int // logins at or after this hour are off-hours
	BurstSamples       int // history entries sampled for the burst check
	BurstMinEntries    int // minimum entries before the burst check runs
	BurstWindow        time.Duration
	OffHoursEvent      string
	BurstEvent         string
	UseElevatedHistory bool
}

// AnomalyConfig defines a public type used by afterauth APIs.
//
// AnomalyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AnomalyConfig struct {
	Standard AnomalyThresholds
	Elevated AnomalyThresholds
}

/*
====================================
PERMISSION CONFIG
====================================
*/

// PermissionConfig defines a public type used by afterauth APIs.
//
// PermissionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PermissionConfig struct {
	TTL time.Duration
}

/*
====================================
STATS CONFIG
====================================
*/

// StatsConfig defines a public type used by afterauth APIs.
//
// StatsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StatsConfig struct {
	DailyTTL time.Duration
	ActorTTL time.Duration
	TodayTTL time.Duration
}

// NotifyConfig defines a public type used by afterauth APIs.
//
// NotifyConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NotifyConfig struct {
	Enabled    bool
	PendingTTL time.Duration
}

// ComplianceConfig defines a public type used by afterauth APIs.
//
// ComplianceConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ComplianceConfig struct {
	FailedAttemptLimit int64
}

// MetricsConfig defines a public type used by afterauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Callers adjust fields
// and pass the result to [Builder.WithConfig]; a signing key must still be
// provided before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		KeyPrefix: "aa",
		Token: TokenConfig{
			TTL:           24 * time.Hour,
			BlacklistTTL:  24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "afterauth",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			ElevatedTTL: 48 * time.Hour,
			OnlineTTL:   24 * time.Hour,
		},
		History: HistoryConfig{
			Cap:         100,
			TTL:         30 * 24 * time.Hour,
			ElevatedCap: 50,
		},
		Audit: AuditConfig{
			ActorCap:         1000,
			GlobalCap:        10000,
			HighRiskCap:      100,
			ElevatedCap:      1000,
			RetentionTTL:     365 * 24 * time.Hour,
			MirrorEnabled:    false,
			MirrorBuffer:     1024,
			MirrorDropIfFull: true,
		},
		Anomaly: AnomalyConfig{
			Standard: AnomalyThresholds{
				OffHoursStart:      6,
				OffHoursEnd:        22,
				BurstSamples:       5,
				BurstMinEntries:    3,
				BurstWindow:        5 * time.Minute,
				OffHoursEvent:      EventUnusualLoginTime,
				BurstEvent:         EventFrequentLoginAttempts,
				UseElevatedHistory: false,
			},
			Elevated: AnomalyThresholds{
				OffHoursStart:      5,
				OffHoursEnd:        23,
				BurstSamples:       10,
				BurstMinEntries:    5,
				BurstWindow:        60 * time.Minute,
				OffHoursEvent:      EventElevatedUnusualTime,
				BurstEvent:         EventElevatedFrequentLogin,
				UseElevatedHistory: true,
			},
		},
		Permission: PermissionConfig{
			TTL: 1 * time.Hour,
		},
		Stats: StatsConfig{
			DailyTTL: 7 * 24 * time.Hour,
			ActorTTL: 30 * 24 * time.Hour,
			TodayTTL: 24 * time.Hour,
		},
		Notify: NotifyConfig{
			Enabled:    true,
			PendingTTL: 24 * time.Hour,
		},
		Compliance: ComplianceConfig{
			FailedAttemptLimit: 5,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.KeyPrefix == "" {
		return errors.New("KeyPrefix must not be empty")
	}

	// Token
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.BlacklistTTL <= 0 {
		return errors.New("Token BlacklistTTL must be > 0")
	}
	if c.Token.SigningMethod != "hs256" && c.Token.SigningMethod != "ed25519" {
		return errors.New("unsupported Token signing method")
	}
	if len(c.Token.PrivateKey) == 0 {
		return errors.New("Token PrivateKey is required")
	}
	if c.Token.SigningMethod == "ed25519" && len(c.Token.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.ElevatedTTL < c.Session.TTL {
		return errors.New("Session ElevatedTTL must be >= Session TTL")
	}
	if c.Session.OnlineTTL <= 0 {
		return errors.New("Session OnlineTTL must be > 0")
	}

	// History
	if c.History.Cap <= 0 {
		return errors.New("History Cap must be > 0")
	}
	if c.History.ElevatedCap <= 0 {
		return errors.New("History ElevatedCap must be > 0")
	}
	if c.History.TTL <= 0 {
		return errors.New("History TTL must be > 0")
	}

	// Audit
	if c.Audit.ActorCap <= 0 {
		return errors.New("Audit ActorCap must be > 0")
	}
	if c.Audit.GlobalCap <= 0 {
		return errors.New("Audit GlobalCap must be > 0")
	}
	if c.Audit.HighRiskCap <= 0 {
		return errors.New("Audit HighRiskCap must be > 0")
	}
	if c.Audit.ElevatedCap <= 0 {
		return errors.New("Audit ElevatedCap must be > 0")
	}
	if c.Audit.RetentionTTL <= 0 {
		return errors.New("Audit RetentionTTL must be > 0")
	}
	if c.Audit.MirrorEnabled && c.Audit.MirrorBuffer <= 0 {
		return errors.New("Audit MirrorBuffer must be > 0 when mirror is enabled")
	}

	// Anomaly
	if err := validateThresholds("Standard", c.Anomaly.Standard); err != nil {
		return err
	}
	if err := validateThresholds("Elevated", c.Anomaly.Elevated); err != nil {
		return err
	}

	// Permission
	if c.Permission.TTL <= 0 {
		return errors.New("Permission TTL must be > 0")
	}

	// Stats
	if c.Stats.DailyTTL <= 0 {
		return errors.New("Stats DailyTTL must be > 0")
	}
	if c.Stats.ActorTTL <= 0 {
		return errors.New("Stats ActorTTL must be > 0")
	}
	if c.Stats.TodayTTL <= 0 {
		return errors.New("Stats TodayTTL must be > 0")
	}

	// Notify
	if c.Notify.Enabled && c.Notify.PendingTTL <= 0 {
		return errors.New("Notify PendingTTL must be > 0 when notify is enabled")
	}

	// Compliance
	if c.Compliance.FailedAttemptLimit <= 0 {
		return errors.New("Compliance FailedAttemptLimit must be > 0")
	}

	return nil
}

func validateThresholds(name string, t AnomalyThresholds) error {
	if t.OffHoursStart < 0 || t.OffHoursStart > 23 {
		return errors.New(name + " OffHoursStart must be between 0 and 23")
	}
	if t.OffHoursEnd < 0 || t.OffHoursEnd > 24 {
		return errors.New(name + " OffHoursEnd must be between 0 and 24")
	}
	if t.OffHoursStart >= t.OffHoursEnd {
		return errors.New(name + " OffHoursStart must be < OffHoursEnd")
	}
	if t.BurstSamples <= 0 {
		return errors.New(name + " BurstSamples must be > 0")
	}
	if t.BurstMinEntries <= 0 {
		return errors.New(name + " BurstMinEntries must be > 0")
	}
	if t.BurstWindow <= 0 {
		return errors.New(name + " BurstWindow must be > 0")
	}
	if t.OffHoursEvent == "" || t.BurstEvent == "" {
		return errors.New(name + " anomaly event types must not be empty")
	}
	return nil
}
