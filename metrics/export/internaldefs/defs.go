package internaldefs

import (
	afterauth "github.com/nharu-x/afterauth"
)

// CounterDef defines a public type used by afterauth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   afterauth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by afterauth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   afterauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the login pipeline.
var CounterDefs = []CounterDef{
	{ID: afterauth.MetricFlowCompleted, Name: "afterauth_flow_completed_total", Help: "Login flows that ran every stage cleanly."},
	{ID: afterauth.MetricFlowDegraded, Name: "afterauth_flow_degraded_total", Help: "Login flows with at least one skipped stage."},
	{ID: afterauth.MetricStageFailure, Name: "afterauth_stage_failure_total", Help: "Individual best-effort stage failures."},
	{ID: afterauth.MetricTokenIssued, Name: "afterauth_token_issued_total", Help: "Issued tokens."},
	{ID: afterauth.MetricTokenValidated, Name: "afterauth_token_validated_total", Help: "Successful token validations."},
	{ID: afterauth.MetricTokenRejected, Name: "afterauth_token_rejected_total", Help: "Token validations that failed closed."},
	{ID: afterauth.MetricTokenRevoked, Name: "afterauth_token_revoked_total", Help: "Single-token revocations."},
	{ID: afterauth.MetricForceRevocation, Name: "afterauth_force_revocation_total", Help: "Forced mass logouts."},
	{ID: afterauth.MetricAuditRecorded, Name: "afterauth_audit_recorded_total", Help: "Audit events written to the store."},
	{ID: afterauth.MetricHighRiskEvent, Name: "afterauth_high_risk_event_total", Help: "Events routed to the high-risk log."},
	{ID: afterauth.MetricAnomalyOffHours, Name: "afterauth_anomaly_off_hours_total", Help: "Off-hours login signals."},
	{ID: afterauth.MetricAnomalyBurst, Name: "afterauth_anomaly_burst_total", Help: "Login-burst signals."},
	{ID: afterauth.MetricAnomalyIPChange, Name: "afterauth_anomaly_ip_change_total", Help: "IP-change signals."},
	{ID: afterauth.MetricPermissionRefresh, Name: "afterauth_permission_refresh_total", Help: "Permission snapshot rebuilds."},
	{ID: afterauth.MetricPermissionFallback, Name: "afterauth_permission_fallback_total", Help: "Loader failures served from default permissions."},
	{ID: afterauth.MetricNotificationQueued, Name: "afterauth_notification_queued_total", Help: "Queued login notifications."},
	{ID: afterauth.MetricComplianceFlagged, Name: "afterauth_compliance_flagged_total", Help: "Actors flagged by the compliance check."},
}

// HistogramDefs is an exported constant or variable used by the login pipeline.
var HistogramDefs = []HistogramDef{
	{ID: afterauth.MetricFlowLatency, Name: "afterauth_flow_latency_seconds", Help: "Login flow latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the login pipeline.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the login pipeline.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
