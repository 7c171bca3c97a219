// Package afterauth implements the post-authentication pipeline that runs
// after a primary credential check has already succeeded: token lifecycle
// management, an auditable trail of login events, anomaly detection over
// recent login history, cached role/permission snapshots, and a fixed-order
// login flow with per-actor-kind extension points.
//
// The package is a library, not a server. It is driven by an authentication
// boundary that has already verified credentials, and its only durable
// output is writes to a Redis-compatible key-value store. Every stage of
// the login flow is best-effort: a failing stage is logged and skipped,
// never surfaced to the caller, because the login decision was made
// upstream and must not be retroactively invalidated here.
package afterauth
