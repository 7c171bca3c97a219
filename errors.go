package afterauth

import "errors"

var (
	// ErrEngineNotReady is returned when an operation is invoked on a nil
	// or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrTokenBackendUnavailable wraps store failures during token issuance.
	ErrTokenBackendUnavailable = errors.New("token backend unavailable")
	// ErrUnknownActorKind is returned when no flavor is registered for the
	// requested actor kind.
	ErrUnknownActorKind = errors.New("unknown actor kind")
	// ErrServiceNotFound is returned by Registry lookups for unregistered
	// service names.
	ErrServiceNotFound = errors.New("service not found")
)
