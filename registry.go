package afterauth

import (
	"context"
	"fmt"
	"sync"
)

// ServiceStatus is the lifecycle state tracked per registered service.
type ServiceStatus string

const (
	// StatusInitializing is the state between Register and InitializeAll.
	StatusInitializing ServiceStatus = "initializing"
	// StatusRunning means the service initialized successfully.
	StatusRunning ServiceStatus = "running"
	// StatusStopped means the service shut down cleanly.
	StatusStopped ServiceStatus = "stopped"
	// StatusError means initialization or shutdown failed.
	StatusError ServiceStatus = "error"
)

// Service is the lifecycle contract for components managed by a Registry.
// The Engine implements it, so it can be registered alongside sibling
// services of the host application.
type Service interface {
	Name() string
	Initialize(ctx context.Context) error
	Health(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Registry tracks named services and drives their shared lifecycle. All
// methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
	statuses map[string]ServiceStatus
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		services: map[string]Service{},
		statuses: map[string]ServiceStatus{},
	}
}

// Register adds a service under its own name. Registering the same name
// twice replaces the previous entry and resets its status.
func (r *Registry) Register(svc Service) {
	if svc == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.services[svc.Name()] = svc
	r.statuses[svc.Name()] = StatusInitializing
}

// Get returns the named service.
func (r *Registry) Get(name string) (Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return svc, nil
}

// Status returns the lifecycle state of the named service.
func (r *Registry) Status(name string) (ServiceStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return status, nil
}

// Remove drops a service from the registry without shutting it down.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.services, name)
	delete(r.statuses, name)
}

// InitializeAll initializes every registered service. The first failure
// stops the pass and is returned; already-initialized services stay
// running.
func (r *Registry) InitializeAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, svc := range r.services {
		if r.statuses[name] == StatusRunning {
			continue
		}
		if err := svc.Initialize(ctx); err != nil {
			r.statuses[name] = StatusError
			return fmt.Errorf("initialize %s: %w", name, err)
		}
		r.statuses[name] = StatusRunning
	}
	return nil
}

// ShutdownAll shuts down every running service. All services are
// attempted; the first error encountered is returned afterwards.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, svc := range r.services {
		if r.statuses[name] != StatusRunning {
			continue
		}
		if err := svc.Shutdown(ctx); err != nil {
			r.statuses[name] = StatusError
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown %s: %w", name, err)
			}
			continue
		}
		r.statuses[name] = StatusStopped
	}
	return firstErr
}

// CheckHealth probes every registered service and returns the per-service
// result. A nil map value means healthy.
func (r *Registry) CheckHealth(ctx context.Context) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make(map[string]error, len(r.services))
	for name, svc := range r.services {
		results[name] = svc.Health(ctx)
	}
	return results
}

// Stats reports how many services sit in each lifecycle state.
func (r *Registry) Stats() map[ServiceStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[ServiceStatus]int{}
	for _, status := range r.statuses {
		counts[status]++
	}
	return counts
}
