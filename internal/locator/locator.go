// Package locator provides a minimal service locator: named factories
// registered once at startup, resolved lazily into memoized singletons.
// Handlers and route middleware are registered here and resolved by the
// router at dispatch time.
package locator

import (
	"errors"
	"fmt"
	"sync"
)

// ErrServiceNotFound is returned by Resolve for an unregistered id.
var ErrServiceNotFound = errors.New("service not found")

// Factory builds a service. It receives the locator so a factory can
// resolve its own dependencies. A factory that resolves its own id
// recurses until the stack overflows; that is a caller obligation, not a
// protected invariant.
type Factory func(l *Locator) (any, error)

// Locator is a registry of named factories with memoized singletons.
// Register all services before serving traffic; Resolve is safe for
// concurrent use afterwards.
type Locator struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]any
}

// New creates an empty locator.
func New() *Locator {
	return &Locator{
		factories: make(map[string]Factory),
		instances: make(map[string]any),
	}
}

// Register stores a factory under id, replacing any previous registration.
func (l *Locator) Register(id string, factory Factory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factories[id] = factory
}

// Resolve returns the memoized singleton for id, invoking the factory on
// first use. It fails with ErrServiceNotFound for unknown ids.
func (l *Locator) Resolve(id string) (any, error) {
	l.mu.Lock()
	if instance, ok := l.instances[id]; ok {
		l.mu.Unlock()
		return instance, nil
	}
	factory, ok := l.factories[id]
	l.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, id)
	}

	// The factory runs outside the lock so it can resolve dependencies.
	instance, err := factory(l)
	if err != nil {
		return nil, fmt.Errorf("failed to build service %q: %w", id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// A concurrent resolve may have won; keep the first instance so the
	// singleton guarantee holds.
	if existing, ok := l.instances[id]; ok {
		return existing, nil
	}
	l.instances[id] = instance
	return instance, nil
}

// Has reports whether id is registered.
func (l *Locator) Has(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.factories[id]
	return ok
}
