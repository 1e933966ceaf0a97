// Package model manages the shared text-generation resource: a lazy,
// exactly-once loader for the expensive engine handle shared by every
// session.
package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/codeassist-ai/codeassist/internal/engine"
	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/logging"
)

// ErrNotReady is returned by Get when the resource is not loaded.
var ErrNotReady = errors.New("model not ready")

// State is the resource lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InitError wraps a load failure with its underlying cause.
type InitError struct {
	Cause error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("model initialization failed: %v", e.Cause)
}

func (e *InitError) Unwrap() error {
	return e.Cause
}

// Manager is the process-wide owner of the generation resource. It is
// constructed once at startup and shared by reference among all
// session-handling paths; it is deliberately not a package-level global.
//
// One mutex guards state transitions; the state tag itself is atomic so
// reads never block, and the slow load runs outside the mutex.
type Manager struct {
	mu     sync.Mutex
	state  atomic.Int32
	loader engine.Loader
	bus    *event.Bus

	// handle and loadErr are written before the corresponding state store,
	// so readers that observe Ready/Failed via the atomic tag see them.
	handle  *engine.Handle
	loadErr error
}

// NewManager creates a manager for the given loader. The bus may be nil.
func NewManager(loader engine.Loader, bus *event.Bus) *Manager {
	return &Manager{loader: loader, bus: bus}
}

// State returns the current lifecycle state without blocking.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// IsReady reports whether the resource is loaded.
func (m *Manager) IsReady() bool {
	return m.State() == StateReady
}

// IsInitializing reports whether a load is in flight.
func (m *Manager) IsInitializing() bool {
	return m.State() == StateInitializing
}

// Err returns the last load failure, or nil.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadErr
}

// Initialize loads the resource if it is not loaded already. The call is
// idempotent and concurrency-safe: when the resource is Ready or a load is
// already in flight it returns immediately without duplicating work, so at
// most one load ever executes process-wide. The caller that wins the
// Uninitialized (or Failed, on retry) transition performs the load and
// gets its outcome; everyone else polls State or watches the bus.
//
// A failed load leaves the state Failed and is not retried automatically;
// a subsequent Initialize call starts a fresh attempt.
func (m *Manager) Initialize(ctx context.Context) error {
	switch m.State() {
	case StateReady, StateInitializing:
		return nil
	}

	m.mu.Lock()
	switch m.State() {
	case StateReady, StateInitializing:
		m.mu.Unlock()
		return nil
	}
	m.setState(StateInitializing)
	m.mu.Unlock()

	// The load itself runs outside the mutex: it can take seconds to
	// minutes and must not block state queries.
	handle, err := m.loader.Load(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.loadErr = &InitError{Cause: err}
		m.handle = nil
		m.setState(StateFailed)
		logging.Error().Err(err).Msg("engine load failed")
		return m.loadErr
	}

	m.handle = handle
	m.loadErr = nil
	m.setState(StateReady)
	logging.Info().
		Str("provider", handle.ProviderID).
		Str("model", handle.ModelID).
		Msg("engine ready")
	return nil
}

// Get returns the loaded handle, or ErrNotReady. The fast rejection is
// lock-free; the success path re-checks under the mutex so a concurrent
// Reset can never yield a nil handle with a nil error.
func (m *Manager) Get() (*engine.Handle, error) {
	if m.State() != StateReady {
		return nil, ErrNotReady
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.State() != StateReady || m.handle == nil {
		return nil, ErrNotReady
	}
	return m.handle, nil
}

// Reset discards the loaded resource, returning the manager to
// Uninitialized. It has no effect while a load is in flight.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() == StateInitializing {
		return
	}
	m.handle = nil
	m.loadErr = nil
	m.setState(StateUninitialized)
}

// setState stores the state tag and publishes the transition.
// Callers hold m.mu.
func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	if m.bus != nil {
		m.bus.Publish(event.Event{
			Type: event.ModelStateChanged,
			Data: s.String(),
		})
	}
}
