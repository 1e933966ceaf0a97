// Package session provides the in-memory session store with TTL expiry.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/logging"
	"github.com/codeassist-ai/codeassist/pkg/types"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

const (
	// DefaultTimeout is how long an idle session lives.
	DefaultTimeout = time.Hour
	// DefaultSweepInterval is how often expired sessions are collected.
	DefaultSweepInterval = 5 * time.Minute
)

// Store maps opaque session IDs to per-session data bags. All operations
// and the expiry sweep serialize on one RWMutex, so the map is never
// iterated while mutated. The store is constructed explicitly and injected
// wherever sessions are handled.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session

	timeout       time.Duration
	sweepInterval time.Duration
	bus           *event.Bus

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stop      chan struct{}
	done      chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout sets the idle timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithSweepInterval sets how often the expiry sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.sweepInterval = d }
}

// WithBus attaches an event bus for session lifecycle events.
func WithBus(bus *event.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// NewStore creates a session store. Call Start to run the expiry sweep.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:      make(map[string]*types.Session),
		timeout:       DefaultTimeout,
		sweepInterval: DefaultSweepInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a fresh session with an empty data bag. Never fails.
func (s *Store) Create() string {
	now := time.Now()
	sess := &types.Session{
		ID:           generateID(),
		Data:         make(map[string]any),
		CreatedAt:    now,
		LastActivity: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.publish(event.SessionCreated, sess.ID)
	return sess.ID
}

// Get returns a copy of the session and refreshes its activity timestamp,
// or ErrNotFound. Handing out a copy keeps callers off the live struct,
// which other requests keep rewriting under the store lock.
func (s *Store) Get(id string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	sess.LastActivity = time.Now()

	out := *sess
	out.Data = make(map[string]any, len(sess.Data))
	for k, v := range sess.Data {
		out.Data[k] = v
	}
	return &out, nil
}

// Set writes a value into the session's data bag and refreshes its
// activity timestamp. A no-op for unknown sessions; callers are expected
// to have checked existence via Get.
func (s *Store) Set(id, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	sess.Data[key] = value
	sess.LastActivity = time.Now()
}

// Delete removes a session. Idempotent.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	_, existed := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if existed {
		s.publish(event.SessionDeleted, id)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start runs the expiry sweep until Stop is called.
func (s *Store) Start() {
	s.startOnce.Do(func() {
		s.started = true
		go s.sweepLoop()
	})
}

// Stop halts the expiry sweep and waits for it to exit.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	if s.started {
		<-s.done
	}
}

func (s *Store) sweepLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes every session idle past the timeout. Exposed so callers
// (and tests) can force a collection cycle.
func (s *Store) Sweep() {
	cutoff := time.Now().Add(-s.timeout)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, id := range expired {
		logging.Debug().Str("session", id).Msg("session expired")
		s.publish(event.SessionExpired, id)
	}
}

func (s *Store) publish(t event.Type, sessionID string) {
	if s.bus != nil {
		s.bus.Publish(event.Event{Type: t, SessionID: sessionID})
	}
}

// generateID returns a new ULID session token.
func generateID() string {
	return ulid.Make().String()
}
