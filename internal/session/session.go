// Package session holds the authenticated session injected into every
// API call site. The session is an explicit object with init and
// teardown lifecycle methods; nothing in the console core reads auth
// state from package-level globals.
package session

import (
	"sync"

	"github.com/drivedeck/drivedeck/internal/config"
	"github.com/drivedeck/drivedeck/internal/events"
)

// Session carries the bearer token for the current user.
// Thread-safe for concurrent access.
type Session struct {
	mu    sync.RWMutex
	token string

	// onExpired is invoked at most once per expiry when the server
	// rejects the token (401). Typical wiring: redirect to login.
	onExpired func()
	expired   bool

	eventBus *events.EventBus
}

// New creates an empty, unauthenticated session.
func New(eventBus *events.EventBus) *Session {
	return &Session{eventBus: eventBus}
}

// RestoreFromConfig initializes the session from a persisted token.
// An empty token leaves the session unauthenticated without error;
// callers gate on Authenticated().
func (s *Session) RestoreFromConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = cfg.Token
	s.expired = false
}

// SetToken installs a fresh token (after login) and rearms expiry.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expired = false
}

// Token returns the current bearer token ("" if unauthenticated).
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// OnExpired registers the expiry callback.
func (s *Session) OnExpired(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpired = fn
}

// Clear tears the session down (logout).
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expired = false
}

// Expire clears the session in response to a server-side rejection and
// fires the expiry callback. Idempotent: repeated 401s from concurrent
// in-flight requests fire the callback only once.
func (s *Session) Expire() {
	s.mu.Lock()
	if s.expired || s.token == "" {
		s.mu.Unlock()
		return
	}
	s.expired = true
	s.token = ""
	fn := s.onExpired
	bus := s.eventBus
	s.mu.Unlock()

	if bus != nil {
		bus.Publish(&events.SessionEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventSessionExpired},
		})
	}
	if fn != nil {
		fn()
	}
}
