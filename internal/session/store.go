/**
 * @description
 * This package holds the per-session state the reconciliation layer depends
 * on: the authenticated user and the memoized customer id resolved from the
 * upstream profile endpoint. It replaces the ambient global cache of the
 * original client with an explicit store that is mutated only at the four
 * session-transition points: login, register, logout, and any authorization
 * failure.
 *
 * @notes
 * - Entries expire after a configurable TTL (default one day, matching the
 *   upstream session cookie lifetime) and are evicted lazily on read.
 */

package session

import (
	"context"
	"sync"
	"time"

	"github.com/lorettabank/feed-service/internal/domain"
)

// Entry is the state held for one authenticated session.
type Entry struct {
	User domain.AuthUser `json:"user"`

	// CustomerID is the memoized result of the one-per-session upstream
	// profile lookup. Empty means not yet resolved.
	CustomerID string `json:"customerId,omitempty"`
}

// Store is the session-state contract shared by the in-memory and Redis
// implementations. Implementations must treat Invalidate on an unknown token
// as a no-op.
type Store interface {
	// Put records a fresh session, replacing any prior state for the token.
	Put(ctx context.Context, token string, user domain.AuthUser) error
	// Get returns the session entry for a token, if one is live.
	Get(ctx context.Context, token string) (Entry, bool, error)
	// SetCustomerID memoizes the resolved customer id for the session.
	SetCustomerID(ctx context.Context, token, customerID string) error
	// Invalidate discards all state for the token.
	Invalidate(ctx context.Context, token string) error
}

// DefaultTTL bounds how long a session entry may outlive its last refresh.
const DefaultTTL = 24 * time.Hour

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

// MemoryStore is the process-local Store used in single-instance deployments
// and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryStore creates an in-memory session store. A non-positive ttl
// falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Put records a fresh session for the token.
func (s *MemoryStore) Put(_ context.Context, token string, user domain.AuthUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{
		entry:     Entry{User: user},
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Get returns the live entry for a token, evicting it if expired.
func (s *MemoryStore) Get(_ context.Context, token string) (Entry, bool, error) {
	s.mu.RLock()
	stored, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}
	if time.Now().After(stored.expiresAt) {
		s.mu.Lock()
		delete(s.entries, token)
		s.mu.Unlock()
		return Entry{}, false, nil
	}
	return stored.entry, true, nil
}

// SetCustomerID memoizes the resolved customer id for an existing session.
// Unknown tokens get a fresh entry so the memo survives even when the caller
// authenticated before this instance started.
func (s *MemoryStore) SetCustomerID(_ context.Context, token, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[token]
	if !ok || time.Now().After(stored.expiresAt) {
		stored = memoryEntry{expiresAt: time.Now().Add(s.ttl)}
	}
	stored.entry.CustomerID = customerID
	s.entries[token] = stored
	return nil
}

// Invalidate discards all state for the token.
func (s *MemoryStore) Invalidate(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}
