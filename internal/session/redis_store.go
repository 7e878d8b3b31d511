/**
 * @description
 * Redis-backed session store for multi-instance deployments, where the
 * memoized customer id must survive a request landing on a different
 * replica. Entries live under a namespaced key per session token and carry
 * the same TTL semantics as the in-memory store.
 */

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorettabank/feed-service/internal/domain"
)

const defaultKeyPrefix = "lorettabank:feed:session"

// RedisStore implements Store on a shared Redis instance.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: trimmed, ttl: ttl}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + ":" + token
}

// Put records a fresh session for the token.
func (s *RedisStore) Put(ctx context.Context, token string, user domain.AuthUser) error {
	payload, err := json.Marshal(Entry{User: user})
	if err != nil {
		return fmt.Errorf("failed to marshal session entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns the live entry for a token.
func (s *RedisStore) Get(ctx context.Context, token string) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("failed to decode session entry: %w", err)
	}
	return entry, true, nil
}

// SetCustomerID memoizes the resolved customer id, creating the entry when
// the session was established before this instance started.
func (s *RedisStore) SetCustomerID(ctx context.Context, token, customerID string) error {
	entry, _, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	entry.CustomerID = customerID
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal session entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Invalidate discards all state for the token.
func (s *RedisStore) Invalidate(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	return nil
}
