/**
 * @description
 * This package carries the completion signals the aggregation core emits for
 * downstream consumers: a transfer finishing (the cue to invalidate cached
 * account and feed views) and a session being force-expired by an upstream
 * authorization failure. The core only publishes; reacting is a collaborator
 * concern.
 *
 * @dependencies
 * - context, log, sync, time: Standard Go libraries.
 */
package events

import (
	"context"
	"log"
	"sync"
	"time"
)

// Routing keys for the events this service emits.
const (
	RoutingKeyTransferCompleted = "feed.transfer.completed"
	RoutingKeySessionExpired    = "feed.session.expired"
)

// TransferCompletedEvent is published after the upstream accepted a transfer.
type TransferCompletedEvent struct {
	TransactionID   string    `json:"transaction_id"`
	SourceAccountID string    `json:"source_account_id"`
	TargetAccountID string    `json:"target_account_id"`
	IdempotencyKey  string    `json:"idempotency_key"`
	Timestamp       time.Time `json:"timestamp"`
}

// SessionExpiredEvent is published when the session guard force-clears a session.
type SessionExpiredEvent struct {
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is the interface implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

type publishedEvent struct {
	RoutingKey string
	Body       interface{}
}

// MemoryPublisher is the in-process Publisher used in single-instance
// deployments and tests. Handlers run synchronously on the publishing
// goroutine; published events are retained for test inspection.
type MemoryPublisher struct {
	mu        sync.RWMutex
	handlers  map[string][]func(context.Context, interface{})
	published []publishedEvent
}

// NewMemoryPublisher creates an in-process event publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{
		handlers: make(map[string][]func(context.Context, interface{})),
	}
}

// Subscribe registers a handler for one routing key.
func (p *MemoryPublisher) Subscribe(routingKey string, handler func(context.Context, interface{})) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[routingKey] = append(p.handlers[routingKey], handler)
}

// Publish dispatches the event to every handler registered for its key.
func (p *MemoryPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	p.mu.Lock()
	p.published = append(p.published, publishedEvent{RoutingKey: routingKey, Body: body})
	handlers := append([]func(context.Context, interface{}){}, p.handlers[routingKey]...)
	p.mu.Unlock()

	for _, handler := range handlers {
		handler(ctx, body)
	}
	return nil
}

// Close is a no-op for the in-process publisher.
func (p *MemoryPublisher) Close() {}

// Published returns the bodies published under a routing key, oldest first.
func (p *MemoryPublisher) Published(routingKey string) []interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var bodies []interface{}
	for _, event := range p.published {
		if event.RoutingKey == routingKey {
			bodies = append(bodies, event.Body)
		}
	}
	return bodies
}

// FallbackPublisher is a minimal no-op publisher used when the broker is
// unavailable at startup.
type FallbackPublisher struct{}

func (p *FallbackPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	log.Printf("level=warn component=events mode=fallback msg=\"publish skipped\" routing_key=%s", routingKey)
	return nil
}

func (p *FallbackPublisher) Close() {}
