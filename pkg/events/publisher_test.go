package events

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPublisher_DispatchesToSubscribedHandlers(t *testing.T) {
	publisher := NewMemoryPublisher()

	var received []interface{}
	publisher.Subscribe(RoutingKeyTransferCompleted, func(_ context.Context, body interface{}) {
		received = append(received, body)
	})

	event := TransferCompletedEvent{TransactionID: "tx-1", Timestamp: time.Now()}
	if err := publisher.Publish(context.Background(), RoutingKeyTransferCompleted, event); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("expected one delivery, got %d", len(received))
	}
	got, ok := received[0].(TransferCompletedEvent)
	if !ok {
		t.Fatalf("unexpected body type %T", received[0])
	}
	if got.TransactionID != "tx-1" {
		t.Fatalf("expected transaction id tx-1, got %q", got.TransactionID)
	}
}

func TestMemoryPublisher_KeysAreIsolated(t *testing.T) {
	publisher := NewMemoryPublisher()

	calls := 0
	publisher.Subscribe(RoutingKeySessionExpired, func(_ context.Context, _ interface{}) {
		calls++
	})

	if err := publisher.Publish(context.Background(), RoutingKeyTransferCompleted, TransferCompletedEvent{}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no delivery on a different key, got %d", calls)
	}
}

func TestMemoryPublisher_PublishedRetainsOrder(t *testing.T) {
	publisher := NewMemoryPublisher()
	ctx := context.Background()

	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		if err := publisher.Publish(ctx, RoutingKeyTransferCompleted, TransferCompletedEvent{TransactionID: id}); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
	}

	published := publisher.Published(RoutingKeyTransferCompleted)
	if len(published) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(published))
	}
	for i, want := range []string{"tx-1", "tx-2", "tx-3"} {
		if published[i].(TransferCompletedEvent).TransactionID != want {
			t.Fatalf("expected %q at index %d", want, i)
		}
	}
}

func TestFallbackPublisher_SwallowsPublishes(t *testing.T) {
	publisher := &FallbackPublisher{}
	if err := publisher.Publish(context.Background(), RoutingKeyTransferCompleted, TransferCompletedEvent{}); err != nil {
		t.Fatalf("expected the fallback publisher to swallow publishes, got %v", err)
	}
}
