package session

import (
	"context"
	"testing"
	"time"

	"github.com/lorettabank/feed-service/internal/domain"
)

func TestMemoryStore_PutReplacesPriorState(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	if err := store.Put(ctx, "tok", domain.AuthUser{ID: "u-1"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.SetCustomerID(ctx, "tok", "cust-1"); err != nil {
		t.Fatalf("SetCustomerID returned error: %v", err)
	}

	// A fresh sign-in under the same token drops the memoized customer id.
	if err := store.Put(ctx, "tok", domain.AuthUser{ID: "u-2"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	entry, ok, err := store.Get(ctx, "tok")
	if err != nil || !ok {
		t.Fatalf("expected a live entry, ok=%t err=%v", ok, err)
	}
	if entry.User.ID != "u-2" {
		t.Fatalf("expected the new user, got %q", entry.User.ID)
	}
	if entry.CustomerID != "" {
		t.Fatalf("expected the customer memo cleared, got %q", entry.CustomerID)
	}
}

func TestMemoryStore_GetUnknownToken(t *testing.T) {
	store := NewMemoryStore(0)

	_, ok, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected no entry for an unknown token")
	}
}

func TestMemoryStore_ExpiredEntryIsEvictedOnRead(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	ctx := context.Background()

	if err := store.Put(ctx, "tok", domain.AuthUser{ID: "u-1"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, ok, _ := store.Get(ctx, "tok"); ok {
		t.Fatalf("expected the expired entry to be gone")
	}
}

func TestMemoryStore_SetCustomerIDCreatesEntryForUnknownToken(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	// The caller may hold a token issued before this instance started.
	if err := store.SetCustomerID(ctx, "pre-existing-token", "cust-9"); err != nil {
		t.Fatalf("SetCustomerID returned error: %v", err)
	}

	entry, ok, err := store.Get(ctx, "pre-existing-token")
	if err != nil || !ok {
		t.Fatalf("expected a live entry, ok=%t err=%v", ok, err)
	}
	if entry.CustomerID != "cust-9" {
		t.Fatalf("expected the memoized customer id, got %q", entry.CustomerID)
	}
}

func TestMemoryStore_InvalidateUnknownTokenIsNoOp(t *testing.T) {
	store := NewMemoryStore(0)
	if err := store.Invalidate(context.Background(), "missing"); err != nil {
		t.Fatalf("expected a no-op, got error: %v", err)
	}
}
