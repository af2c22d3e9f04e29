package auth

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRevoke_and_IsRevoked(t *testing.T) {
	store := NewTokenRevocationStore()
	defer store.Close()
	ctx := context.Background()

	if err := store.Revoke(ctx, "token-abc-123", 1, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	revoked, err := store.IsRevoked(ctx, "token-abc-123")
	if err != nil || !revoked {
		t.Errorf("expected token to be revoked, got %v %v", revoked, err)
	}
	revoked, _ = store.IsRevoked(ctx, "unknown-jti")
	if revoked {
		t.Error("expected unknown JTI to not be revoked")
	}
}

func TestRevokedForUser(t *testing.T) {
	store := NewTokenRevocationStore()
	defer store.Close()
	ctx := context.Background()

	exp := time.Now().Add(time.Hour)
	_ = store.Revoke(ctx, "jti-1", 42, exp)
	_ = store.Revoke(ctx, "jti-2", 42, exp)
	_ = store.Revoke(ctx, "jti-2", 42, exp)
	_ = store.Revoke(ctx, "jti-3", 99, exp)

	if n := store.RevokedForUser(42); n != 2 {
		t.Errorf("expected 2 tokens for user 42, got %d", n)
	}
	if store.Count() != 3 {
		t.Errorf("expected 3 entries, got %d", store.Count())
	}
}

func TestCleanup_RemovesExpired(t *testing.T) {
	store := NewTokenRevocationStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	_ = store.Revoke(ctx, "old", 42, now.Add(-time.Minute))
	_ = store.Revoke(ctx, "fresh", 42, now.Add(time.Hour))

	store.cleanup()

	if revoked, _ := store.IsRevoked(ctx, "old"); revoked {
		t.Error("expected expired entry to be cleaned up")
	}
	if revoked, _ := store.IsRevoked(ctx, "fresh"); !revoked {
		t.Error("expected live entry to be kept")
	}
	if n := store.RevokedForUser(42); n != 1 {
		t.Errorf("expected 1 tracked token, got %d", n)
	}
}

func TestClose_Idempotent(t *testing.T) {
	store := NewTokenRevocationStore()
	store.Close()
	store.Close()
}

func TestConcurrentAccess(t *testing.T) {
	store := NewTokenRevocationStore()
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Revoke(ctx, "jti", int64(i%5+1), time.Now().Add(time.Hour))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.IsRevoked(ctx, "jti")
		}()
	}
	wg.Wait()
}
