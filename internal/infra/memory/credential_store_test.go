package memory

import (
	"context"
	"testing"
	"time"

	"flashmind-student/internal/domain"
)

func TestCredentialStoreRoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(time.Hour)
	creds := domain.Credentials{Token: "t", RefreshToken: "r", User: domain.Profile{Username: "amen", Role: domain.RoleStudent}}

	if err := store.Save(ctx, "sid-1", creds); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Load(ctx, "sid-1")
	if err != nil || !ok || got != creds {
		t.Fatalf("unexpected load %+v ok=%v err=%v", got, ok, err)
	}
	if err := store.Clear(ctx, "sid-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "sid-1"); ok {
		t.Fatalf("expected credentials to be gone")
	}
}

func TestCredentialStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(time.Minute)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	_ = store.Save(ctx, "sid-1", domain.Credentials{Token: "t"})
	now = now.Add(time.Minute)
	if _, ok, _ := store.Load(ctx, "sid-1"); ok {
		t.Fatalf("expected expired credentials")
	}
}

func TestCredentialStoreTTLRestartsOnlyOnSave(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(time.Minute)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	_ = store.Save(ctx, "sid-1", domain.Credentials{Token: "t"})
	now = now.Add(40 * time.Second)
	if _, ok, _ := store.Load(ctx, "sid-1"); !ok {
		t.Fatalf("expected credentials before the ttl")
	}
	now = now.Add(30 * time.Second)
	if _, ok, _ := store.Load(ctx, "sid-1"); ok {
		t.Fatalf("a load must not extend the ttl")
	}

	_ = store.Save(ctx, "sid-1", domain.Credentials{Token: "t"})
	now = now.Add(40 * time.Second)
	_ = store.Save(ctx, "sid-1", domain.Credentials{Token: "refreshed"})
	now = now.Add(40 * time.Second)
	if got, ok, _ := store.Load(ctx, "sid-1"); !ok || got.Token != "refreshed" {
		t.Fatalf("expected the save to restart the ttl, got %+v ok=%v", got, ok)
	}
}
