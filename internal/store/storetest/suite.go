// Package storetest provides a compliance suite for store.Local
// implementations. Implementations should provide a clean, isolated store
// and return it from makeStore.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/pocketsync/pocketsync/internal/model"
	"github.com/pocketsync/pocketsync/internal/store"
)

// Run exercises the store.Local contract against an implementation.
func Run(t *testing.T, makeStore func(t *testing.T) store.Local) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := model.Item{
		ID:        model.NewPendingID(),
		Name:      "Wallet",
		Location:  "Jacket pocket",
		Timestamp: base,
		UserID:    "u-1",
	}
	second := model.Item{
		ID:        model.RemoteID("r-abc"),
		Name:      "Keys",
		Timestamp: base.Add(time.Second),
		UserID:    "u-1",
	}

	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("Put first: %v", err)
	}
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("Put second: %v", err)
	}

	got, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetAll: want 2 records, got %d", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("GetAll: insertion order not preserved: %v, %v", got[0].ID, got[1].ID)
	}
	if got[0].Name != "Wallet" || got[0].Location != "Jacket pocket" || got[0].UserID != "u-1" {
		t.Fatalf("GetAll: fields not preserved: %+v", got[0])
	}
	if !got[0].Timestamp.Equal(base) {
		t.Fatalf("GetAll: timestamp not preserved: %v", got[0].Timestamp)
	}

	// Put with an existing key replaces, not duplicates.
	first.Location = "Backpack"
	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	got, err = s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll after replace: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Put replace: want 2 records, got %d", len(got))
	}

	// Delete is idempotent.
	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete second call: %v", err)
	}
	got, err = s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll after delete: %v", err)
	}
	if len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("Delete: unexpected remaining records: %+v", got)
	}

	// Clear leaves an empty store.
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll after clear: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Clear: want empty store, got %d records", len(got))
	}
}
