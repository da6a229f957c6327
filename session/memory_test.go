package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := &Record{ID: "sid-1", UserID: "u-1", CreatedAt: time.Now()}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "sid-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.UserID != "u-1" {
		t.Fatalf("expected u-1, got %q", got.UserID)
	}

	got.UserID = "mutated"
	again, _ := store.Load(ctx, "sid-1")
	if again.UserID != "u-1" {
		t.Fatal("Load must return a copy")
	}
}

func TestMemoryStoreDeleteReportsExistence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, &Record{ID: "sid-1", UserID: "u-1"})

	removed, err := store.Delete(ctx, "sid-1")
	if err != nil || !removed {
		t.Fatalf("first delete: removed=%v err=%v", removed, err)
	}
	removed, err = store.Delete(ctx, "sid-1")
	if err != nil || removed {
		t.Fatalf("second delete: removed=%v err=%v", removed, err)
	}
	if _, err := store.Load(ctx, "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))

	_ = store.Save(ctx, &Record{ID: "old", UserID: "u-1", CreatedAt: clock.Now().Add(-2 * time.Hour)})
	_ = store.Save(ctx, &Record{ID: "fresh", UserID: "u-2", CreatedAt: clock.Now()})

	n, err := store.Sweep(ctx, time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 || store.Len() != 1 {
		t.Fatalf("expected one removal leaving one record, got n=%d len=%d", n, store.Len())
	}
	if _, err := store.Load(ctx, "fresh"); err != nil {
		t.Fatalf("fresh record should survive: %v", err)
	}

	if n, _ := store.Sweep(ctx, 0); n != 0 {
		t.Fatalf("non-positive maxAge must not remove records, removed %d", n)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("sid-%d", i)
			user := fmt.Sprintf("u-%d", i)
			if err := store.Save(ctx, &Record{ID: id, UserID: user}); err != nil {
				t.Errorf("save %s: %v", id, err)
				return
			}
			rec, err := store.Load(ctx, id)
			if err != nil || rec.UserID != user {
				t.Errorf("load %s: rec=%v err=%v", id, rec, err)
			}
			if i%2 == 0 {
				if _, err := store.Delete(ctx, id); err != nil {
					t.Errorf("delete %s: %v", id, err)
				}
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 32 {
		t.Fatalf("expected 32 surviving records, got %d", store.Len())
	}
}
