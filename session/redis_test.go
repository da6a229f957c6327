package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewRedisStore(rdb, "as", ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStoreTest(t, time.Hour)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Save(ctx, &Record{ID: "sid-1", UserID: "u-1", CreatedAt: created}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("as:sid-1") {
		t.Fatal("expected key as:sid-1")
	}
	if ttl := mr.TTL("as:sid-1"); ttl != time.Hour {
		t.Fatalf("expected 1h TTL, got %v", ttl)
	}

	rec, err := store.Load(ctx, "sid-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.ID != "sid-1" || rec.UserID != "u-1" || !rec.CreatedAt.Equal(created) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestRedisStoreZeroTTLPersists(t *testing.T) {
	store, mr := newRedisStoreTest(t, 0)
	if err := store.Save(context.Background(), &Record{ID: "sid-1", UserID: "u-1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("as:sid-1"); ttl != 0 {
		t.Fatalf("expected no TTL, got %v", ttl)
	}
}

func TestRedisStoreNativeExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStoreTest(t, time.Minute)
	_ = store.Save(ctx, &Record{ID: "sid-1", UserID: "u-1", CreatedAt: time.Now()})

	mr.FastForward(time.Minute + time.Second)
	if _, err := store.Load(ctx, "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStoreTest(t, time.Hour)
	_ = store.Save(ctx, &Record{ID: "sid-1", UserID: "u-1", CreatedAt: time.Now()})

	removed, err := store.Delete(ctx, "sid-1")
	if err != nil || !removed {
		t.Fatalf("first delete: removed=%v err=%v", removed, err)
	}
	removed, err = store.Delete(ctx, "sid-1")
	if err != nil || removed {
		t.Fatalf("second delete: removed=%v err=%v", removed, err)
	}
}

func TestRedisStoreCorruptRecordIsAbsent(t *testing.T) {
	store, mr := newRedisStoreTest(t, time.Hour)
	if err := mr.Set("as:sid-1", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Load(context.Background(), "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStoreTest(t, time.Hour)
	mr.Close()

	if err := store.Save(ctx, &Record{ID: "sid-1", UserID: "u-1"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("save: expected ErrUnavailable, got %v", err)
	}
	if _, err := store.Load(ctx, "sid-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("load: expected ErrUnavailable, got %v", err)
	}
	if _, err := store.Delete(ctx, "sid-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("delete: expected ErrUnavailable, got %v", err)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ping: expected ErrUnavailable, got %v", err)
	}
}
