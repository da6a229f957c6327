package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in a sync.Map. Operations on different ids never contend.
type MemoryStore struct {
	records sync.Map
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := applyOptions(opts)
	return &MemoryStore{now: o.now}
}

func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.records.Store(rec.ID, *rec)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.records.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	rec := v.(Record)
	return &rec, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, loaded := s.records.LoadAndDelete(id)
	return loaded, nil
}

// Sweep removes records created more than maxAge ago. A non-positive maxAge removes nothing.
func (s *MemoryStore) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-maxAge)

	removed := 0
	var err error
	s.records.Range(func(key, value any) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		if value.(Record).CreatedAt.Before(cutoff) {
			if s.records.CompareAndDelete(key, value) {
				removed++
			}
		}
		return true
	})
	return removed, err
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	n := 0
	s.records.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Sweeper = (*MemoryStore)(nil)
)
