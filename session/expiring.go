package session

import (
	"context"
	"time"
)

// Expiring decorates a Store with a lifetime. A record created at T with lifetime D is
// live while T+D is not before now. A non-positive D disables expiry.
//
// Expiry is evaluated on Load only; expired records are left in the inner store.
type Expiring struct {
	inner    Store
	duration time.Duration
	now      func() time.Time
}

// NewExpiring wraps inner with the given lifetime.
func NewExpiring(inner Store, duration time.Duration, opts ...Option) *Expiring {
	o := applyOptions(opts)
	return &Expiring{inner: inner, duration: duration, now: o.now}
}

// Duration returns the configured lifetime.
func (e *Expiring) Duration() time.Duration {
	return e.duration
}

func (e *Expiring) Save(ctx context.Context, rec *Record) error {
	return e.inner.Save(ctx, rec)
}

func (e *Expiring) Load(ctx context.Context, id string) (*Record, error) {
	rec, err := e.inner.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.duration <= 0 {
		return rec, nil
	}
	if rec.CreatedAt.IsZero() {
		return nil, ErrExpired
	}
	if rec.CreatedAt.Add(e.duration).Before(e.now()) {
		return nil, ErrExpired
	}
	return rec, nil
}

func (e *Expiring) Delete(ctx context.Context, id string) (bool, error) {
	return e.inner.Delete(ctx, id)
}

// Sweep delegates to the inner store when it supports sweeping.
func (e *Expiring) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	sw, ok := e.inner.(Sweeper)
	if !ok {
		return 0, nil
	}
	return sw.Sweep(ctx, maxAge)
}

var (
	_ Store   = (*Expiring)(nil)
	_ Sweeper = (*Expiring)(nil)
)
