package session

import (
	"time"

	"github.com/MrEthical07/authlayer/metrics"
)

type options struct {
	now      func() time.Time
	recorder metrics.Recorder
	backend  string
}

// Option configures stores, decorators and managers in this package.
type Option func(*options)

// WithClock replaces time.Now. Tests use it to move across expiry boundaries.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics reports session lifecycle events to r.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithBackend sets the backend label used in metrics.
func WithBackend(name string) Option {
	return func(o *options) {
		if name != "" {
			o.backend = name
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		recorder: metrics.Nop{},
		backend:  "memory",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
