package authlayer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/authlayer/metrics"
)

// auditDispatcher hands events to a sink on its own goroutine so the request path never
// waits on a slow sink. A nil dispatcher discards everything.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	logger     *slog.Logger
	recorder   metrics.Recorder

	// mu guards closed and the send side of events.
	mu      sync.RWMutex
	closed  bool
	events  chan AuditEvent
	drained chan struct{}
	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *slog.Logger, recorder metrics.Recorder) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		logger:     logger,
		recorder:   recorder,
		events:     make(chan AuditEvent, cfg.BufferSize),
		drained:    make(chan struct{}),
	}
	go d.deliver()
	return d
}

func (d *auditDispatcher) deliver() {
	defer close(d.drained)
	for event := range d.events {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. With DropIfFull a full queue drops it; otherwise Emit waits for
// room or for ctx. Either way a discarded event is counted.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		default:
			d.drop(metrics.DropBufferFull)
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
		d.drop(metrics.DropCanceled)
	}
}

func (d *auditDispatcher) drop(reason string) {
	d.dropped.Add(1)
	d.recorder.AuditDropped(reason)
}

// Close stops accepting events and returns once the queue has reached the sink. An Emit
// still waiting for room holds Close until it finishes. It may be called more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	first := !d.closed
	if first {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	<-d.drained
	if n := d.Dropped(); first && n > 0 {
		d.logger.Warn("audit events dropped", slog.Uint64("count", n))
	}
}

// Dropped reports how many events never reached the sink.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
