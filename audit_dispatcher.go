package statelesscsrf

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// auditDispatcher moves sink latency off the Issue and Validate path. A single
// worker delivers events in the order they were queued.
type auditDispatcher struct {
	sink       AuditSink
	logger     *slog.Logger
	dropIfFull bool

	// mu guards queue against send-after-close. Emit holds it shared.
	mu     sync.RWMutex
	queue  chan AuditEvent
	closed bool

	// stop releases blocked Emit calls so Close can take mu.
	stop     chan struct{}
	stopOnce sync.Once

	worker  sync.WaitGroup
	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *slog.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = discardLogger()
	}

	d := &auditDispatcher{
		sink:       sink,
		logger:     logger,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
	}
	d.worker.Add(1)
	go d.deliver()
	return d
}

// deliver runs until Close closes the queue, so every queued event reaches
// the sink.
func (d *auditDispatcher) deliver() {
	defer d.worker.Done()
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues event. With DropIfFull a full queue drops the event and counts
// it; otherwise Emit waits for room or for ctx. Events emitted after Close are
// discarded.
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

	if !d.dropIfFull {
		select {
		case d.queue <- event:
		case <-ctx.Done():
		case <-d.stop:
		}
		return
	}

	select {
	case d.queue <- event:
	default:
		if d.dropped.Add(1) == 1 {
			d.logger.Warn("audit buffer full, dropping events",
				slog.Int("buffer_size", cap(d.queue)))
		}
	}
}

// Close flushes queued events to the sink and stops the worker. It is
// idempotent.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}

	d.stopOnce.Do(func() { close(d.stop) })

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.worker.Wait()
}

// Dropped returns how many events were discarded because the queue was full.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
