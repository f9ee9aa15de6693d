package requestlog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/modelkeeper/internal/logging"
)

const maxBatch = 64

// Dispatcher queues entries for a single background writer.
type Dispatcher struct {
	sink   Sink
	logger logging.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Entry
	done   chan struct{}

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewDispatcher starts the worker. queueSize below 1 is treated as 1.
func NewDispatcher(sink Sink, queueSize int, logger logging.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		sink:   sink,
		logger: logger.With("module", "requestlog"),
		queue:  make(chan Entry, queueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Record enqueues e without blocking. It reports false when e was dropped
// because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Record(e Entry) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return false
	}
	select {
	case d.queue <- e:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Dropped is the number of entries discarded so far.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Failed is the number of entries whose sink write returned an error.
func (d *Dispatcher) Failed() uint64 {
	return d.failed.Load()
}

// Close stops accepting entries, waits for the queue to drain and closes the
// sink. If ctx ends first, the remaining entries are abandoned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return d.sink.Close(ctx)
}

func (d *Dispatcher) run() {
	defer close(d.done)

	batch := make([]Entry, 0, maxBatch)
	for e := range d.queue {
		batch = append(batch[:0], e)
	fill:
		for len(batch) < maxBatch {
			select {
			case next, ok := <-d.queue:
				if !ok {
					break fill
				}
				batch = append(batch, next)
			default:
				break fill
			}
		}
		d.write(batch)
	}
}

func (d *Dispatcher) write(batch []Entry) {
	ctx := context.Background()
	if err := d.sink.Write(ctx, batch); err != nil {
		d.failed.Add(uint64(len(batch)))
		d.logger.Debug(ctx, "request log write failed", "error", err, "entries", len(batch))
	}
}
