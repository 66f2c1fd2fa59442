package observability

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// publishTimeout bounds a single backend call made by the async worker.
const publishTimeout = 2 * time.Second

// Async makes a Publisher fire-and-forget. Publish enqueues onto a bounded
// buffer and returns immediately; a single worker drains the buffer in order.
// When the buffer is full the event is dropped and counted.
type Async struct {
	inner  Publisher
	logger *log.Logger
	queue  chan Event
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewAsync starts a worker publishing through inner.
func NewAsync(inner Publisher, buffer int, logger *log.Logger) *Async {
	if logger == nil {
		logger = log.Default()
	}
	a := &Async{
		inner:  inner,
		logger: logger,
		queue:  make(chan Event, max(buffer, 1)),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish enqueues e without waiting for delivery. It never returns an error.
func (a *Async) Publish(_ context.Context, e Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	select {
	case a.queue <- e:
	default:
		a.dropped++
	}
	return nil
}

// Dropped returns how many events were discarded because the buffer was full.
func (a *Async) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close stops accepting events and waits for queued ones to drain or ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := a.inner.Publish(ctx, e); err != nil {
			a.logger.Warn("telemetry publish failed", "kind", e.Kind, "err", err)
		}
		cancel()
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
