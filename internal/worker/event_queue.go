package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/realty-service/internal/events"
)

const (
	DefaultQueueSize = 1024
	DefaultWorkers   = 2
)

type job struct {
	ctx     context.Context
	event   events.Event
	handler events.EventHandler
}

// QueuedDispatcher wraps a Dispatcher so that handlers subscribed through it
// run on background workers. Publish stays synchronous up to the enqueue; a
// full queue drops the event with a warning.
type QueuedDispatcher struct {
	inner  events.Dispatcher
	jobs   chan job
	logger *zap.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQueuedDispatcher starts workers goroutines draining a queue of size.
func NewQueuedDispatcher(inner events.Dispatcher, size, workers int, logger *zap.Logger) *QueuedDispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &QueuedDispatcher{
		inner:  inner,
		jobs:   make(chan job, size),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

// Publish forwards to the wrapped dispatcher.
func (q *QueuedDispatcher) Publish(ctx context.Context, event events.Event) error {
	return q.inner.Publish(ctx, event)
}

// Subscribe registers handler to run asynchronously for eventType.
func (q *QueuedDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	q.inner.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		q.enqueue(job{ctx: context.WithoutCancel(ctx), event: event, handler: handler})
		return nil
	})
}

func (q *QueuedDispatcher) enqueue(j job) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("event dropped after shutdown", zap.String("event_type", string(j.event.Type)))
		return
	}
	select {
	case q.jobs <- j:
	default:
		q.logger.Warn("event queue full; dropping event",
			zap.String("event_type", string(j.event.Type)),
			zap.String("event_id", j.event.ID))
	}
}

func (q *QueuedDispatcher) run() {
	defer q.wg.Done()
	for j := range q.jobs {
		if err := j.handler(j.ctx, j.event); err != nil {
			q.logger.Warn("async event handler failed",
				zap.String("event_type", string(j.event.Type)),
				zap.String("event_id", j.event.ID),
				zap.Error(err))
		}
	}
}

// Close stops accepting events and waits for queued ones until ctx expires.
func (q *QueuedDispatcher) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
