package events

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"contentpay_backend/internal/logger"
)

// Listener reacts to published events.
type Listener interface {
	Name() string
	Handle(ctx context.Context, event Event) error
}

// Publisher hands events to listeners without blocking the caller.
type Publisher interface {
	// Publish reports whether the event was queued.
	Publish(ctx context.Context, event Event) bool
}

type envelope struct {
	ctx   context.Context
	event Event
}

// AsyncPublisher is a bounded queue drained by a fixed pool of workers.
// A full queue drops the event.
type AsyncPublisher struct {
	listeners []Listener
	queue     chan envelope
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewAsyncPublisher(workers, queueSize int, listeners ...Listener) *AsyncPublisher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	p := &AsyncPublisher{
		listeners: listeners,
		queue:     make(chan envelope, queueSize),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *AsyncPublisher) Publish(ctx context.Context, event Event) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		logger.CtxWarn(ctx, "event dropped: publisher closed", "event", event.EventName())
		return false
	}

	select {
	case p.queue <- envelope{ctx: context.WithoutCancel(ctx), event: event}:
		return true
	default:
		logger.CtxWarn(ctx, "event dropped: queue full", "event", event.EventName(), "capacity", cap(p.queue))
		return false
	}
}

// Close stops accepting events and waits for queued ones to be handled or
// for ctx to expire.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("events: close: %w", ctx.Err())
	}
}

func (p *AsyncPublisher) work() {
	defer p.wg.Done()
	for env := range p.queue {
		for _, l := range p.listeners {
			deliver(env, l)
		}
	}
}

// deliver runs one listener, logging its error or panic.
func deliver(env envelope, l Listener) {
	defer func() {
		if r := recover(); r != nil {
			logger.CtxError(env.ctx, "event listener panicked",
				"listener", l.Name(), "event", env.event.EventName(), "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if err := l.Handle(env.ctx, env.event); err != nil {
		logger.CtxWithError(env.ctx, "event listener failed", err, "listener", l.Name(), "event", env.event.EventName())
	}
}

// SyncPublisher delivers on the caller's goroutine. Used by the CLI where
// there is no long-lived process to drain a queue.
type SyncPublisher struct {
	listeners []Listener
}

func NewSyncPublisher(listeners ...Listener) *SyncPublisher {
	return &SyncPublisher{listeners: listeners}
}

func (p *SyncPublisher) Publish(ctx context.Context, event Event) bool {
	env := envelope{ctx: ctx, event: event}
	for _, l := range p.listeners {
		deliver(env, l)
	}
	return true
}
