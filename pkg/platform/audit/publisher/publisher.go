// Package publisher delivers audit events to a store, synchronously by
// default or through a bounded async buffer when latency matters more than
// delivery guarantees.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	id "collabgate/pkg/domain"
	audit "collabgate/pkg/platform/audit"
)

// Store is the persistence contract the publisher writes to.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
	ListByActor(ctx context.Context, actor id.Username) ([]audit.Event, error)
}

// Publisher emits audit events. Zero value is not usable; construct with
// NewPublisher.
type Publisher struct {
	store Store

	buffer  chan audit.Event
	done    chan struct{}
	wg      sync.WaitGroup
	closing sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission through a buffer of the given
// size. When the buffer is full, events are dropped rather than blocking the
// request path.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, size)
	}
}

// NewPublisher creates a publisher writing to store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event, stamping the current time when unset. In async mode
// a full buffer drops the event and reports an error; audit loss is preferred
// over blocking the decision path.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("audit buffer full")
	}
}

// List returns the actor's events from the underlying store.
func (p *Publisher) List(ctx context.Context, actor id.Username) ([]audit.Event, error) {
	return p.store.ListByActor(ctx, actor)
}

// Close drains any buffered events and stops the background worker.
func (p *Publisher) Close() {
	p.closing.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
		close(p.done)
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		// Best effort: a failed append is not retried.
		_ = p.store.Append(context.Background(), event)
	}
}
