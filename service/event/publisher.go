package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/viant/procsched/service/messaging"
)

type Publisher[T any] struct {
	queue messaging.Queue[Event[T]]
	// dropUnobserved discards events while no listener is attached
	dropUnobserved bool
	listeners      atomic.Int32
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{
		queue: queue,
	}
}

// Observed reports whether at least one listener consumes this publisher
func (p *Publisher[T]) Observed() bool {
	return p.listeners.Load() > 0
}

// Publish delivers the event; queues supporting TryPublish never block the
// caller and report messaging.ErrQueueFull instead.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if p.dropUnobserved && !p.Observed() {
		return nil
	}
	event.CreatedAt = time.Now()
	if tp, ok := p.queue.(messaging.TryPublisher[Event[T]]); ok {
		return tp.TryPublish(event)
	}
	return p.queue.Publish(ctx, event)
}

// Consume returns the next event, acknowledging it
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}

// DeadLetters returns the number of events the queue gave up on
func (p *Publisher[T]) DeadLetters() int {
	if counter, ok := p.queue.(messaging.DeadLetterCounter); ok {
		return counter.DLQSize()
	}
	return 0
}
