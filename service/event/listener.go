package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
	done      sync.WaitGroup
	stopOnce  sync.Once
	logger    *slog.Logger
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		logger:    slog.Default(),
	}
}

// Stop cancels the consume loop and waits for it to exit
func (l *Listener[T]) Stop() {
	l.stopOnce.Do(func() {
		l.cancel()
		l.done.Wait()
		l.publisher.listeners.Add(-1)
	})
}

// Start consumes events until Stop. A message is acknowledged once the
// handler returns; a panicking handler nacks it for redelivery.
func (l *Listener[T]) Start() {
	l.publisher.listeners.Add(1)
	l.done.Add(1)
	go func() {
		defer l.done.Done()
		for {
			msg, err := l.publisher.queue.Consume(l.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				l.logger.Warn("failed to consume event", "error", err)
				continue
			}
			if msg == nil {
				continue
			}
			if err = l.handle(msg.T()); err != nil {
				l.logger.Warn("event handler failed", "error", err)
				if nErr := msg.Nack(err); nErr != nil {
					l.logger.Warn("failed to nack event", "error", nErr)
				}
				continue
			}
			if err = msg.Ack(); err != nil {
				l.logger.Warn("failed to ack event", "error", err)
			}
		}
	}()
}

func (l *Listener[T]) handle(event *Event[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	l.handler(event)
	return nil
}
