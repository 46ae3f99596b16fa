package messaging

import (
	"context"
	"errors"
)

// Vendor represents the name of a messaging vendor
type Vendor string

// VendorMemory is the in-process queue vendor
const VendorMemory Vendor = "memory"

// ErrQueueFull is returned by TryPublish when the queue has no free capacity
var ErrQueueFull = errors.New("messaging: queue full")

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue, waiting for
	// capacity until ctx is done
	Publish(ctx context.Context, t *T) error

	// Consume retrieves a single message from the queue
	Consume(ctx context.Context) (Message[T], error)
}

// TryPublisher is implemented by queues that can reject a message instead of
// waiting for capacity
type TryPublisher[T any] interface {
	TryPublish(t *T) error
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}

// DeadLetterCounter is implemented by queues keeping messages that exhausted
// their retries
type DeadLetterCounter interface {
	DLQSize() int
}
