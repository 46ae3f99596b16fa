package event

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/procsched/service/messaging"
	"github.com/viant/procsched/service/messaging/memory"
)

type payload struct {
	PID int
}

func TestPublisherOf(t *testing.T) {
	srv, err := New(messaging.VendorMemory)
	require.NoError(t, err)
	defer srv.Shutdown()

	publisher, err := PublisherOf[payload](srv)
	require.NoError(t, err)
	again, err := PublisherOf[payload](srv)
	require.NoError(t, err)
	assert.Same(t, publisher, again)

	pointer, err := PublisherOf[*payload](srv)
	require.NoError(t, err)
	assert.NotNil(t, pointer)
	require.NoError(t, SetListenerOf[*payload](srv, func(*Event[*payload]) {}))
	require.NoError(t, SetListenerOf[payload](srv, func(*Event[payload]) {}))
	srv.Shutdown()

	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{PID: 7, EventType: TypeCreated}, payload{PID: 7})))
	actual, err := publisher.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, actual.Data.PID)
	assert.Equal(t, TypeCreated, actual.Context.EventType)
	assert.False(t, actual.CreatedAt.IsZero())
}

func TestSetListenerOf(t *testing.T) {
	srv, err := New(messaging.VendorMemory)
	require.NoError(t, err)
	defer srv.Shutdown()

	received := make(chan *Event[payload], 4)
	require.NoError(t, SetListenerOf[payload](srv, func(e *Event[payload]) {
		received <- e
	}))

	publisher, err := PublisherOf[payload](srv)
	require.NoError(t, err)
	assert.True(t, publisher.Observed())
	require.NoError(t, publisher.Publish(context.Background(), NewEvent(&Context{PID: 3, EventType: TypeReaped}, payload{PID: 3})))

	select {
	case e := <-received:
		assert.Equal(t, 3, e.Data.PID)
		assert.Equal(t, TypeReaped, e.Context.EventType)
	case <-time.After(time.Second):
		t.Fatal("listener did not receive the event")
	}

	srv.Shutdown()
	assert.False(t, publisher.Observed())
}

func TestListener_PanicDeadLetters(t *testing.T) {
	srv, err := New(messaging.VendorMemory, WithNewMemoryQueueConfig(func(string) memory.Config {
		config := memory.DefaultConfig()
		config.MaxRetries = 1
		config.RetryDelay = time.Millisecond
		return config
	}))
	require.NoError(t, err)
	defer srv.Shutdown()

	var calls atomic.Int32
	require.NoError(t, SetListenerOf[payload](srv, func(e *Event[payload]) {
		calls.Add(1)
		panic("handler failure")
	}))
	publisher, err := PublisherOf[payload](srv)
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), NewEvent(&Context{PID: 5}, payload{PID: 5})))

	require.Eventually(t, func() bool { return srv.DeadLetters() == 1 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 2, calls.Load(), "first delivery plus one retry")
}

func TestPublisher_DropUnobserved(t *testing.T) {
	srv, err := New(messaging.VendorMemory, WithDropUnobserved(true), WithNewMemoryQueueConfig(func(string) memory.Config {
		config := memory.DefaultConfig()
		config.QueueBuffer = 1
		return config
	}))
	require.NoError(t, err)
	defer srv.Shutdown()
	publisher, err := PublisherOf[payload](srv)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		assert.NoError(t, publisher.Publish(ctx, NewEvent(&Context{PID: i}, payload{PID: i})))
	}

	received := make(chan int, 4)
	require.NoError(t, SetListenerOf[payload](srv, func(e *Event[payload]) {
		received <- e.Data.PID
	}))
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{PID: 9}, payload{PID: 9})))
	select {
	case pid := <-received:
		assert.Equal(t, 9, pid, "events published before the listener are dropped")
	case <-time.After(time.Second):
		t.Fatal("listener did not receive the event")
	}
}

func TestPublisher_QueueFull(t *testing.T) {
	srv, err := New(messaging.VendorMemory, WithNewMemoryQueueConfig(func(string) memory.Config {
		config := memory.DefaultConfig()
		config.QueueBuffer = 1
		return config
	}))
	require.NoError(t, err)
	publisher, err := PublisherOf[payload](srv)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{PID: 1}, payload{PID: 1})))
	assert.Error(t, publisher.Publish(ctx, NewEvent(&Context{PID: 2}, payload{PID: 2})), "publishing never blocks")
}

func TestNew_UnsupportedVendor(t *testing.T) {
	_, err := New(messaging.Vendor("kafka"))
	assert.Error(t, err)
}
