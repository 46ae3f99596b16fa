package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/procsched/service/messaging"
)

type lifecycleNote struct {
	PID   int
	Event string
}

func TestQueue_PublishConsumeAck(t *testing.T) {
	queue := NewQueue[lifecycleNote](DefaultConfig())
	ctx := context.Background()

	require.NoError(t, queue.Publish(ctx, &lifecycleNote{PID: 1, Event: "created"}))
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, message.T().PID)
	assert.Equal(t, "created", message.T().Event)

	assert.NoError(t, message.Ack())
	assert.Error(t, message.Ack(), "double ack")
}

func TestQueue_TryPublishFull(t *testing.T) {
	config := DefaultConfig()
	config.QueueBuffer = 2
	queue := NewQueue[lifecycleNote](config)

	require.NoError(t, queue.TryPublish(&lifecycleNote{PID: 1}))
	require.NoError(t, queue.TryPublish(&lifecycleNote{PID: 2}))
	err := queue.TryPublish(&lifecycleNote{PID: 3})
	assert.True(t, errors.Is(err, messaging.ErrQueueFull))
	assert.Equal(t, 2, queue.Size())
}

func TestQueue_NackRetriesThenDeadLetter(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 1
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[lifecycleNote](config)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, queue.Publish(ctx, &lifecycleNote{PID: 7}))

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, message.Nack(fmt.Errorf("listener busy")))

	retried, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, retried.T().PID)
	require.NoError(t, retried.Nack(nil))

	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueue_Concurrency(t *testing.T) {
	queue := NewQueue[lifecycleNote](DefaultConfig())
	ctx := context.Background()
	producers, perProducer := 8, 16

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Publish(ctx, &lifecycleNote{PID: id*100 + j}))
			}
		}(i)
	}

	consumed := make(chan int, producers*perProducer)
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				message, err := queue.Consume(ctx)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, message.Ack())
				consumed <- message.T().PID
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	assert.Len(t, consumed, producers*perProducer)
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ContextCancellation(t *testing.T) {
	queue := NewQueue[lifecycleNote](DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, queue.Publish(ctx, &lifecycleNote{PID: 1}))

	timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimeout()
	_, err := queue.Consume(timeoutCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, queue.Publish(context.Background(), &lifecycleNote{PID: 2}))
	message, err := queue.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, message.T().PID)
}
