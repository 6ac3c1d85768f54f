package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, sq *SubQueue[T]) T {
	t.Helper()
	select {
	case v, ok := <-sq.Chan():
		require.True(t, ok, "channel closed unexpectedly")
		return v
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for value")
	}
	var zero T
	return zero
}

func assertNothing[T any](t *testing.T, sq *SubQueue[T]) {
	t.Helper()
	select {
	case v := <-sq.Chan():
		t.Fatalf("unexpected value: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubQueue_StartsPaused(t *testing.T) {
	sq := NewSubQueue[bool](4)
	defer sq.Close()

	sq.Enqueue(true)
	assertNothing(t, sq)

	sq.SetPaused(false)
	assert.True(t, receive(t, sq))
}

func TestSubQueue_PreservesOrder(t *testing.T) {
	sq := NewSubQueue[int](1)
	defer sq.Close()
	sq.SetPaused(false)

	// More values than the channel buffer; the queue absorbs the rest.
	for i := 0; i < 20; i++ {
		sq.Enqueue(i)
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, i, receive(t, sq))
	}
}

func TestSubQueue_PauseAndResume(t *testing.T) {
	sq := NewSubQueue[string](4)
	defer sq.Close()
	sq.SetPaused(false)

	sq.Enqueue("available")
	assert.Equal(t, "available", receive(t, sq))

	sq.SetPaused(true)
	sq.Enqueue("unavailable")
	assertNothing(t, sq)

	sq.SetPaused(false)
	assert.Equal(t, "unavailable", receive(t, sq))
}

func TestSubQueue_CloseClosesChannel(t *testing.T) {
	sq := NewSubQueue[int](4)
	sq.Enqueue(1)
	sq.Enqueue(2)

	// Closing while paused drops what is queued.
	sq.Close()

	select {
	case _, ok := <-sq.Chan():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestSubQueue_CloseWithBlockedConsumer(t *testing.T) {
	sq := NewSubQueue[int](0)
	sq.SetPaused(false)
	sq.Enqueue(1)

	// Nobody reads; the dispatcher is parked on the send.
	time.Sleep(20 * time.Millisecond)
	sq.Close()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-sq.Chan():
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestSubQueue_EnqueueAndCloseAfterClose(t *testing.T) {
	sq := NewSubQueue[int](4)
	sq.Close()

	require.NotPanics(t, func() {
		sq.Enqueue(42)
		sq.Close()
	})
}

func TestSubQueue_ConcurrentEnqueue(t *testing.T) {
	sq := NewSubQueue[int](8)
	defer sq.Close()
	sq.SetPaused(false)

	const producers, perProducer = 8, 25

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				sq.Enqueue(id*1000 + i)
			}
		}(p)
	}

	last := make(map[int]int)
	for i := 0; i < producers*perProducer; i++ {
		v := receive(t, sq)
		id, seq := v/1000, v%1000
		if prev, ok := last[id]; ok {
			assert.Greater(t, seq, prev, "per-producer order must be preserved")
		}
		last[id] = seq
	}
	wg.Wait()
	assert.Len(t, last, producers)
}
