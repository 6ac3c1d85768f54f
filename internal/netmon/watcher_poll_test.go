package netmon

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollWatcher_EmitsOnChangeOnly(t *testing.T) {
	var available atomic.Bool
	available.Store(true)

	w := NewPollWatcher(10*time.Millisecond, QueryFunc(available.Load))

	var mu sync.Mutex
	var events []ChangeEvent

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx, func(ev ChangeEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		})
	}()

	// Several ticks with an unchanged answer produce nothing.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, events)
	mu.Unlock()

	available.Store(false)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []ChangeEvent{{Reason: ReasonPoll}}, events)
	mu.Unlock()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for Start to return")
	}
}
