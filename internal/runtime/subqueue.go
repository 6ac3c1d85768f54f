package runtime

import (
	"sync"
)

// SubQueue delivers values to a single subscriber in the order they were
// enqueued. Producers never block on a slow consumer: values wait in an
// unbounded in-memory queue until the dispatcher hands them to the channel.
type SubQueue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	done   chan struct{}

	outCh  chan T // consumer reads from this
	paused bool   // gate dispatch until the first value is queued
}

func NewSubQueue[T any](outBuf int) *SubQueue[T] {
	sq := &SubQueue[T]{
		outCh:  make(chan T, outBuf),
		done:   make(chan struct{}),
		paused: true,
	}
	sq.cond = sync.NewCond(&sq.mu)
	go sq.dispatch()
	return sq
}

// Channel exposed to subscriber.
func (sq *SubQueue[T]) Chan() <-chan T { return sq.outCh }

// Enqueue appends to the in-memory queue and wakes dispatcher.
func (sq *SubQueue[T]) Enqueue(ev T) {
	sq.mu.Lock()
	if !sq.closed {
		sq.queue = append(sq.queue, ev)
		sq.cond.Signal()
	}
	sq.mu.Unlock()
}

// Pause/Resume gates dispatching.
func (sq *SubQueue[T]) SetPaused(v bool) {
	sq.mu.Lock()
	sq.paused = v
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

// Close stops the dispatcher and closes the out channel. Values still queued
// are dropped. Safe to call more than once.
func (sq *SubQueue[T]) Close() {
	sq.mu.Lock()
	if !sq.closed {
		sq.closed = true
		sq.queue = nil
		close(sq.done)
		sq.cond.Broadcast()
	}
	sq.mu.Unlock()
}

func (sq *SubQueue[T]) dispatch() {
	defer close(sq.outCh)
	for {
		sq.mu.Lock()
		for !sq.closed && (sq.paused || len(sq.queue) == 0) {
			sq.cond.Wait()
		}
		if sq.closed {
			sq.mu.Unlock()
			return
		}
		ev := sq.queue[0]
		// pop
		var zero T
		sq.queue[0] = zero
		sq.queue = sq.queue[1:]
		sq.mu.Unlock()

		// A consumer that stopped reading must not pin the dispatcher after Close.
		select {
		case sq.outCh <- ev:
		case <-sq.done:
			return
		}
	}
}
