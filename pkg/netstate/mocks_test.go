package netstate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockWatcher is a test double for the Watcher interface
type mockWatcher struct {
	mu       sync.Mutex
	callback func(ChangeEvent)
	starts   int
	live     int
}

func newMockWatcher() *mockWatcher {
	return &mockWatcher{}
}

func (m *mockWatcher) Start(ctx context.Context, callback func(ChangeEvent)) error {
	m.mu.Lock()
	m.callback = callback
	m.starts++
	m.live++
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	m.live--
	m.mu.Unlock()
	return nil
}

// Callback returns the callback passed to the most recent Start.
func (m *mockWatcher) Callback() func(ChangeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callback
}

func (m *mockWatcher) SendEvent(reason string) {
	if cb := m.Callback(); cb != nil {
		cb(ChangeEvent{Reason: reason})
	}
}

func (m *mockWatcher) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

func (m *mockWatcher) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

func (m *mockWatcher) waitStarts(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return m.Starts() == n && m.Live() == 1 },
		time.Second, 5*time.Millisecond, "watcher never started")
}

// mockQuerier returns a settable answer and counts calls.
type mockQuerier struct {
	available atomic.Bool
	calls     atomic.Int32
}

func newMockQuerier(available bool) *mockQuerier {
	q := &mockQuerier{}
	q.available.Store(available)
	return q
}

func (q *mockQuerier) IsNetworkAvailable() bool {
	q.calls.Add(1)
	return q.available.Load()
}

func (q *mockQuerier) Set(available bool) {
	q.available.Store(available)
}

// callLog records callbacks from several listeners in global order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(entry string) {
	c.mu.Lock()
	c.calls = append(c.calls, entry)
	c.mu.Unlock()
}

func (c *callLog) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *callLog) Reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}

type recordingListener struct {
	name string
	log  *callLog
}

func (l *recordingListener) OnNetworkAvailable() {
	l.log.add(fmt.Sprintf("%s:available", l.name))
}

func (l *recordingListener) OnNetworkUnavailable() {
	l.log.add(fmt.Sprintf("%s:unavailable", l.name))
}

func newTestObserver(available bool, opts ...Option) (*Observer, *mockWatcher, *mockQuerier) {
	w := newMockWatcher()
	q := newMockQuerier(available)
	opts = append([]Option{WithWatcher(w), WithQuerier(q)}, opts...)
	return New(opts...), w, q
}
