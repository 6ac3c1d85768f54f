package netstate

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Listener is notified of connectivity transitions. Registrations are
// matched with ==, so implementations must be comparable; pointer types
// always are.
type Listener interface {
	OnNetworkAvailable()
	OnNetworkUnavailable()
}

// ListenerFuncs builds a Listener from plain functions. Either may be nil.
// Register it by pointer.
type ListenerFuncs struct {
	Available   func()
	Unavailable func()
}

func (f *ListenerFuncs) OnNetworkAvailable() {
	if f.Available != nil {
		f.Available()
	}
}

func (f *ListenerFuncs) OnNetworkUnavailable() {
	if f.Unavailable != nil {
		f.Unavailable()
	}
}

// registration is one entry of the registry with its own serial mailbox.
// Callbacks run outside every registry lock, and only one goroutine
// delivers to a registration at a time, so each listener sees states in the
// order they were queued.
type registration struct {
	listener Listener

	mu         sync.Mutex
	pending    []State
	delivering bool
	removed    bool
}

func (r *registration) push(state State) {
	r.mu.Lock()
	if !r.removed {
		r.pending = append(r.pending, state)
	}
	r.mu.Unlock()
}

func (r *registration) cancel() {
	r.mu.Lock()
	r.removed = true
	r.pending = nil
	r.mu.Unlock()
}

// drain delivers queued states unless another goroutine already is.
func (r *registration) drain() {
	r.mu.Lock()
	if r.delivering {
		r.mu.Unlock()
		return
	}
	r.delivering = true
	r.run()
}

// run must be entered with r.mu held and delivering set.
func (r *registration) run() {
	for len(r.pending) > 0 && !r.removed {
		state := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()

		notify(r.listener, state)

		r.mu.Lock()
	}
	r.delivering = false
	r.mu.Unlock()
}

func notify(l Listener, state State) {
	defer func() {
		if p := recover(); p != nil {
			log.WithFields(log.Fields{
				"listener": fmt.Sprintf("%T", l),
				"state":    state.String(),
				"panic":    p,
			}).Error("Listener panicked during notification")
		}
	}()

	if state == Available {
		l.OnNetworkAvailable()
	} else {
		l.OnNetworkUnavailable()
	}
}
