package netstate

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrAlreadyListening is returned by StartListening when the manager is
// already subscribed.
var ErrAlreadyListening = errors.New("already listening for connectivity changes")

// Manager keeps an ordered registry of listeners and fans every connectivity
// change out to all of them.
type Manager struct {
	obs *Observer

	mu        sync.Mutex
	regs      []*registration
	listening bool
}

func newManager(obs *Observer) *Manager {
	return &Manager{obs: obs}
}

// AddListener registers l and synchronously delivers the current state to
// it before any change-driven callback. Registering the same listener twice
// yields duplicate notifications.
func (m *Manager) AddListener(l Listener) {
	// The caller owns delivery until the initial state is out; a concurrent
	// event only queues behind it.
	r := &registration{listener: l, delivering: true}

	m.obs.dispatchMu.Lock()
	m.mu.Lock()
	m.regs = append(m.regs, r)
	count := len(m.regs)
	m.mu.Unlock()
	state := m.obs.Query()
	r.push(state)
	m.obs.dispatchMu.Unlock()

	log.WithFields(log.Fields{
		"state":     state.String(),
		"listeners": count,
	}).Debug("Listener added")

	r.mu.Lock()
	r.run()
}

// RemoveListener removes the first registration of l. It returns false and
// does nothing when l is not registered. Removal takes effect before the
// next dispatch; a callback already running is not interrupted.
func (m *Manager) RemoveListener(l Listener) bool {
	m.mu.Lock()
	for i, r := range m.regs {
		if r.listener != l {
			continue
		}
		m.regs = append(m.regs[:i], m.regs[i+1:]...)
		count := len(m.regs)
		m.mu.Unlock()

		r.cancel()
		log.WithField("listeners", count).Debug("Listener removed")
		return true
	}
	m.mu.Unlock()
	return false
}

// Len returns the number of registrations.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regs)
}

// StartListening subscribes to connectivity changes. Calling it again
// without StopListening logs a warning and returns ErrAlreadyListening.
func (m *Manager) StartListening() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listening {
		log.Warn("StartListening called while already listening")
		return ErrAlreadyListening
	}
	m.listening = true
	m.obs.acquire("manager")
	return nil
}

// StopListening unsubscribes. It is a no-op when not listening.
func (m *Manager) StopListening() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.listening {
		return
	}
	m.listening = false
	m.obs.release("manager")
}

// Listening reports whether the manager is subscribed.
func (m *Manager) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listening
}

// enqueue queues state for every registration in registry order. It runs
// under the observer's dispatch lock.
func (m *Manager) enqueue(state State) []*registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.listening {
		return nil
	}
	regs := make([]*registration, len(m.regs))
	copy(regs, m.regs)
	for _, r := range regs {
		r.push(state)
	}
	return regs
}

func (m *Manager) deliver(regs []*registration) {
	for _, r := range regs {
		r.drain()
	}
}
