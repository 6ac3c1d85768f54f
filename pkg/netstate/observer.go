package netstate

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netlistend/internal/netmon"
)

// Option configures an Observer.
type Option func(*Observer)

// WithWatcher replaces the OS change-event source.
func WithWatcher(w Watcher) Option {
	return func(o *Observer) { o.watcher = w }
}

// WithQuerier replaces the OS connectivity query.
func WithQuerier(q Querier) Option {
	return func(o *Observer) { o.querier = q }
}

// WithInitialEmission makes the value cell query and publish the current
// state as soon as it gains its first observer, instead of waiting for the
// first change event.
func WithInitialEmission() Option {
	return func(o *Observer) { o.initialEmission = true }
}

// Observer owns the single OS subscription shared by its two front ends: the
// reactive Value and the listener Manager.
//
// The subscription is active while at least one front end needs it. Each
// change event is handled by querying connectivity once and handing the
// result to both front ends.
type Observer struct {
	watcher         Watcher
	querier         Querier
	initialEmission bool

	mu     sync.Mutex
	demand int
	active bool
	gen    uint64
	cancel context.CancelFunc

	// dispatchMu orders event handling and initial deliveries.
	dispatchMu sync.Mutex

	value   *Value
	manager *Manager
}

func New(opts ...Option) *Observer {
	o := &Observer{}
	for _, opt := range opts {
		opt(o)
	}
	if o.querier == nil {
		o.querier = netmon.NewQuerier()
	}
	if o.watcher == nil {
		o.watcher = netmon.NewWatcher()
	}
	o.value = newValue(o)
	o.manager = newManager(o)
	return o
}

// Value returns the reactive value front end.
func (o *Observer) Value() *Value { return o.value }

// Manager returns the listener registry front end.
func (o *Observer) Manager() *Manager { return o.manager }

// Query performs a fresh connectivity query.
func (o *Observer) Query() State {
	return State(o.querier.IsNetworkAvailable())
}

// Active reports whether the OS subscription is currently held.
func (o *Observer) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Close detaches every value observer and stops listening.
func (o *Observer) Close() error {
	o.value.closeAll()
	o.manager.StopListening()
	return nil
}

func (o *Observer) acquire(owner string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.demand++
	if o.demand == 1 {
		o.activateLocked(owner)
	}
}

func (o *Observer) release(owner string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.demand == 0 {
		log.WithField("owner", owner).Warn("Release without a matching acquire ignored")
		return
	}
	o.demand--
	if o.demand == 0 {
		o.deactivateLocked(owner)
	}
}

func (o *Observer) activateLocked(owner string) {
	ctx, cancel := context.WithCancel(context.Background())
	o.gen++
	gen := o.gen
	o.cancel = cancel
	o.active = true

	log.WithFields(log.Fields{
		"owner":      owner,
		"generation": gen,
	}).Debug("Subscribing to connectivity changes")

	go func() {
		err := o.watcher.Start(ctx, func(ev ChangeEvent) {
			o.handleEvent(gen, ev)
		})
		if err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("generation", gen).Error("Connectivity watcher stopped")
		}
	}()
}

func (o *Observer) deactivateLocked(owner string) {
	log.WithFields(log.Fields{
		"owner":      owner,
		"generation": o.gen,
	}).Debug("Unsubscribing from connectivity changes")

	o.cancel()
	o.cancel = nil
	o.active = false
}

func (o *Observer) current(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active && o.gen == gen
}

func (o *Observer) handleEvent(gen uint64, ev ChangeEvent) {
	o.dispatchMu.Lock()

	// A cancelled subscription may still deliver a late event.
	if !o.current(gen) {
		o.dispatchMu.Unlock()
		log.WithFields(log.Fields{
			"reason":     ev.Reason,
			"generation": gen,
		}).Trace("Dropping event from inactive subscription")
		return
	}

	state := o.Query()
	log.WithFields(log.Fields{
		"reason": ev.Reason,
		"state":  state.String(),
	}).Debug("Connectivity change event")

	o.value.publish(state)
	pending := o.manager.enqueue(state)
	o.dispatchMu.Unlock()

	o.manager.deliver(pending)
}
