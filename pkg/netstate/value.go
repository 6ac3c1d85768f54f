package netstate

import (
	"sync"

	"github.com/dmdmdm-nz/netlistend/internal/runtime"
)

const observerBuffer = 8

// Value is a reactive cell holding the latest known connectivity state.
//
// It holds the shared OS subscription only while it has at least one
// observer. Activation does not query: unless the Observer was built with
// WithInitialEmission, the first value appears once a change event has been
// processed. An observer attaching to a cell that already holds a value
// receives that value first. The cell keeps its value across deactivation,
// so a replayed value may predate the current activation.
type Value struct {
	obs *Observer

	mu     sync.Mutex
	state  State
	set    bool
	subs   map[int]*runtime.SubQueue[State]
	nextID int
}

func newValue(obs *Observer) *Value {
	return &Value{
		obs:  obs,
		subs: make(map[int]*runtime.SubQueue[State]),
	}
}

// Get returns the latest published state and whether one has been
// published yet.
func (v *Value) Get() (State, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.set
}

// Observers returns the number of attached observers.
func (v *Value) Observers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// Observe attaches an observer. Values arrive on the channel in publish
// order, starting with the value the cell already holds, if any. The
// returned func detaches the observer and closes the channel; it is safe to
// call more than once.
func (v *Value) Observe() (<-chan State, func()) {
	return v.observe(true)
}

// ObserveChanges attaches an observer like Observe but only delivers values
// published after the call, never the value the cell already holds.
func (v *Value) ObserveChanges() (<-chan State, func()) {
	return v.observe(false)
}

func (v *Value) observe(replay bool) (<-chan State, func()) {
	sub := runtime.NewSubQueue[State](observerBuffer)

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = sub
	if replay && v.set {
		sub.Enqueue(v.state)
	}
	sub.SetPaused(false)
	first := len(v.subs) == 1
	if first {
		v.obs.acquire("value")
	}
	v.mu.Unlock()

	if first && v.obs.initialEmission {
		v.refresh()
	}

	unsub := func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		q, ok := v.subs[id]
		if !ok {
			return
		}
		delete(v.subs, id)
		q.Close()
		if len(v.subs) == 0 {
			v.obs.release("value")
		}
	}
	return sub.Chan(), unsub
}

// refresh queries and publishes outside of any change event.
func (v *Value) refresh() {
	v.obs.dispatchMu.Lock()
	defer v.obs.dispatchMu.Unlock()
	v.publish(v.obs.Query())
}

func (v *Value) publish(state State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
	v.set = true
	for _, sub := range v.subs {
		sub.Enqueue(state)
	}
}

func (v *Value) closeAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.subs) == 0 {
		return
	}
	for id, sub := range v.subs {
		sub.Close()
		delete(v.subs, id)
	}
	v.obs.release("value")
}
