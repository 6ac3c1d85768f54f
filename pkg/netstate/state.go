package netstate

import "github.com/dmdmdm-nz/netlistend/internal/netmon"

// State is the coarse connectivity of the host.
type State bool

const (
	Unavailable State = false
	Available   State = true
)

func (s State) String() string {
	if s {
		return "AVAILABLE"
	}
	return "UNAVAILABLE"
}

// Aliases for the OS-facing capabilities so callers can supply their own
// implementations.
type (
	ChangeEvent = netmon.ChangeEvent
	Watcher     = netmon.Watcher
	Querier     = netmon.Querier
	QueryFunc   = netmon.QueryFunc
)
