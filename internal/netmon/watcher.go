package netmon

import "context"

// Watcher reports network configuration changes using platform-specific
// event mechanisms (netlink on Linux, route sockets on macOS, polling
// elsewhere).
type Watcher interface {
	// Start begins watching for changes.
	// Calls callback for each detected change, in delivery order, from a
	// single goroutine.
	// Blocks until ctx is cancelled or an error occurs.
	Start(ctx context.Context, callback func(ChangeEvent)) error
}
