//go:build !linux && !darwin

package netmon

import "time"

const defaultPollInterval = 5 * time.Second

// NewWatcher falls back to polling on platforms without a native change
// notification source.
func NewWatcher() Watcher {
	return NewPollWatcher(defaultPollInterval, NewQuerier())
}

func NewQuerier() Querier {
	return newInterfaceQuerier()
}
