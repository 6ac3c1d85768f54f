package netmon

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type pollWatcher struct {
	interval time.Duration
	querier  Querier
}

// NewPollWatcher creates a watcher that queries connectivity every interval
// and reports a change whenever the answer differs from the previous one.
func NewPollWatcher(interval time.Duration, querier Querier) Watcher {
	return &pollWatcher{
		interval: interval,
		querier:  querier,
	}
}

func (w *pollWatcher) Start(ctx context.Context, callback func(ChangeEvent)) error {
	log.WithField("interval", w.interval).Info("Starting connectivity polling")

	last := w.querier.IsNetworkAvailable()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Stopping connectivity polling")
			return nil
		case <-ticker.C:
			current := w.querier.IsNetworkAvailable()
			if current == last {
				log.WithField("available", current).Trace("Connectivity unchanged")
				continue
			}
			last = current
			callback(ChangeEvent{Reason: ReasonPoll})
		}
	}
}
