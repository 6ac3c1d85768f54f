package runtime

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

type worker struct {
	name   string
	run    func(context.Context) error
	closeF func() error
}

// Supervisor runs named workers until the context is cancelled or one of
// them fails, then closes them in reverse registration order.
type Supervisor struct {
	mu      sync.Mutex
	workers []worker
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
	failed  chan struct{}
	cancel  context.CancelFunc
}

func NewSupervisor() *Supervisor {
	return &Supervisor{
		failed: make(chan struct{}),
	}
}

func (s *Supervisor) Add(name string, run func(context.Context) error, closeF func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker{name: name, run: run, closeF: closeF})
}

// Start launches every worker with a context that is cancelled when ctx is
// done or when any worker fails.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, s.cancel = context.WithCancel(ctx)
	for _, w := range s.workers {
		w := w
		s.wg.Add(1)
		log.WithField("worker", w.name).Debug("Starting worker")
		go func() {
			defer s.wg.Done()
			if err := w.run(ctx); err != nil {
				log.WithField("worker", w.name).WithError(err).Error("Worker failed")
				s.errOnce.Do(func() {
					s.err = err
					close(s.failed)
				})
				return
			}
			log.WithField("worker", w.name).Debug("Worker exited")
		}()
	}
	return nil
}

// Wait blocks until ctx is done or a worker returns an error, closes every
// worker and returns the first error.
func (s *Supervisor) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-s.failed:
	}

	s.mu.Lock()
	workers := append([]worker(nil), s.workers...)
	cancel := s.cancel
	s.mu.Unlock()

	// Close in reverse order.
	for i := len(workers) - 1; i >= 0; i-- {
		if workers[i].closeF == nil {
			continue
		}
		if err := workers[i].closeF(); err != nil {
			log.WithField("worker", workers[i].name).WithError(err).Warn("Failed to close worker")
		}
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	return s.err
}
