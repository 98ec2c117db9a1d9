package catalog

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper periodically removes expired time-limited listings from the
// visible catalog. Placed orders are immutable to the sweep.
type Sweeper struct {
	repo     Repository
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewSweeper(repo Repository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		repo:     repo,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background sweep loop. Call Stop to shut it down.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Stop terminates the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := s.repo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[sweep] delete expired listings: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[sweep] removed %d expired listing(s)", n)
	}
}
