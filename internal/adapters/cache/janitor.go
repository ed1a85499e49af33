package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type cleaner interface {
	Cleanup(ctx context.Context) error
}

// janitor runs Cleanup on a fixed interval until stopped
type janitor struct {
	stopCh chan struct{}
	done   chan struct{}
	once   sync.Once
}

// startJanitor starts the cleanup loop. A non-positive interval disables it.
func startJanitor(c cleaner, logger *zap.Logger, interval time.Duration) *janitor {
	j := &janitor{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	if interval <= 0 {
		close(j.done)
		return j
	}

	go func() {
		defer close(j.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := c.Cleanup(context.Background()); err != nil {
					logger.Error("Failed to clean up cache", zap.Error(err))
				}
			case <-j.stopCh:
				return
			}
		}
	}()
	return j
}

// stop ends the loop and waits for it to exit; safe to call twice
func (j *janitor) stop() {
	j.once.Do(func() { close(j.stopCh) })
	<-j.done
}
