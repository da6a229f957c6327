package session

import (
	"context"
	"log/slog"
	"time"
)

// StartSweeper calls s.Sweep every interval until ctx is cancelled. The returned function
// cancels the loop and waits for it to exit.
func StartSweeper(ctx context.Context, s Sweeper, maxAge, interval time.Duration, logger *slog.Logger) (stop func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.Sweep(ctx, maxAge)
				if err != nil && ctx.Err() == nil {
					logger.Warn("session sweep failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Debug("session sweep", "removed", n)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
