package workers

import (
	"context"
	"time"

	"contentpay_backend/internal/logger"
)

// runEvery calls fn every interval until ctx is cancelled. The first call
// happens after one interval.
func runEvery(ctx context.Context, worker string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped", "worker", worker)
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.WorkerLog(worker, "run", err)
			}
		}
	}
}
