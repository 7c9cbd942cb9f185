package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cleaner is anything that can purge its own expired records
type Cleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

// StartCleanup periodically purges expired sessions and verification tokens
// until ctx is cancelled. A non-positive interval disables it.
func StartCleanup(ctx context.Context, t time.Duration, cleaners map[string]Cleaner) {
	if t <= 0 {
		zap.L().Debug("Cleanup disabled")
		return
	}

	ticker := time.NewTicker(t)

	zap.L().Debug("Cleanup attached", zap.Duration("tick_every", t))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			for name, c := range cleaners {
				n, err := c.Cleanup(ctx)
				if err != nil {
					zap.L().Error("Failed to cleanup expired records", zap.String("kind", name), zap.Error(err))
					continue
				}

				if n > 0 {
					zap.L().Debug("Cleaned up expired records", zap.String("kind", name), zap.Int64("count", n))
				}
			}
		}
	}()
}
