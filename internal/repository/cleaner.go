package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TempSweeper removes abandoned temp upload files.
type TempSweeper interface {
	RemoveStaleTemp(olderThan time.Time) (int, error)
}

// StartTempFileCleaner removes temp upload files older than retention every interval
func StartTempFileCleaner(
	ctx context.Context,
	sweeper TempSweeper,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := sweeper.RemoveStaleTemp(time.Now().Add(-retention))
				if err != nil {
					log.Error("failed to clean stale temp files", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned stale temp files", zap.Int("removed", removed))
				}
			}
		}
	}()
}
