package main

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// ensureIndexes retries until the indexes exist or ctx is done. The Mongo
// client connects lazily, so the first attempts may fail while the server is
// still unreachable.
func ensureIndexes(ctx context.Context, idx indexer, timeout, interval time.Duration, logger *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		actx, cancel := context.WithTimeout(ctx, timeout)
		err := idx.EnsureIndexes(actx)
		cancel()
		if err == nil {
			logger.Info("MongoDB indexes ready", zap.Int("attempt", attempt))
			return nil
		}
		logger.Warn("Failed to create indexes, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", interval),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
