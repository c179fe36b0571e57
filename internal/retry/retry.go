// Package retry re-runs storage operations that lost a concurrent-update race.
package retry

import (
	"context"
	"errors"
	"time"

	"homegoods/internal/domain"

	"go.uber.org/zap"
)

const (
	// DefaultAttempts bounds how often a conflicting operation is tried.
	DefaultAttempts = 3
	baseDelay       = 25 * time.Millisecond
)

// OnConflict runs fn until it succeeds, fails with something other than
// domain.ErrConflict, or attempts run out. Storage errors are returned at
// once.
func OnConflict(ctx context.Context, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	return onConflict(ctx, logger, op, DefaultAttempts, baseDelay, fn)
}

func onConflict(ctx context.Context, logger *zap.Logger, op string, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if logger != nil {
			logger.Warn("retrying after conflict",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(delay << (attempt - 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
