package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// IdlePurger is implemented by token store backends without native
// expiry. Redis is excluded: its records carry a TTL already.
type IdlePurger interface {
	PurgeIdle(ctx context.Context, olderThan time.Duration) (int, error)
}

// SessionSweeper evicts session records that outlived the session TTL.
type SessionSweeper struct {
	store    IdlePurger
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewSessionSweeper builds a sweeper that purges records idle longer
// than ttl, checking every interval.
func NewSessionSweeper(store IdlePurger, ttl, interval time.Duration, logger *zap.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweeper{store: store, ttl: ttl, interval: interval, logger: logger}
}

// Run sweeps until ctx is cancelled. Intended to be launched as a
// goroutine from main.
func (w *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := w.store.PurgeIdle(ctx, w.ttl)
			if err != nil {
				w.logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if purged > 0 {
				w.logger.Info("expired sessions purged", zap.Int("count", purged))
			}
		}
	}
}
