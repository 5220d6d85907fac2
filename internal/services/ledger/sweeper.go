package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically purges expired idempotency records.
type Sweeper struct {
	svc      Service
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(svc Service, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{svc: svc, interval: interval, logger: logger.Named("sweeper")}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.PurgeExpiredIdempotencyKeys(ctx)
	if err != nil {
		s.logger.Error("idempotency sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("purged expired idempotency records", zap.Int64("count", n))
	}
}
