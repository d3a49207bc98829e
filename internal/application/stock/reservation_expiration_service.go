package stock

import (
	"context"
	"time"

	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// ExpiredReservationStats summarizes one sweep over expired reservation locks
type ExpiredReservationStats struct {
	TotalExpired    int
	SuccessReleased int
	FailedReleases  int
}

// ReservationExpirationService reclaims reservation locks past their expiry.
// Correctness never depends on the sweep — expired locks are already excluded
// from availability math — but releasing them bounds storage and keeps the
// lock table honest.
type ReservationExpirationService struct {
	lockRepo stock.ReservationLockRepository
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewReservationExpirationService creates a ReservationExpirationService
func NewReservationExpirationService(lockRepo stock.ReservationLockRepository, eventBus shared.EventPublisher, logger *zap.Logger) *ReservationExpirationService {
	return &ReservationExpirationService{
		lockRepo: lockRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// SetEventBus injects the event bus after construction
func (s *ReservationExpirationService) SetEventBus(eventBus shared.EventPublisher) {
	s.eventBus = eventBus
}

// ReleaseExpiredLocks releases each expired lock individually, collecting
// per-lock failures into the stats instead of aborting the sweep
func (s *ReservationExpirationService) ReleaseExpiredLocks(ctx context.Context) (*ExpiredReservationStats, error) {
	expired, err := s.lockRepo.FindExpired(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	stats := &ExpiredReservationStats{TotalExpired: len(expired)}
	if len(expired) == 0 {
		return stats, nil
	}

	for i := range expired {
		lock := expired[i]
		if err := lock.Release(); err != nil {
			// Already released by a concurrent sweep; nothing to do
			stats.SuccessReleased++
			continue
		}
		if err := s.lockRepo.Save(ctx, &lock); err != nil {
			stats.FailedReleases++
			s.logger.Error("failed to release expired reservation lock",
				zap.String("lock_id", lock.ID.String()),
				zap.Error(err),
			)
			continue
		}
		stats.SuccessReleased++

		if s.eventBus != nil {
			event := stock.NewReservationExpiredEvent(lock.StockLocationID, lock.ID, lock.SessionID)
			if err := s.eventBus.Publish(ctx, event); err != nil {
				s.logger.Error("failed to publish reservation expired event",
					zap.String("lock_id", lock.ID.String()),
					zap.Error(err),
				)
			}
		}
	}

	s.logger.Info("expired reservation sweep finished",
		zap.Int("total_expired", stats.TotalExpired),
		zap.Int("released", stats.SuccessReleased),
		zap.Int("failed", stats.FailedReleases),
	)
	return stats, nil
}

// BulkReleaseExpiredLocks releases all expired locks in one statement and
// returns how many were touched. Faster than ReleaseExpiredLocks but emits
// no per-lock events.
func (s *ReservationExpirationService) BulkReleaseExpiredLocks(ctx context.Context) (int, error) {
	return s.lockRepo.ReleaseExpired(ctx, time.Now())
}

// GetExpiredLockCount reports how many locks are currently past expiry
func (s *ReservationExpirationService) GetExpiredLockCount(ctx context.Context) (int, error) {
	expired, err := s.lockRepo.FindExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}

// Run sweeps on the given interval until the context is cancelled
func (s *ReservationExpirationService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("reservation expiration sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reservation expiration sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.ReleaseExpiredLocks(ctx); err != nil {
				s.logger.Error("reservation expiration sweep failed", zap.Error(err))
			}
		}
	}
}
