package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// ReservationService manages the soft reservation layer consulted by
// checkout. Locks never mutate batch quantity; they only subtract from the
// availability figure until they expire or are released.
type ReservationService struct {
	txScope    TransactionScope
	eventBus   shared.EventPublisher
	logger     *zap.Logger
	defaultTTL time.Duration
}

// NewReservationService creates a ReservationService. A non-positive
// defaultTTL falls back to the domain default of two hours.
func NewReservationService(txScope TransactionScope, eventBus shared.EventPublisher, logger *zap.Logger, defaultTTL time.Duration) *ReservationService {
	if defaultTTL <= 0 {
		defaultTTL = stock.DefaultReservationTTL
	}
	return &ReservationService{
		txScope:    txScope,
		eventBus:   eventBus,
		logger:     logger,
		defaultTTL: defaultTTL,
	}
}

// Acquire places a session-scoped hold on batch quantity. It fails with
// INSUFFICIENT_AVAILABLE_QUANTITY when the location's ACTIVE quantity minus
// all unexpired holds cannot cover the request. Expired locks are excluded
// from the computation as if absent.
func (s *ReservationService) Acquire(ctx context.Context, cmd AcquireReservationCommand) (*ReservationResult, error) {
	ttl := cmd.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	var result *ReservationResult
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		location, err := repos.LocationRepo().FindByID(ctx, cmd.StockLocationID)
		if err != nil {
			return err
		}
		if _, err := location.FindBatch(cmd.BatchID); err != nil {
			return err
		}

		now := time.Now()
		activeLocks, err := repos.ReservationRepo().FindActiveByLocation(ctx, location.ID, now)
		if err != nil {
			return err
		}

		available := location.AvailableQuantity().Sub(stock.ReservedQuantity(activeLocks))
		if available.LessThan(cmd.Quantity) {
			return shared.ErrInsufficientAvailable
		}

		lock, err := stock.NewReservationLock(cmd.SessionID, location.ID, cmd.BatchID, location.WarehouseID, cmd.Quantity, ttl)
		if err != nil {
			return err
		}
		if err := repos.ReservationRepo().Save(ctx, lock); err != nil {
			return err
		}

		events = append(events, stock.NewReservationAcquiredEvent(location.ID, lock.ID, lock.SessionID, lock.Quantity))
		result = &ReservationResult{
			LockID:          lock.ID,
			SessionID:       lock.SessionID,
			StockLocationID: lock.StockLocationID,
			BatchID:         lock.BatchID,
			Quantity:        lock.Quantity,
			ExpiresAt:       lock.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Debug("reservation acquired",
		zap.String("session_id", cmd.SessionID),
		zap.String("lock_id", result.LockID.String()),
	)
	return result, nil
}

// Release explicitly releases a hold (checkout completed or cart item removed)
func (s *ReservationService) Release(ctx context.Context, lockID uuid.UUID) error {
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		lock, err := repos.ReservationRepo().FindByID(ctx, lockID)
		if err != nil {
			return err
		}
		if err := lock.Release(); err != nil {
			return err
		}
		if err := repos.ReservationRepo().Save(ctx, lock); err != nil {
			return err
		}
		events = append(events, stock.NewReservationReleasedEvent(lock.StockLocationID, lock.ID, lock.SessionID))
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events)
	return nil
}

func (s *ReservationService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish reservation events", zap.Error(err))
	}
}
