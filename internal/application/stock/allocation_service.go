package stock

import (
	"context"
	"time"

	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// defaultAllocationIdempotencyTTL bounds how long a consumed idempotency key
// blocks a duplicate allocation call.
const defaultAllocationIdempotencyTTL = 24 * time.Hour

// AllocationService performs firm, all-or-nothing allocation of batch
// quantity to order lines. Each Allocate call runs in one database
// transaction: either every planned batch reduction and every allocation
// record commits, or none do.
type AllocationService struct {
	txScope        TransactionScope
	idempotency    shared.IdempotencyStore
	eventBus       shared.EventPublisher
	logger         *zap.Logger
	idempotencyTTL time.Duration
}

// NewAllocationService creates an AllocationService. The idempotency store
// may be nil, in which case duplicate-call protection is the caller's
// responsibility.
func NewAllocationService(txScope TransactionScope, idempotency shared.IdempotencyStore, eventBus shared.EventPublisher, logger *zap.Logger) *AllocationService {
	return &AllocationService{
		txScope:        txScope,
		idempotency:    idempotency,
		eventBus:       eventBus,
		logger:         logger,
		idempotencyTTL: defaultAllocationIdempotencyTTL,
	}
}

// SetIdempotencyTTL overrides how long consumed idempotency keys are retained
func (s *AllocationService) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// Allocate consumes quantity from ACTIVE batches across the candidate
// locations (warehouse order is the caller's policy, oldest expiry first
// within a warehouse) and records one immutable trace record per batch
// touched. Fails with INSUFFICIENT_STOCK when the candidates cannot cover
// the request, leaving every batch untouched.
func (s *AllocationService) Allocate(ctx context.Context, cmd AllocateCommand) ([]AllocationRecordResult, error) {
	if len(cmd.CandidateLocationIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one candidate stock location is required")
	}

	if cmd.IdempotencyKey != "" && s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, "allocate:"+cmd.IdempotencyKey, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, shared.ErrDuplicateRequest
		}
	}

	var (
		results []AllocationRecordResult
		events  []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Refuse a second allocation for a line that already has trace records
		exists, err := repos.AllocationRepo().ExistsForOrderLine(ctx, cmd.OrderLineID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Order line has already been allocated")
		}

		locations, err := repos.LocationRepo().FindByIDs(ctx, cmd.CandidateLocationIDs)
		if err != nil {
			return err
		}

		plan, err := stock.PlanAllocation(locations, cmd.Quantity)
		if err != nil {
			return err
		}

		records, err := stock.ApplyAllocation(cmd.OrderLineID, locations, plan)
		if err != nil {
			return err
		}

		touched := make(map[string]*stock.StockLocation)
		for _, d := range plan {
			for _, location := range locations {
				if location.ID == d.StockLocationID {
					touched[location.ID.String()] = location
				}
			}
		}
		// Optimistic version check: a concurrent allocation against the same
		// location forces a CONCURRENCY_CONFLICT rollback instead of a
		// double-spend.
		for _, location := range touched {
			if err := repos.LocationRepo().SaveWithLock(ctx, location); err != nil {
				return err
			}
			events = append(events, location.GetDomainEvents()...)
			location.ClearDomainEvents()
		}

		if err := repos.AllocationRepo().SaveAll(ctx, records); err != nil {
			return err
		}

		results = make([]AllocationRecordResult, 0, len(records))
		for _, record := range records {
			results = append(results, AllocationRecordResult{
				RecordID:    record.ID,
				OrderLineID: record.OrderLineID,
				BatchID:     record.BatchID,
				BatchNumber: record.BatchNumber,
				WarehouseID: record.WarehouseID,
				Quantity:    record.Quantity,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("allocation failed",
			zap.String("order_line_id", cmd.OrderLineID.String()),
			zap.String("quantity", cmd.Quantity.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if s.eventBus != nil && len(events) > 0 {
		if pubErr := s.eventBus.Publish(ctx, events...); pubErr != nil {
			s.logger.Error("failed to publish allocation events", zap.Error(pubErr))
		}
	}

	s.logger.Info("order line allocated",
		zap.String("order_line_id", cmd.OrderLineID.String()),
		zap.Int("records", len(results)),
	)
	return results, nil
}
