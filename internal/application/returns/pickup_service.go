package returns

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/returns"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// defaultPickupIdempotencyTTL bounds how long a consumed idempotency key
// blocks a duplicate pickup call.
const defaultPickupIdempotencyTTL = 24 * time.Hour

// newReturnWindowExpiredError builds the precondition failure for an item
// past its line's return window at pickup time.
func newReturnWindowExpiredError(productName string, elapsed, allowed int) *shared.DomainError {
	return shared.NewDomainError("RETURN_WINDOW_EXPIRED",
		fmt.Sprintf("Return window expired for %q: %d days since order, %d allowed", productName, elapsed, allowed))
}

// PickupService finishes an approved return's pickup and reconciles
// inventory, order state and return state in one transaction.
//
// Item handling is partial-failure tolerant: an item whose stock cannot be
// credited is reported in its result and does not block the others. Ledger
// persistence conflicts and order/return state transitions are fatal: any
// failure there rolls back the whole operation, restocks included.
type PickupService struct {
	txScope        TransactionScope
	idempotency    shared.IdempotencyStore
	eventBus       shared.EventPublisher
	notifier       Notifier
	logger         *zap.Logger
	idempotencyTTL time.Duration
}

// NewPickupService creates a PickupService. The idempotency store may be nil,
// in which case duplicate-call protection is the caller's responsibility.
func NewPickupService(txScope TransactionScope, idempotency shared.IdempotencyStore, eventBus shared.EventPublisher, notifier Notifier, logger *zap.Logger) *PickupService {
	return &PickupService{
		txScope:        txScope,
		idempotency:    idempotency,
		eventBus:       eventBus,
		notifier:       notifier,
		logger:         logger,
		idempotencyTTL: defaultPickupIdempotencyTTL,
	}
}

// SetIdempotencyTTL overrides how long consumed idempotency keys are retained
func (s *PickupService) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// ProcessPickup validates the pickup preconditions, restocks undamaged items
// into the batches they were allocated from, marks the order RETURNED and
// completes the return request.
//
// Preconditions, all checked before any mutation:
//   - the request is APPROVED with deliveryStatus ASSIGNED
//   - the calling agent is the assigned agent
//   - every decision references an owned item with a known outcome
//   - every item is within its order line's return window
func (s *PickupService) ProcessPickup(ctx context.Context, cmd ProcessPickupCommand) (*PickupResult, error) {
	if len(cmd.Decisions) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one item decision is required")
	}
	for _, decision := range cmd.Decisions {
		if !decision.Outcome.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Unknown pickup outcome %q", decision.Outcome))
		}
	}

	if cmd.IdempotencyKey != "" && s.idempotency != nil {
		fresh, err := s.idempotency.MarkProcessed(ctx, "pickup:"+cmd.IdempotencyKey, s.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, shared.ErrDuplicateRequest
		}
	}

	var (
		result *PickupResult
		events []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		request, err := repos.ReturnRepo().FindByID(ctx, cmd.RequestID)
		if err != nil {
			return err
		}

		if request.Status != returns.ReturnStatusApproved {
			return returns.NewInvalidReturnStatusError(request.Status, returns.ReturnStatusCompleted)
		}
		if request.DeliveryStatus != returns.DeliveryStatusAssigned {
			return returns.NewInvalidDeliveryStatusError(request.DeliveryStatus, returns.DeliveryStatusPickupCompleted)
		}
		if err := request.VerifyAgent(cmd.AgentID); err != nil {
			return err
		}

		shopOrder, err := repos.OrderRepo().FindByID(ctx, request.OrderID)
		if err != nil {
			return err
		}

		now := time.Now()
		decided := make(map[uuid.UUID]*decidedItem, len(cmd.Decisions))
		for _, decision := range cmd.Decisions {
			item, err := request.FindItem(decision.ReturnItemID)
			if err != nil {
				return shared.NewDomainError("NOT_FOUND", "Decision references an item not on this return request")
			}
			line, err := shopOrder.FindLine(item.OrderLineID)
			if err != nil {
				return shared.NewDomainError("NOT_FOUND", "Return item references an unknown order line")
			}
			if !shopOrder.WithinReturnWindow(line, now) {
				return newReturnWindowExpiredError(item.ProductName,
					shopOrder.ReturnWindowDaysElapsed(now), line.EffectiveMaxReturnDays())
			}
			decided[item.ID] = &decidedItem{item: item, outcome: decision.Outcome}
		}

		itemResults := make([]PickupItemResult, 0, len(cmd.Decisions))
		restockEvents, itemResults, err := s.reconcileItems(ctx, repos, request, decided, cmd.Decisions, itemResults)
		if err != nil {
			return err
		}
		events = append(events, restockEvents...)

		// Order transition: RETURNED is idempotent, CANCELLED is fatal
		changed, err := shopOrder.MarkReturned()
		if err != nil {
			return err
		}
		if changed {
			if err := repos.OrderRepo().Save(ctx, shopOrder); err != nil {
				return err
			}
		} else {
			s.logger.Info("order already marked returned",
				zap.String("order_id", shopOrder.ID.String()),
				zap.String("return_request_id", request.ID.String()),
			)
		}

		if err := request.MarkPickupCompleted(now); err != nil {
			return err
		}
		if err := request.ValidateStatePairing(); err != nil {
			return err
		}
		if err := repos.ReturnRepo().SaveWithLock(ctx, request); err != nil {
			return err
		}
		events = append(events, s.drainEvents(request)...)

		restocked := 0
		for _, ir := range itemResults {
			if ir.Restocked {
				restocked++
			}
		}
		result = &PickupResult{
			ReturnRequestID: request.ID,
			OrderID:         request.OrderID,
			CompletedAt:     now,
			Items:           itemResults,
			Summary:         fmt.Sprintf("Pickup completed: %d of %d items restocked", restocked, len(itemResults)),
		}
		s.notifyCompleted(ctx, request)
		return nil
	})
	if err != nil {
		s.logger.Warn("pickup processing failed",
			zap.String("return_request_id", cmd.RequestID.String()),
			zap.String("agent_id", cmd.AgentID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("pickup processed",
		zap.String("return_request_id", result.ReturnRequestID.String()),
		zap.String("summary", result.Summary),
	)
	return result, nil
}

type decidedItem struct {
	item    *returns.ReturnItem
	outcome PickupOutcome
}

// reconcileItems walks the decisions in call order and restocks undamaged
// items. A failure crediting one item lands in that item's result and the
// others proceed; a failure persisting a restocked location is returned as
// an error so the whole pickup transaction rolls back and can be retried.
func (s *PickupService) reconcileItems(
	ctx context.Context,
	repos TransactionalRepositories,
	request *returns.ReturnRequest,
	decided map[uuid.UUID]*decidedItem,
	decisions []PickupItemDecision,
	itemResults []PickupItemResult,
) ([]shared.DomainEvent, []PickupItemResult, error) {
	var events []shared.DomainEvent
	// Locations are cached so two items restocking into the same location
	// mutate one in-memory aggregate and save once.
	locations := make(map[uuid.UUID]*stock.StockLocation)

	for _, decision := range decisions {
		d := decided[decision.ReturnItemID]
		itemResult := PickupItemResult{
			ReturnItemID: d.item.ID,
			ProductName:  d.item.ProductName,
			Quantity:     d.item.Quantity,
			Outcome:      d.outcome,
		}

		if d.outcome != PickupOutcomeUndamaged {
			itemResult.Message = fmt.Sprintf("Item reported %s; not restocked", d.outcome)
			itemResults = append(itemResults, itemResult)
			continue
		}

		restockEvents, err := s.restockItem(ctx, repos, request.ID, d.item, locations, &itemResult)
		if err != nil {
			itemResult.Restocked = false
			itemResult.Message = err.Error()
			s.logger.Warn("restock failed for return item",
				zap.String("return_item_id", d.item.ID.String()),
				zap.Error(err),
			)
		} else {
			events = append(events, restockEvents...)
		}
		itemResults = append(itemResults, itemResult)
	}

	for _, location := range locations {
		if err := repos.LocationRepo().SaveWithLock(ctx, location); err != nil {
			// A conflicting concurrent write on the ledger invalidates every
			// restock this pickup performed. Completing the return anyway
			// would lose the credit permanently, so abort the transaction.
			s.logger.Error("failed to persist restocked location",
				zap.String("stock_location_id", location.ID.String()),
				zap.Error(err),
			)
			return nil, nil, err
		}
	}
	return events, itemResults, nil
}

// restockItem credits the item's quantity back into the batches its order
// line was allocated from, walking the allocation trace in creation order and
// capping each credit at the recorded per-batch quantity.
func (s *PickupService) restockItem(
	ctx context.Context,
	repos TransactionalRepositories,
	requestID uuid.UUID,
	item *returns.ReturnItem,
	locations map[uuid.UUID]*stock.StockLocation,
	itemResult *PickupItemResult,
) ([]shared.DomainEvent, error) {
	records, err := repos.AllocationRepo().FindByOrderLine(ctx, item.OrderLineID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, shared.NewDomainError("NO_ALLOCATION_TRACE", "No batch allocation records found for the order line")
	}

	var events []shared.DomainEvent
	remaining := item.Quantity
	for i := range records {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		record := &records[i]
		credit := decimal.Min(remaining, record.Quantity)

		location, ok := locations[record.StockLocationID]
		if !ok {
			location, err = repos.LocationRepo().FindByID(ctx, record.StockLocationID)
			if err != nil {
				return nil, err
			}
			locations[record.StockLocationID] = location
		}
		if err := location.IncreaseBatch(record.BatchID, credit); err != nil {
			return nil, err
		}

		itemResult.BatchNumbers = append(itemResult.BatchNumbers, record.BatchNumber)
		events = append(events, stock.NewStockRestockedEvent(location.ID, requestID, record.BatchID, credit))
		remaining = remaining.Sub(credit)
	}

	if remaining.GreaterThan(decimal.Zero) {
		// The trace could not absorb the full quantity (more returned than was
		// ever allocated to the line). Credit what fits, flag the rest.
		itemResult.Restocked = false
		itemResult.Message = fmt.Sprintf("Only partially restocked: %s could not be matched to allocation records", remaining)
		return events, nil
	}

	itemResult.Restocked = true
	itemResult.Message = "Restocked into original batches"
	return events, nil
}

func (s *PickupService) drainEvents(request *returns.ReturnRequest) []shared.DomainEvent {
	events := request.GetDomainEvents()
	request.ClearDomainEvents()
	return events
}

func (s *PickupService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish pickup events", zap.Error(err))
	}
}

func (s *PickupService) notifyCompleted(ctx context.Context, request *returns.ReturnRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PickupCompleted(ctx, request); err != nil {
		s.logger.Error("pickup completion notification failed",
			zap.String("return_request_id", request.ID.String()),
			zap.Error(err),
		)
	}
}
