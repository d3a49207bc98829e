package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/returns"
	"github.com/stockroom/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReturnService drives the return request lifecycle short of pickup
// reconciliation: submission, the approve/deny decision, agent assignment,
// the pickup sub-state transitions, appeals and refunds. Reconciliation
// itself lives in PickupService.
type ReturnService struct {
	txScope  TransactionScope
	eventBus shared.EventPublisher
	notifier Notifier
	logger   *zap.Logger
}

// NewReturnService creates a ReturnService
func NewReturnService(txScope TransactionScope, eventBus shared.EventPublisher, notifier Notifier, logger *zap.Logger) *ReturnService {
	return &ReturnService{
		txScope:  txScope,
		eventBus: eventBus,
		notifier: notifier,
		logger:   logger,
	}
}

// SubmitReturn opens a pending return request. Every requested item must
// reference an order line of the given order, mirror that line's SKU and stay
// within the line's fulfilled quantity.
func (s *ReturnService) SubmitReturn(ctx context.Context, cmd SubmitReturnCommand) (*ReturnRequestResult, error) {
	if len(cmd.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "A return request needs at least one item")
	}

	var (
		result *ReturnRequestResult
		events []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		shopOrder, err := repos.OrderRepo().FindByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}

		items := make([]returns.ReturnItem, 0, len(cmd.Items))
		for _, input := range cmd.Items {
			line, err := shopOrder.FindLine(input.OrderLineID)
			if err != nil {
				return shared.NewDomainError("NOT_FOUND", "Order line not found on the referenced order")
			}
			if !line.MatchesSKU(input.ProductID, input.VariantID) {
				return returns.ErrReturnSKUMismatch
			}
			item, err := returns.NewReturnItem(line.ID, line.ProductID, line.VariantID, line.ProductName, input.Quantity, line.Quantity)
			if err != nil {
				return err
			}
			items = append(items, *item)
		}

		request, err := returns.NewReturnRequest(cmd.OrderID, cmd.CustomerID, cmd.Reason, items)
		if err != nil {
			return err
		}
		for _, media := range cmd.Media {
			if err := request.AttachMedia(media.Kind, media.URL); err != nil {
				return err
			}
		}

		if err := repos.ReturnRepo().Save(ctx, request); err != nil {
			return err
		}

		events = s.drainEvents(request)
		result = NewReturnRequestResult(request)
		s.notify(ctx, request, s.notifier.ReturnSubmitted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("return request submitted",
		zap.String("return_request_id", result.RequestID.String()),
		zap.String("order_id", cmd.OrderID.String()),
		zap.Int("items", result.ItemCount),
	)
	return result, nil
}

// DecideReturn approves or denies a pending request
func (s *ReturnService) DecideReturn(ctx context.Context, cmd DecideReturnCommand) (*ReturnRequestResult, error) {
	return s.mutate(ctx, cmd.RequestID, func(request *returns.ReturnRequest) error {
		if cmd.Approve {
			return request.Approve(cmd.Notes)
		}
		return request.Deny(cmd.Notes)
	}, s.notifier.ReturnDecided)
}

// AssignAgent assigns (or, after a failed or cancelled pickup, re-assigns) a
// delivery agent to an approved request
func (s *ReturnService) AssignAgent(ctx context.Context, cmd AssignAgentCommand) (*ReturnRequestResult, error) {
	return s.mutate(ctx, cmd.RequestID, func(request *returns.ReturnRequest) error {
		return request.AssignAgent(cmd.AgentID, cmd.AssignedBy, cmd.Notes)
	}, s.notifier.AgentAssigned)
}

// SchedulePickup records an agreed pickup time
func (s *ReturnService) SchedulePickup(ctx context.Context, requestID uuid.UUID, at time.Time) (*ReturnRequestResult, error) {
	return s.mutate(ctx, requestID, func(request *returns.ReturnRequest) error {
		return request.SchedulePickup(at)
	}, nil)
}

// StartPickup marks the pickup as underway
func (s *ReturnService) StartPickup(ctx context.Context, requestID uuid.UUID) (*ReturnRequestResult, error) {
	return s.mutate(ctx, requestID, func(request *returns.ReturnRequest) error {
		return request.StartPickup()
	}, nil)
}

// FailPickup records a failed pickup attempt
func (s *ReturnService) FailPickup(ctx context.Context, requestID uuid.UUID, reason string) (*ReturnRequestResult, error) {
	return s.mutate(ctx, requestID, func(request *returns.ReturnRequest) error {
		return request.FailPickup(reason)
	}, nil)
}

// CancelPickup withdraws the current assignment
func (s *ReturnService) CancelPickup(ctx context.Context, requestID uuid.UUID, reason string) (*ReturnRequestResult, error) {
	return s.mutate(ctx, requestID, func(request *returns.ReturnRequest) error {
		return request.CancelPickup(reason)
	}, nil)
}

// OpenAppeal opens the single allowed appeal on a denied request
func (s *ReturnService) OpenAppeal(ctx context.Context, requestID uuid.UUID, reason string) (*ReturnRequestResult, error) {
	return s.mutate(ctx, requestID, func(request *returns.ReturnRequest) error {
		_, err := request.OpenAppeal(reason)
		return err
	}, nil)
}

// DecideAppeal stamps the appeal decision. An approved appeal does not
// automatically re-open the request; operations resubmit on the customer's
// behalf.
func (s *ReturnService) DecideAppeal(ctx context.Context, requestID uuid.UUID, approve bool, notes string) (*ReturnRequestResult, error) {
	return s.mutate(ctx, requestID, func(request *returns.ReturnRequest) error {
		return request.DecideAppeal(approve, notes)
	}, nil)
}

// MarkRefundProcessed records the refund issued for a completed return
func (s *ReturnService) MarkRefundProcessed(ctx context.Context, requestID uuid.UUID, amount decimal.Decimal) (*ReturnRequestResult, error) {
	return s.mutate(ctx, requestID, func(request *returns.ReturnRequest) error {
		return request.MarkRefundProcessed(amount)
	}, nil)
}

// GetRequest loads one request as a read model
func (s *ReturnService) GetRequest(ctx context.Context, requestID uuid.UUID) (*ReturnRequestResult, error) {
	var result *ReturnRequestResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		request, err := repos.ReturnRepo().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		result = NewReturnRequestResult(request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListRequests pages through return requests
func (s *ReturnService) ListRequests(ctx context.Context, filter shared.Filter) (*shared.Paginated[ReturnRequestResult], error) {
	var page *shared.Paginated[ReturnRequestResult]
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		requests, total, err := repos.ReturnRepo().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		results := make([]ReturnRequestResult, 0, len(requests))
		for i := range requests {
			results = append(results, *NewReturnRequestResult(&requests[i]))
		}
		paginated := shared.NewPaginated(results, total, filter.Page, filter.PageSize)
		page = &paginated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// mutate is the shared load-modify-save-publish skeleton for single-aggregate
// transitions
func (s *ReturnService) mutate(ctx context.Context, requestID uuid.UUID, fn func(*returns.ReturnRequest) error, notify func(context.Context, *returns.ReturnRequest) error) (*ReturnRequestResult, error) {
	var (
		result *ReturnRequestResult
		events []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		request, err := repos.ReturnRepo().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := fn(request); err != nil {
			return err
		}
		if err := repos.ReturnRepo().SaveWithLock(ctx, request); err != nil {
			return err
		}
		events = s.drainEvents(request)
		result = NewReturnRequestResult(request)
		if notify != nil {
			s.notify(ctx, request, notify)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("return request transition failed",
			zap.String("return_request_id", requestID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.publish(ctx, events)
	return result, nil
}

func (s *ReturnService) drainEvents(request *returns.ReturnRequest) []shared.DomainEvent {
	events := request.GetDomainEvents()
	request.ClearDomainEvents()
	return events
}

func (s *ReturnService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish return events", zap.Error(err))
	}
}

func (s *ReturnService) notify(ctx context.Context, request *returns.ReturnRequest, fn func(context.Context, *returns.ReturnRequest) error) {
	if s.notifier == nil || fn == nil {
		return
	}
	if err := fn(ctx, request); err != nil {
		s.logger.Error("notification failed",
			zap.String("return_request_id", request.ID.String()),
			zap.Error(err),
		)
	}
}
