package returns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/order"
	"github.com/stockroom/backend/internal/domain/returns"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// pickupFixture wires real domain aggregates through in-memory repositories:
// a stock location whose batch was fully allocated to one order line, the
// fulfilled order, and an approved return request with an assigned agent.
type pickupFixture struct {
	service     *PickupService
	returnRepo  *fakeReturnRepo
	orderRepo   *fakeOrderRepo
	locRepo     *fakeLocationRepo
	allocRepo   *fakeAllocationRepo
	location    *stock.StockLocation
	batch       *stock.Batch
	shopOrder   *order.ShopOrder
	line        *order.OrderLine
	request     *returns.ReturnRequest
	item        *returns.ReturnItem
	agentID     uuid.UUID
	idempotency *memoryIdempotencyStore
}

func newPickupFixture(t *testing.T, orderedAt time.Time, allocated int64) *pickupFixture {
	t.Helper()
	ctx := context.Background()

	productID := uuid.New()
	location, err := stock.NewStockLocation(&productID, nil, uuid.New())
	require.NoError(t, err)
	expiry := time.Now().AddDate(1, 0, 0)
	batch, err := location.ReceiveBatch(stock.ReceiveBatchInput{
		BatchNumber: "BN-A",
		Quantity:    decimal.NewFromInt(10),
		ExpiryDate:  &expiry,
	})
	require.NoError(t, err)

	line := order.OrderLine{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     &productID,
		ProductName:   "Thermal Flask",
		Quantity:      decimal.NewFromInt(10),
		MaxReturnDays: 30,
	}
	customerID := uuid.New()
	shopOrder, err := order.NewShopOrder(customerID, orderedAt, []order.OrderLine{line})
	require.NoError(t, err)
	orderLine := &shopOrder.Lines[0]

	allocRepo := &fakeAllocationRepo{}
	if allocated > 0 {
		plan, err := stock.PlanAllocation([]*stock.StockLocation{location}, decimal.NewFromInt(allocated))
		require.NoError(t, err)
		records, err := stock.ApplyAllocation(orderLine.ID, []*stock.StockLocation{location}, plan)
		require.NoError(t, err)
		require.NoError(t, allocRepo.SaveAll(ctx, records))
	}
	location.ClearDomainEvents()

	item, err := returns.NewReturnItem(orderLine.ID, orderLine.ProductID, nil, orderLine.ProductName, decimal.NewFromInt(10), orderLine.Quantity)
	require.NoError(t, err)
	request, err := returns.NewReturnRequest(shopOrder.ID, customerID, "does not keep heat", []returns.ReturnItem{*item})
	require.NoError(t, err)
	require.NoError(t, request.Approve("verified with customer"))
	agentID := uuid.New()
	require.NoError(t, request.AssignAgent(agentID, uuid.New(), ""))
	request.ClearDomainEvents()

	returnRepo := newFakeReturnRepo()
	orderRepo := newFakeOrderRepo()
	locRepo := newFakeLocationRepo()
	require.NoError(t, returnRepo.Save(ctx, request))
	require.NoError(t, orderRepo.Save(ctx, shopOrder))
	require.NoError(t, locRepo.Save(ctx, location))

	idempotency := newMemoryIdempotencyStore()
	txScope := NewNoOpTransactionScope(returnRepo, orderRepo, locRepo, allocRepo)
	logger := zap.NewNop()
	service := NewPickupService(txScope, idempotency, nil, NewLoggingNotifier(logger), logger)

	return &pickupFixture{
		service:     service,
		returnRepo:  returnRepo,
		orderRepo:   orderRepo,
		locRepo:     locRepo,
		allocRepo:   allocRepo,
		location:    location,
		batch:       batch,
		shopOrder:   shopOrder,
		line:        orderLine,
		request:     request,
		item:        &request.Items[0],
		agentID:     agentID,
		idempotency: idempotency,
	}
}

func (f *pickupFixture) command(outcome PickupOutcome) ProcessPickupCommand {
	return ProcessPickupCommand{
		RequestID: f.request.ID,
		AgentID:   f.agentID,
		Decisions: []PickupItemDecision{{ReturnItemID: f.item.ID, Outcome: outcome}},
	}
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestPickupService_ProcessPickup(t *testing.T) {
	ctx := context.Background()
	recently := time.Now().AddDate(0, 0, -5)

	t.Run("undamaged item returns stock to its original batch", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		require.True(t, f.batch.Quantity.IsZero())
		require.Equal(t, stock.BatchStatusEmpty, f.batch.Status)

		result, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.True(t, result.Items[0].Restocked)
		assert.Equal(t, []string{"BN-A"}, result.Items[0].BatchNumbers)

		assert.True(t, f.batch.Quantity.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, stock.BatchStatusActive, f.batch.Status)
		assert.Equal(t, order.OrderStatusReturned, f.shopOrder.Status)
		assert.Equal(t, returns.ReturnStatusCompleted, f.request.Status)
		assert.Equal(t, returns.DeliveryStatusPickupCompleted, f.request.DeliveryStatus)
		assert.NoError(t, f.request.ValidateStatePairing())
	})

	t.Run("damaged item completes the return without restocking", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)

		result, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeDamaged))

		require.NoError(t, err)
		assert.False(t, result.Items[0].Restocked)
		assert.True(t, f.batch.Quantity.IsZero())
		assert.Equal(t, order.OrderStatusReturned, f.shopOrder.Status)
		assert.Equal(t, returns.ReturnStatusCompleted, f.request.Status)
	})

	t.Run("wrong agent is rejected before any mutation", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		cmd := f.command(PickupOutcomeUndamaged)
		cmd.AgentID = uuid.New()

		_, err := f.service.ProcessPickup(ctx, cmd)

		assertDomainCode(t, err, "AGENT_MISMATCH")
		assert.Equal(t, returns.ReturnStatusApproved, f.request.Status)
		assert.Equal(t, returns.DeliveryStatusAssigned, f.request.DeliveryStatus)
		assert.True(t, f.batch.Quantity.IsZero())
	})

	t.Run("pickup already in progress cannot be processed", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		require.NoError(t, f.request.StartPickup())

		_, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		assertDomainCode(t, err, "INVALID_DELIVERY_STATUS")
	})

	t.Run("return window expiry fails the whole pickup", func(t *testing.T) {
		f := newPickupFixture(t, time.Now().AddDate(0, 0, -45), 10)

		_, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		assertDomainCode(t, err, "RETURN_WINDOW_EXPIRED")
		assert.True(t, f.batch.Quantity.IsZero())
		assert.Equal(t, returns.ReturnStatusApproved, f.request.Status)
	})

	t.Run("cancelled order fails fatally", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		f.shopOrder.Status = order.OrderStatusCancelled

		_, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		assertDomainCode(t, err, "CANCELLED_ORDER_CANNOT_RETURN")
	})

	t.Run("already returned order is an idempotent no-op", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		f.shopOrder.Status = order.OrderStatusReturned

		result, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		require.NoError(t, err)
		assert.True(t, result.Items[0].Restocked)
		assert.Equal(t, returns.ReturnStatusCompleted, f.request.Status)
	})

	t.Run("missing allocation trace fails only that item", func(t *testing.T) {
		f := newPickupFixture(t, recently, 0)

		result, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.False(t, result.Items[0].Restocked)
		assert.Contains(t, result.Items[0].Message, "No batch allocation records")
		// The return still completes; only the credit is lost
		assert.Equal(t, returns.ReturnStatusCompleted, f.request.Status)
		assert.Equal(t, order.OrderStatusReturned, f.shopOrder.Status)
	})

	t.Run("trace smaller than the returned quantity is a partial restock", func(t *testing.T) {
		f := newPickupFixture(t, recently, 6)

		result, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		require.NoError(t, err)
		assert.False(t, result.Items[0].Restocked)
		assert.Contains(t, result.Items[0].Message, "partially restocked")
		// The six allocated units come back; the unmatched four do not
		assert.True(t, f.batch.Quantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("ledger write conflict aborts the whole pickup", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		f.locRepo.saveErr = shared.ErrConcurrencyConflict

		result, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		assertDomainCode(t, err, "CONCURRENCY_CONFLICT")
		assert.Nil(t, result)
		// The request stays APPROVED/ASSIGNED so the pickup can be retried
		// once the conflicting write has settled
		assert.Equal(t, returns.ReturnStatusApproved, f.request.Status)
		assert.Equal(t, returns.DeliveryStatusAssigned, f.request.DeliveryStatus)
		assert.Equal(t, order.OrderStatusFulfilled, f.shopOrder.Status)
	})

	t.Run("recalled batch cannot absorb the restock", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		require.NoError(t, f.location.RecallBatch(f.batch.ID, "contamination"))
		f.location.ClearDomainEvents()

		result, err := f.service.ProcessPickup(ctx, f.command(PickupOutcomeUndamaged))

		require.NoError(t, err)
		assert.False(t, result.Items[0].Restocked)
		assert.Contains(t, result.Items[0].Message, "recalled")
		assert.Equal(t, stock.BatchStatusRecalled, f.batch.Status)
		assert.True(t, f.batch.Quantity.IsZero())
		assert.Equal(t, returns.ReturnStatusCompleted, f.request.Status)
	})

	t.Run("duplicate idempotency key is rejected", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		cmd := f.command(PickupOutcomeUndamaged)
		cmd.IdempotencyKey = "pickup-77"

		_, err := f.service.ProcessPickup(ctx, cmd)
		require.NoError(t, err)

		_, err = f.service.ProcessPickup(ctx, cmd)
		assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
	})

	t.Run("unknown outcome is rejected up front", func(t *testing.T) {
		f := newPickupFixture(t, recently, 10)
		cmd := f.command(PickupOutcome("SOGGY"))

		_, err := f.service.ProcessPickup(ctx, cmd)

		assertDomainCode(t, err, "INVALID_INPUT")
	})
}
