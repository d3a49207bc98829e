package returns

import (
	"context"

	"github.com/stockroom/backend/internal/domain/order"
	"github.com/stockroom/backend/internal/domain/returns"
	"github.com/stockroom/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to everything pickup
// reconciliation touches: the return request, the owning order, the
// allocation trace and the batch ledger. One ProcessPickup call is one
// transaction; a fatal error anywhere rolls back every restock and state
// transition already applied.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to the current
// transaction
type TransactionalRepositories interface {
	ReturnRepo() returns.ReturnRequestRepository
	OrderRepo() order.ShopOrderRepository
	LocationRepo() stock.StockLocationRepository
	AllocationRepo() stock.AllocationRecordRepository
}

// NoOpTransactionScope runs the function without a real transaction
type NoOpTransactionScope struct {
	returnRepo     returns.ReturnRequestRepository
	orderRepo      order.ShopOrderRepository
	locationRepo   stock.StockLocationRepository
	allocationRepo stock.AllocationRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	returnRepo returns.ReturnRequestRepository,
	orderRepo order.ShopOrderRepository,
	locationRepo stock.StockLocationRepository,
	allocationRepo stock.AllocationRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		returnRepo:     returnRepo,
		orderRepo:      orderRepo,
		locationRepo:   locationRepo,
		allocationRepo: allocationRepo,
	}
}

// Execute runs the function directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ReturnRepo returns the return request repository
func (s *NoOpTransactionScope) ReturnRepo() returns.ReturnRequestRepository {
	return s.returnRepo
}

// OrderRepo returns the shop order repository
func (s *NoOpTransactionScope) OrderRepo() order.ShopOrderRepository {
	return s.orderRepo
}

// LocationRepo returns the stock location repository
func (s *NoOpTransactionScope) LocationRepo() stock.StockLocationRepository {
	return s.locationRepo
}

// AllocationRepo returns the allocation record repository
func (s *NoOpTransactionScope) AllocationRepo() stock.AllocationRecordRepository {
	return s.allocationRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
