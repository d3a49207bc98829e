package persistence

import (
	"context"

	appreturns "github.com/stockroom/backend/internal/application/returns"
	"github.com/stockroom/backend/internal/domain/order"
	"github.com/stockroom/backend/internal/domain/returns"
	"github.com/stockroom/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormReturnsTransactionScope implements the returns TransactionScope using
// GORM transactions. Pickup reconciliation touches the return request, the
// order, the batch ledger and the allocation trace; all of it commits or
// rolls back together.
type GormReturnsTransactionScope struct {
	db *gorm.DB
}

// NewGormReturnsTransactionScope creates a new GormReturnsTransactionScope
func NewGormReturnsTransactionScope(db *gorm.DB) *GormReturnsTransactionScope {
	return &GormReturnsTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormReturnsTransactionScope) Execute(ctx context.Context, fn func(repos appreturns.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormReturnsRepositories{tx: tx})
	})
}

// gormReturnsRepositories provides the repositories bound to one transaction
type gormReturnsRepositories struct {
	tx *gorm.DB
}

// ReturnRepo returns the return request repository scoped to the current transaction
func (r *gormReturnsRepositories) ReturnRepo() returns.ReturnRequestRepository {
	return NewGormReturnRequestRepository(r.tx)
}

// OrderRepo returns the shop order repository scoped to the current transaction
func (r *gormReturnsRepositories) OrderRepo() order.ShopOrderRepository {
	return NewGormShopOrderRepository(r.tx)
}

// LocationRepo returns the stock location repository scoped to the current transaction
func (r *gormReturnsRepositories) LocationRepo() stock.StockLocationRepository {
	return NewGormStockLocationRepository(r.tx)
}

// AllocationRepo returns the allocation record repository scoped to the current transaction
func (r *gormReturnsRepositories) AllocationRepo() stock.AllocationRecordRepository {
	return NewGormAllocationRecordRepository(r.tx)
}

var _ appreturns.TransactionScope = (*GormReturnsTransactionScope)(nil)
var _ appreturns.TransactionalRepositories = (*gormReturnsRepositories)(nil)
