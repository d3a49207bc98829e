package persistence

import (
	"context"

	appstock "github.com/stockroom/backend/internal/application/stock"
	"github.com/stockroom/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormStockTransactionScope implements the stock TransactionScope using GORM
// transactions. Every repository handed to the callback shares one
// transaction, which is what makes allocation all-or-nothing.
type GormStockTransactionScope struct {
	db *gorm.DB
}

// NewGormStockTransactionScope creates a new GormStockTransactionScope
func NewGormStockTransactionScope(db *gorm.DB) *GormStockTransactionScope {
	return &GormStockTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormStockTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStockRepositories{tx: tx})
	})
}

// gormStockRepositories provides the stock repositories bound to one transaction
type gormStockRepositories struct {
	tx *gorm.DB
}

// LocationRepo returns the stock location repository scoped to the current transaction
func (r *gormStockRepositories) LocationRepo() stock.StockLocationRepository {
	return NewGormStockLocationRepository(r.tx)
}

// ReservationRepo returns the reservation lock repository scoped to the current transaction
func (r *gormStockRepositories) ReservationRepo() stock.ReservationLockRepository {
	return NewGormReservationLockRepository(r.tx)
}

// AllocationRepo returns the allocation record repository scoped to the current transaction
func (r *gormStockRepositories) AllocationRepo() stock.AllocationRecordRepository {
	return NewGormAllocationRecordRepository(r.tx)
}

var _ appstock.TransactionScope = (*GormStockTransactionScope)(nil)
var _ appstock.TransactionalRepositories = (*gormStockRepositories)(nil)
