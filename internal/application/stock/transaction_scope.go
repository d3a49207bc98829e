package stock

import (
	"context"

	"github.com/stockroom/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the stock repositories.
// All repository operations performed inside Execute share one database
// transaction and commit or roll back atomically — this is what makes an
// allocation call all-or-nothing.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the stock repositories bound to the
// current transaction.
//
// Aggregate boundary notes:
//   - LocationRepo: batches are child entities of StockLocation and are
//     persisted with their aggregate root.
//   - ReservationRepo: locks are stored separately for expiry-sweep queries
//     but participate in the same transaction here.
//   - AllocationRepo: append-only allocation trace records.
type TransactionalRepositories interface {
	LocationRepo() stock.StockLocationRepository
	ReservationRepo() stock.ReservationLockRepository
	AllocationRepo() stock.AllocationRecordRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Used in tests and wherever transactional guarantees are provided elsewhere.
type NoOpTransactionScope struct {
	locationRepo    stock.StockLocationRepository
	reservationRepo stock.ReservationLockRepository
	allocationRepo  stock.AllocationRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	locationRepo stock.StockLocationRepository,
	reservationRepo stock.ReservationLockRepository,
	allocationRepo stock.AllocationRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		locationRepo:    locationRepo,
		reservationRepo: reservationRepo,
		allocationRepo:  allocationRepo,
	}
}

// Execute runs the function directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LocationRepo returns the stock location repository
func (s *NoOpTransactionScope) LocationRepo() stock.StockLocationRepository {
	return s.locationRepo
}

// ReservationRepo returns the reservation lock repository
func (s *NoOpTransactionScope) ReservationRepo() stock.ReservationLockRepository {
	return s.reservationRepo
}

// AllocationRepo returns the allocation record repository
func (s *NoOpTransactionScope) AllocationRepo() stock.AllocationRecordRepository {
	return s.allocationRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
