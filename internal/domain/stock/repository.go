package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StockLocationRepository persists the StockLocation aggregate.
//
// Aggregate boundary notes:
//   - Batches are child entities of StockLocation and have no independent
//     repository; they are loaded and saved with their aggregate root.
//   - SaveWithLock performs an optimistic version check and must fail with
//     a concurrency conflict when the stored version does not match, so two
//     concurrent allocations cannot double-spend the same batch quantity.
type StockLocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockLocation, error)
	// FindByIDs returns the locations in the order of the given IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*StockLocation, error)
	FindBySKUAndWarehouse(ctx context.Context, productID, variantID *uuid.UUID, warehouseID uuid.UUID) (*StockLocation, error)
	Save(ctx context.Context, location *StockLocation) error
	SaveWithLock(ctx context.Context, location *StockLocation) error
}

// ReservationLockRepository persists reservation locks. Locks are stored
// separately from the StockLocation aggregate for expiry-sweep query
// performance.
type ReservationLockRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationLock, error)
	// FindActiveByLocation returns unreleased locks on a location that have
	// not expired as of the given time
	FindActiveByLocation(ctx context.Context, stockLocationID uuid.UUID, now time.Time) ([]ReservationLock, error)
	// FindExpired returns unreleased locks past their expiry as of the given time
	FindExpired(ctx context.Context, now time.Time) ([]ReservationLock, error)
	Save(ctx context.Context, lock *ReservationLock) error
	// ReleaseExpired bulk-releases expired locks and returns how many were touched
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
}

// AllocationRecordRepository persists the immutable allocation trace.
// Records are append-only: there is no update or delete operation.
type AllocationRecordRepository interface {
	// FindByOrderLine returns the records for an order line ordered by
	// creation time ascending, the order restock reconciliation walks them in
	FindByOrderLine(ctx context.Context, orderLineID uuid.UUID) ([]AllocationRecord, error)
	ExistsForOrderLine(ctx context.Context, orderLineID uuid.UUID) (bool, error)
	SaveAll(ctx context.Context, records []*AllocationRecord) error
}
