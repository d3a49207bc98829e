package stock

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
)

// BatchDeduction is one planned draw from a batch. Planning is separated
// from application so a failed plan leaves every batch untouched: the engine
// only mutates state after the whole requested quantity is covered.
type BatchDeduction struct {
	StockLocationID uuid.UUID
	BatchID         uuid.UUID
	BatchNumber     string
	WarehouseID     uuid.UUID
	Quantity        decimal.Decimal
}

// candidateBatch pairs a batch with its owning location during planning
type candidateBatch struct {
	location *StockLocation
	batch    *Batch
}

// sortBatchesForAllocation orders batches by ascending expiry date with nil
// expiry last, then by creation time and id as a deterministic tiebreak.
// Oldest-expiring stock is consumed first. This ordering is a business rule:
// changing it silently changes which batches an order line is traced to.
func sortBatchesForAllocation(batches []candidateBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		bi, bj := batches[i].batch, batches[j].batch
		switch {
		case bi.ExpiryDate == nil && bj.ExpiryDate == nil:
			// fall through to tiebreak
		case bi.ExpiryDate == nil:
			return false
		case bj.ExpiryDate == nil:
			return true
		case !bi.ExpiryDate.Equal(*bj.ExpiryDate):
			return bi.ExpiryDate.Before(*bj.ExpiryDate)
		}
		if !bi.CreatedAt.Equal(bj.CreatedAt) {
			return bi.CreatedAt.Before(bj.CreatedAt)
		}
		return bi.ID.String() < bj.ID.String()
	})
}

// PlanAllocation selects ACTIVE batches to cover the requested quantity.
// Locations are visited in the order given (warehouse preference is the
// caller's policy); within each location batches are consumed
// oldest-expiry-first. No batch is mutated. Returns ErrInsufficientStock
// when the candidates cannot cover the full request.
func PlanAllocation(locations []*StockLocation, requested decimal.Decimal) ([]BatchDeduction, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Requested allocation quantity must be positive")
	}

	remaining := requested
	plan := make([]BatchDeduction, 0)

	for _, location := range locations {
		if remaining.IsZero() {
			break
		}
		candidates := make([]candidateBatch, 0)
		for _, batch := range location.ActiveBatches() {
			candidates = append(candidates, candidateBatch{location: location, batch: batch})
		}
		sortBatchesForAllocation(candidates)

		for _, c := range candidates {
			if remaining.IsZero() {
				break
			}
			take := decimal.Min(remaining, c.batch.Quantity)
			if take.LessThanOrEqual(decimal.Zero) {
				continue
			}
			plan = append(plan, BatchDeduction{
				StockLocationID: location.ID,
				BatchID:         c.batch.ID,
				BatchNumber:     c.batch.BatchNumber,
				WarehouseID:     location.WarehouseID,
				Quantity:        take,
			})
			remaining = remaining.Sub(take)
		}
	}

	if remaining.GreaterThan(decimal.Zero) {
		return nil, shared.ErrInsufficientStock
	}
	return plan, nil
}

// ApplyAllocation reduces the planned batches and emits one allocation record
// per deduction, in plan order. The caller is expected to run this inside the
// same transaction that persists the touched locations, so a failure here
// rolls back every reduction already applied.
func ApplyAllocation(orderLineID uuid.UUID, locations []*StockLocation, plan []BatchDeduction) ([]*AllocationRecord, error) {
	byID := make(map[uuid.UUID]*StockLocation, len(locations))
	for _, location := range locations {
		byID[location.ID] = location
	}

	records := make([]*AllocationRecord, 0, len(plan))
	for _, d := range plan {
		location, ok := byID[d.StockLocationID]
		if !ok {
			return nil, shared.ErrNotFound
		}
		if err := location.ReduceBatch(d.BatchID, d.Quantity); err != nil {
			return nil, err
		}
		record, err := NewAllocationRecord(orderLineID, d.StockLocationID, d.BatchID, d.BatchNumber, d.WarehouseID, d.Quantity)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		location.AddDomainEvent(NewStockAllocatedEvent(location.ID, orderLineID, d.BatchID, d.Quantity))
	}
	return records, nil
}

// ReservedQuantity sums the quantity held by unexpired, unreleased locks
func ReservedQuantity(locks []ReservationLock) decimal.Decimal {
	total := decimal.Zero
	for i := range locks {
		if locks[i].IsActive() {
			total = total.Add(locks[i].Quantity)
		}
	}
	return total
}
