package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
)

// AllocationRecord is the immutable traceability edge between an order line
// and a batch: it records exactly how much quantity was drawn from which
// batch to fulfill the line. Records are created once at fulfillment time and
// only ever read afterwards, by restock reconciliation. They must outlive
// the return window plus the appeal window.
type AllocationRecord struct {
	shared.BaseEntity
	OrderLineID     uuid.UUID
	StockLocationID uuid.UUID
	BatchID         uuid.UUID
	BatchNumber     string
	WarehouseID     uuid.UUID
	Quantity        decimal.Decimal
}

// NewAllocationRecord creates an allocation record for one (order line, batch)
// pair. Zero-quantity records are rejected; the engine skips them instead.
func NewAllocationRecord(orderLineID, stockLocationID, batchID uuid.UUID, batchNumber string, warehouseID uuid.UUID, quantity decimal.Decimal) (*AllocationRecord, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Allocation quantity must be positive")
	}
	return &AllocationRecord{
		BaseEntity:      shared.NewBaseEntity(),
		OrderLineID:     orderLineID,
		StockLocationID: stockLocationID,
		BatchID:         batchID,
		BatchNumber:     batchNumber,
		WarehouseID:     warehouseID,
		Quantity:        quantity,
	}, nil
}
