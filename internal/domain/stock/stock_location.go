package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
)

// StockLocation is the aggregate root pairing one SKU (a product or,
// exclusively, a product variant) with one warehouse. It owns the batches
// holding the physical quantity. On-hand quantity is never stored: it is
// derived as the sum of quantities over ACTIVE batches.
type StockLocation struct {
	shared.BaseAggregateRoot
	ProductID   *uuid.UUID
	VariantID   *uuid.UUID
	WarehouseID uuid.UUID
	Batches     []Batch
}

// NewStockLocation creates a stock location. Exactly one of productID and
// variantID must be set.
func NewStockLocation(productID, variantID *uuid.UUID, warehouseID uuid.UUID) (*StockLocation, error) {
	if (productID == nil) == (variantID == nil) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Exactly one of product and variant must be set")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Warehouse is required")
	}
	return &StockLocation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		VariantID:         variantID,
		WarehouseID:       warehouseID,
		Batches:           make([]Batch, 0),
	}, nil
}

// SKUID returns the product or variant identifier tracked at this location
func (s *StockLocation) SKUID() uuid.UUID {
	if s.VariantID != nil {
		return *s.VariantID
	}
	if s.ProductID != nil {
		return *s.ProductID
	}
	return uuid.Nil
}

// AvailableQuantity derives the on-hand quantity: the sum of quantities of
// ACTIVE batches. EXPIRED, RECALLED and EMPTY batches contribute zero even
// when their stored quantity is positive.
func (s *StockLocation) AvailableQuantity() decimal.Decimal {
	total := decimal.Zero
	for i := range s.Batches {
		if s.Batches[i].IsActive() {
			total = total.Add(s.Batches[i].Quantity)
		}
	}
	return total
}

// ReceiveBatchInput carries the receiving metadata for a new batch
type ReceiveBatchInput struct {
	BatchNumber         string
	Quantity            decimal.Decimal
	ManufactureDate     *time.Time
	ExpiryDate          *time.Time
	SupplierName        string
	SupplierBatchNumber string
	CostPrice           *decimal.Decimal
}

// ReceiveBatch records a newly received batch under this location
func (s *StockLocation) ReceiveBatch(input ReceiveBatchInput) (*Batch, error) {
	batch, err := NewBatch(s.ID, input.BatchNumber, input.Quantity, input.ManufactureDate, input.ExpiryDate)
	if err != nil {
		return nil, err
	}
	batch.SupplierName = input.SupplierName
	batch.SupplierBatchNumber = input.SupplierBatchNumber
	batch.CostPrice = input.CostPrice

	s.Batches = append(s.Batches, *batch)
	s.UpdatedAt = time.Now()
	s.AddDomainEvent(NewBatchReceivedEvent(s.ID, batch.ID, batch.BatchNumber, batch.Quantity))
	return &s.Batches[len(s.Batches)-1], nil
}

// FindBatch returns the owned batch with the given ID
func (s *StockLocation) FindBatch(batchID uuid.UUID) (*Batch, error) {
	for i := range s.Batches {
		if s.Batches[i].ID == batchID {
			return &s.Batches[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// IncreaseBatch adds quantity to an owned batch
func (s *StockLocation) IncreaseBatch(batchID uuid.UUID, amount decimal.Decimal) error {
	batch, err := s.FindBatch(batchID)
	if err != nil {
		return err
	}
	if err := batch.Increase(amount); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return nil
}

// ReduceBatch removes quantity from an owned batch
func (s *StockLocation) ReduceBatch(batchID uuid.UUID, amount decimal.Decimal) error {
	batch, err := s.FindBatch(batchID)
	if err != nil {
		return err
	}
	if err := batch.Reduce(amount); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return nil
}

// RecallBatch forces an owned batch into RECALLED
func (s *StockLocation) RecallBatch(batchID uuid.UUID, reason string) error {
	batch, err := s.FindBatch(batchID)
	if err != nil {
		return err
	}
	if err := batch.Recall(reason); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	s.AddDomainEvent(NewBatchRecalledEvent(s.ID, batch.ID, batch.BatchNumber, reason))
	return nil
}

// ActiveBatches returns the batches currently contributing to availability
func (s *StockLocation) ActiveBatches() []*Batch {
	active := make([]*Batch, 0, len(s.Batches))
	for i := range s.Batches {
		if s.Batches[i].IsActive() {
			active = append(active, &s.Batches[i])
		}
	}
	return active
}
