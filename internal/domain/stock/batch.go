package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
)

// BatchStatus represents the lifecycle state of a stock batch
type BatchStatus string

const (
	// BatchStatusActive means the batch has sellable quantity
	BatchStatusActive BatchStatus = "ACTIVE"
	// BatchStatusEmpty means the batch quantity has been fully consumed
	BatchStatusEmpty BatchStatus = "EMPTY"
	// BatchStatusExpired means the batch expiry date has passed
	BatchStatusExpired BatchStatus = "EXPIRED"
	// BatchStatusRecalled means the batch was administratively recalled.
	// Recall is sticky: automatic status recomputation never clears it.
	BatchStatusRecalled BatchStatus = "RECALLED"
)

// Batch-specific domain errors
var (
	ErrInsufficientBatchQuantity = shared.NewDomainError("INSUFFICIENT_BATCH_QUANTITY", "Reduction exceeds current batch quantity")
	ErrBatchRecalled             = shared.NewDomainError("BATCH_RECALLED", "Batch has been recalled")
)

// Batch is a quantity of one SKU at one warehouse sharing manufacture,
// expiry and supplier metadata. Batches are created at receiving time and
// never deleted; a fully consumed batch stays at quantity zero (EMPTY) so
// allocation traceability is preserved.
type Batch struct {
	shared.BaseEntity
	StockLocationID     uuid.UUID
	BatchNumber         string
	ManufactureDate     *time.Time
	ExpiryDate          *time.Time
	Quantity            decimal.Decimal
	Status              BatchStatus
	SupplierName        string
	SupplierBatchNumber string
	CostPrice           *decimal.Decimal
	RecallReason        string
	RecalledAt          *time.Time
}

// NewBatch creates a batch under a stock location
func NewBatch(stockLocationID uuid.UUID, batchNumber string, quantity decimal.Decimal, manufactureDate, expiryDate *time.Time) (*Batch, error) {
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Batch number is required")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Batch quantity cannot be negative")
	}
	b := &Batch{
		BaseEntity:      shared.NewBaseEntity(),
		StockLocationID: stockLocationID,
		BatchNumber:     batchNumber,
		ManufactureDate: manufactureDate,
		ExpiryDate:      expiryDate,
		Quantity:        quantity,
	}
	b.RecomputeStatus(time.Now())
	return b, nil
}

// IsActive reports whether the batch contributes to sellable quantity
func (b *Batch) IsActive() bool {
	return b.Status == BatchStatusActive
}

// IsRecalled reports whether the batch has been recalled
func (b *Batch) IsRecalled() bool {
	return b.Status == BatchStatusRecalled
}

// IsExpiredAt reports whether the expiry date has passed as of the given time.
// A batch expiring today is not yet expired.
func (b *Batch) IsExpiredAt(now time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return dateOf(*b.ExpiryDate).Before(dateOf(now))
}

// Increase adds quantity to the batch and recomputes its status.
// A recalled batch accepts no further stock. Used by restock reconciliation.
func (b *Batch) Increase(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Increase amount cannot be negative")
	}
	if b.Status == BatchStatusRecalled {
		return ErrBatchRecalled
	}
	b.Quantity = b.Quantity.Add(amount)
	b.RecomputeStatus(time.Now())
	b.UpdatedAt = time.Now()
	return nil
}

// Reduce removes quantity from the batch and recomputes its status.
// Fails without any partial decrement when the amount exceeds the current
// quantity. Used by the allocation engine.
func (b *Batch) Reduce(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Reduction amount cannot be negative")
	}
	if amount.GreaterThan(b.Quantity) {
		return ErrInsufficientBatchQuantity
	}
	b.Quantity = b.Quantity.Sub(amount)
	b.RecomputeStatus(time.Now())
	b.UpdatedAt = time.Now()
	return nil
}

// Recall forces the batch into RECALLED. The recall is terminal within this
// subsystem: RecomputeStatus will never move the batch out of it.
func (b *Batch) Recall(reason string) error {
	if b.Status == BatchStatusRecalled {
		return ErrBatchRecalled
	}
	now := time.Now()
	b.Status = BatchStatusRecalled
	b.RecallReason = reason
	b.RecalledAt = &now
	b.UpdatedAt = now
	return nil
}

// RecomputeStatus derives the batch status from quantity and expiry.
// Precedence: RECALLED (sticky, left untouched) > EMPTY > EXPIRED > ACTIVE.
// Called after every quantity mutation.
func (b *Batch) RecomputeStatus(now time.Time) {
	if b.Status == BatchStatusRecalled {
		return
	}
	switch {
	case b.Quantity.LessThanOrEqual(decimal.Zero):
		b.Status = BatchStatusEmpty
	case b.IsExpiredAt(now):
		b.Status = BatchStatusExpired
	default:
		b.Status = BatchStatusActive
	}
}

// dateOf truncates a timestamp to its calendar date
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
