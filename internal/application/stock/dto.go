package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiveBatchCommand records a newly received batch at a warehouse,
// creating the stock location on first receipt
type ReceiveBatchCommand struct {
	ProductID           *uuid.UUID
	VariantID           *uuid.UUID
	WarehouseID         uuid.UUID
	BatchNumber         string
	Quantity            decimal.Decimal
	ManufactureDate     *time.Time
	ExpiryDate          *time.Time
	SupplierName        string
	SupplierBatchNumber string
	CostPrice           *decimal.Decimal
}

// BatchResult describes one batch in service responses
type BatchResult struct {
	BatchID         uuid.UUID       `json:"batch_id"`
	StockLocationID uuid.UUID       `json:"stock_location_id"`
	BatchNumber     string          `json:"batch_number"`
	Quantity        decimal.Decimal `json:"quantity"`
	Status          string          `json:"status"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
}

// AllocateCommand requests a firm allocation for one order line.
// CandidateLocationIDs carries the warehouse-ordered preference computed by
// the (external) warehouse-selection policy. The idempotency key guards
// against duplicate invocation for the same line.
type AllocateCommand struct {
	OrderLineID          uuid.UUID
	Quantity             decimal.Decimal
	CandidateLocationIDs []uuid.UUID
	IdempotencyKey       string
}

// AllocationRecordResult is the caller-facing view of one allocation record
type AllocationRecordResult struct {
	RecordID    uuid.UUID       `json:"record_id"`
	OrderLineID uuid.UUID       `json:"order_line_id"`
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AcquireReservationCommand requests a session-scoped hold on batch quantity
type AcquireReservationCommand struct {
	SessionID       string
	StockLocationID uuid.UUID
	BatchID         uuid.UUID
	Quantity        decimal.Decimal
	TTL             time.Duration
}

// ReservationResult is the caller-facing view of a reservation lock
type ReservationResult struct {
	LockID          uuid.UUID       `json:"lock_id"`
	SessionID       string          `json:"session_id"`
	StockLocationID uuid.UUID       `json:"stock_location_id"`
	BatchID         uuid.UUID       `json:"batch_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	ExpiresAt       time.Time       `json:"expires_at"`
}
