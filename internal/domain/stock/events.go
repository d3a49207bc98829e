package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
)

// Event types emitted by the stock aggregate
const (
	EventTypeBatchReceived       = "stock.batch_received"
	EventTypeBatchRecalled       = "stock.batch_recalled"
	EventTypeStockAllocated      = "stock.allocated"
	EventTypeStockRestocked      = "stock.restocked"
	EventTypeReservationAcquired = "stock.reservation_acquired"
	EventTypeReservationReleased = "stock.reservation_released"
	EventTypeReservationExpired  = "stock.reservation_expired"
)

const aggregateTypeStockLocation = "StockLocation"

// BatchReceivedEvent is emitted when a new batch is received at a location
type BatchReceivedEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewBatchReceivedEvent creates a BatchReceivedEvent
func NewBatchReceivedEvent(locationID, batchID uuid.UUID, batchNumber string, quantity decimal.Decimal) *BatchReceivedEvent {
	return &BatchReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchReceived, aggregateTypeStockLocation, locationID),
		BatchID:         batchID,
		BatchNumber:     batchNumber,
		Quantity:        quantity,
	}
}

// BatchRecalledEvent is emitted when a batch is administratively recalled
type BatchRecalledEvent struct {
	shared.BaseDomainEvent
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	Reason      string    `json:"reason"`
}

// NewBatchRecalledEvent creates a BatchRecalledEvent
func NewBatchRecalledEvent(locationID, batchID uuid.UUID, batchNumber, reason string) *BatchRecalledEvent {
	return &BatchRecalledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchRecalled, aggregateTypeStockLocation, locationID),
		BatchID:         batchID,
		BatchNumber:     batchNumber,
		Reason:          reason,
	}
}

// StockAllocatedEvent is emitted when quantity is firmly drawn from a batch
type StockAllocatedEvent struct {
	shared.BaseDomainEvent
	OrderLineID uuid.UUID       `json:"order_line_id"`
	BatchID     uuid.UUID       `json:"batch_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewStockAllocatedEvent creates a StockAllocatedEvent
func NewStockAllocatedEvent(locationID, orderLineID, batchID uuid.UUID, quantity decimal.Decimal) *StockAllocatedEvent {
	return &StockAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAllocated, aggregateTypeStockLocation, locationID),
		OrderLineID:     orderLineID,
		BatchID:         batchID,
		Quantity:        quantity,
	}
}

// StockRestockedEvent is emitted when returned quantity is re-credited to a batch
type StockRestockedEvent struct {
	shared.BaseDomainEvent
	ReturnRequestID uuid.UUID       `json:"return_request_id"`
	BatchID         uuid.UUID       `json:"batch_id"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// NewStockRestockedEvent creates a StockRestockedEvent
func NewStockRestockedEvent(locationID, returnRequestID, batchID uuid.UUID, quantity decimal.Decimal) *StockRestockedEvent {
	return &StockRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestocked, aggregateTypeStockLocation, locationID),
		ReturnRequestID: returnRequestID,
		BatchID:         batchID,
		Quantity:        quantity,
	}
}

// ReservationAcquiredEvent is emitted when a session acquires a reservation lock
type ReservationAcquiredEvent struct {
	shared.BaseDomainEvent
	LockID    uuid.UUID       `json:"lock_id"`
	SessionID string          `json:"session_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// NewReservationAcquiredEvent creates a ReservationAcquiredEvent
func NewReservationAcquiredEvent(locationID, lockID uuid.UUID, sessionID string, quantity decimal.Decimal) *ReservationAcquiredEvent {
	return &ReservationAcquiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationAcquired, aggregateTypeStockLocation, locationID),
		LockID:          lockID,
		SessionID:       sessionID,
		Quantity:        quantity,
	}
}

// ReservationReleasedEvent is emitted on explicit release of a lock
type ReservationReleasedEvent struct {
	shared.BaseDomainEvent
	LockID    uuid.UUID `json:"lock_id"`
	SessionID string    `json:"session_id"`
}

// NewReservationReleasedEvent creates a ReservationReleasedEvent
func NewReservationReleasedEvent(locationID, lockID uuid.UUID, sessionID string) *ReservationReleasedEvent {
	return &ReservationReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationReleased, aggregateTypeStockLocation, locationID),
		LockID:          lockID,
		SessionID:       sessionID,
	}
}

// ReservationExpiredEvent is emitted when the sweeper reclaims an expired lock
type ReservationExpiredEvent struct {
	shared.BaseDomainEvent
	LockID    uuid.UUID `json:"lock_id"`
	SessionID string    `json:"session_id"`
}

// NewReservationExpiredEvent creates a ReservationExpiredEvent
func NewReservationExpiredEvent(locationID, lockID uuid.UUID, sessionID string) *ReservationExpiredEvent {
	return &ReservationExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationExpired, aggregateTypeStockLocation, locationID),
		LockID:          lockID,
		SessionID:       sessionID,
	}
}
