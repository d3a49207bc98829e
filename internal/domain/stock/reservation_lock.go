package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
)

// DefaultReservationTTL is the lifetime of a reservation lock when the
// caller does not specify one.
const DefaultReservationTTL = 2 * time.Hour

// ReservationLock is a session-scoped hold on batch quantity. It removes
// quantity from sellable availability between "add to cart" and checkout
// completion without being a firm allocation. An expired lock is treated as
// absent by every availability computation; deletion is a cleanup concern,
// not a correctness one.
type ReservationLock struct {
	shared.BaseEntity
	SessionID       string
	StockLocationID uuid.UUID
	BatchID         uuid.UUID
	WarehouseID     uuid.UUID
	Quantity        decimal.Decimal
	ExpiresAt       time.Time
	Released        bool
	ReleasedAt      *time.Time
}

// NewReservationLock creates a reservation lock. A non-positive ttl falls
// back to DefaultReservationTTL.
func NewReservationLock(sessionID string, stockLocationID, batchID, warehouseID uuid.UUID, quantity decimal.Decimal, ttl time.Duration) (*ReservationLock, error) {
	if sessionID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Session ID is required")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Reservation quantity must be positive")
	}
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	base := shared.NewBaseEntity()
	return &ReservationLock{
		BaseEntity:      base,
		SessionID:       sessionID,
		StockLocationID: stockLocationID,
		BatchID:         batchID,
		WarehouseID:     warehouseID,
		Quantity:        quantity,
		ExpiresAt:       base.CreatedAt.Add(ttl),
	}, nil
}

// IsExpired reports whether the lock has passed its expiry
func (l *ReservationLock) IsExpired() bool {
	return l.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the lock is expired as of the given time
func (l *ReservationLock) IsExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// IsActive reports whether the lock still counts against availability
func (l *ReservationLock) IsActive() bool {
	return !l.Released && !l.IsExpired()
}

// Release explicitly releases the hold (checkout completed or cart item
// removed). Releasing twice is rejected.
func (l *ReservationLock) Release() error {
	if l.Released {
		return shared.NewDomainError("INVALID_STATE", "Reservation lock is already released")
	}
	now := time.Now()
	l.Released = true
	l.ReleasedAt = &now
	l.UpdatedAt = now
	return nil
}
