package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
)

// OrderStatus is the lifecycle state of a shop order. Only the transitions
// relevant to return reconciliation are modeled here; placement and payment
// are handled by the surrounding order service.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusReturned  OrderStatus = "RETURNED"
)

// ErrCancelledOrderCannotReturn is fatal: a cancelled order must never move
// to RETURNED.
var ErrCancelledOrderCannotReturn = shared.NewDomainError("CANCELLED_ORDER_CANNOT_RETURN", "A cancelled order can never transition to RETURNED")

// DefaultMaxReturnDays is the return window applied when the SKU does not
// configure its own. Deployments may override it at startup.
var DefaultMaxReturnDays = 30

// OrderLine is one fulfilled line of a shop order. It carries a snapshot of
// the SKU's configured return window so later policy changes do not affect
// orders already placed.
type OrderLine struct {
	shared.BaseEntity
	OrderID       uuid.UUID
	ProductID     *uuid.UUID
	VariantID     *uuid.UUID
	ProductName   string
	Quantity      decimal.Decimal
	MaxReturnDays int
}

// EffectiveMaxReturnDays returns the line's return window in days
func (l *OrderLine) EffectiveMaxReturnDays() int {
	if l.MaxReturnDays <= 0 {
		return DefaultMaxReturnDays
	}
	return l.MaxReturnDays
}

// MatchesSKU reports whether the given product/variant pair references the
// same SKU as this line
func (l *OrderLine) MatchesSKU(productID, variantID *uuid.UUID) bool {
	if l.VariantID != nil {
		return variantID != nil && *variantID == *l.VariantID
	}
	if l.ProductID != nil {
		return productID != nil && variantID == nil && *productID == *l.ProductID
	}
	return false
}

// ShopOrder is the read-mostly collaborator aggregate consumed by return
// reconciliation. The only write this subsystem performs on it is the
// RETURNED transition.
type ShopOrder struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID
	Status     OrderStatus
	OrderedAt  time.Time
	Lines      []OrderLine
}

// NewShopOrder creates a fulfilled order with its lines, as handed over by
// the order-placement service
func NewShopOrder(customerID uuid.UUID, orderedAt time.Time, lines []OrderLine) (*ShopOrder, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "An order needs at least one line")
	}
	o := &ShopOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Status:            OrderStatusFulfilled,
		OrderedAt:         orderedAt,
		Lines:             make([]OrderLine, 0, len(lines)),
	}
	for _, line := range lines {
		line.OrderID = o.ID
		o.Lines = append(o.Lines, line)
	}
	return o, nil
}

// FindLine returns the owned line with the given ID
func (o *ShopOrder) FindLine(lineID uuid.UUID) (*OrderLine, error) {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// MarkReturned transitions the order to RETURNED. A cancelled order fails
// fatally; an already-returned order is an idempotent no-op reported through
// the changed flag so the caller can log it.
func (o *ShopOrder) MarkReturned() (changed bool, err error) {
	switch o.Status {
	case OrderStatusCancelled:
		return false, ErrCancelledOrderCannotReturn
	case OrderStatusReturned:
		return false, nil
	default:
		o.Status = OrderStatusReturned
		o.UpdatedAt = time.Now()
		return true, nil
	}
}

// ReturnWindowDaysElapsed returns the whole days between the order date and now
func (o *ShopOrder) ReturnWindowDaysElapsed(now time.Time) int {
	return int(now.Sub(o.OrderedAt).Hours() / 24)
}

// WithinReturnWindow reports whether the given line may still be returned as
// of now, based on the line's snapshotted window
func (o *ShopOrder) WithinReturnWindow(line *OrderLine, now time.Time) bool {
	return o.ReturnWindowDaysElapsed(now) <= line.EffectiveMaxReturnDays()
}
