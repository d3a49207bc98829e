package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/returns"
)

// SubmitReturnItemInput is one requested return line
type SubmitReturnItemInput struct {
	OrderLineID uuid.UUID
	ProductID   *uuid.UUID
	VariantID   *uuid.UUID
	Quantity    decimal.Decimal
}

// SubmitReturnMediaInput is one customer-supplied attachment
type SubmitReturnMediaInput struct {
	Kind returns.MediaKind
	URL  string
}

// SubmitReturnCommand opens a pending return request against a fulfilled order
type SubmitReturnCommand struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Reason     string
	Items      []SubmitReturnItemInput
	Media      []SubmitReturnMediaInput
}

// DecideReturnCommand approves or denies a pending request
type DecideReturnCommand struct {
	RequestID uuid.UUID
	Approve   bool
	Notes     string
}

// AssignAgentCommand assigns a delivery agent to an approved request
type AssignAgentCommand struct {
	RequestID  uuid.UUID
	AgentID    uuid.UUID
	AssignedBy uuid.UUID
	Notes      string
}

// PickupOutcome is the per-item condition verdict recorded by the agent on
// the doorstep
type PickupOutcome string

const (
	PickupOutcomeUndamaged PickupOutcome = "UNDAMAGED"
	PickupOutcomeDamaged   PickupOutcome = "DAMAGED"
	PickupOutcomeLost      PickupOutcome = "LOST"
)

// IsValid reports whether the outcome is one of the known verdicts
func (o PickupOutcome) IsValid() bool {
	switch o {
	case PickupOutcomeUndamaged, PickupOutcomeDamaged, PickupOutcomeLost:
		return true
	}
	return false
}

// PickupItemDecision carries the agent's verdict for one return item
type PickupItemDecision struct {
	ReturnItemID uuid.UUID
	Outcome      PickupOutcome
	Notes        string
}

// ProcessPickupCommand finishes a pickup and reconciles inventory
type ProcessPickupCommand struct {
	RequestID      uuid.UUID
	AgentID        uuid.UUID
	Decisions      []PickupItemDecision
	IdempotencyKey string
}

// PickupItemResult reports what happened to one item during reconciliation.
// Restocked stays false for damaged or lost goods and for items whose stock
// could not be credited; Message explains why.
type PickupItemResult struct {
	ReturnItemID uuid.UUID       `json:"return_item_id"`
	ProductName  string          `json:"product_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Outcome      PickupOutcome   `json:"outcome"`
	Restocked    bool            `json:"restocked"`
	BatchNumbers []string        `json:"batch_numbers,omitempty"`
	Message      string          `json:"message"`
}

// PickupResult is the full outcome of one processed pickup
type PickupResult struct {
	ReturnRequestID uuid.UUID          `json:"return_request_id"`
	OrderID         uuid.UUID          `json:"order_id"`
	CompletedAt     time.Time          `json:"completed_at"`
	Items           []PickupItemResult `json:"items"`
	Summary         string             `json:"summary"`
}

// ReturnItemResult is the read model for one item on a request. Clients need
// the item IDs to submit pickup decisions.
type ReturnItemResult struct {
	ItemID      uuid.UUID       `json:"item_id"`
	OrderLineID uuid.UUID       `json:"order_line_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ReturnRequestResult is the read model handed to the interface layer
type ReturnRequestResult struct {
	RequestID      uuid.UUID              `json:"request_id"`
	OrderID        uuid.UUID              `json:"order_id"`
	CustomerID     uuid.UUID              `json:"customer_id"`
	Status         returns.ReturnStatus   `json:"status"`
	DeliveryStatus returns.DeliveryStatus `json:"delivery_status"`
	Reason         string                 `json:"reason"`
	SubmittedAt    time.Time              `json:"submitted_at"`
	DecisionNotes  string                 `json:"decision_notes,omitempty"`
	DecidedAt      *time.Time             `json:"decided_at,omitempty"`
	AgentID        *uuid.UUID             `json:"agent_id,omitempty"`
	RefundAmount   *decimal.Decimal       `json:"refund_amount,omitempty"`
	ItemCount      int                    `json:"item_count"`
	Items          []ReturnItemResult     `json:"items"`
}

// NewReturnRequestResult projects the aggregate into the read model
func NewReturnRequestResult(r *returns.ReturnRequest) *ReturnRequestResult {
	items := make([]ReturnItemResult, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, ReturnItemResult{
			ItemID:      item.ID,
			OrderLineID: item.OrderLineID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}
	return &ReturnRequestResult{
		RequestID:      r.ID,
		OrderID:        r.OrderID,
		CustomerID:     r.CustomerID,
		Status:         r.Status,
		DeliveryStatus: r.DeliveryStatus,
		Reason:         r.Reason,
		SubmittedAt:    r.SubmittedAt,
		DecisionNotes:  r.DecisionNotes,
		DecidedAt:      r.DecidedAt,
		AgentID:        r.AgentID,
		RefundAmount:   r.RefundAmount,
		ItemCount:      len(r.Items),
		Items:          items,
	}
}
