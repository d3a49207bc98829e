package returns

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
)

// Return-specific domain errors
var (
	ErrReturnQuantityExceedsOrder = shared.NewDomainError("RETURN_QUANTITY_EXCEEDS_ORDER", "Return quantity exceeds the original order line quantity")
	ErrReturnSKUMismatch          = shared.NewDomainError("RETURN_SKU_MISMATCH", "Return item does not reference the order line's product or variant")
	ErrAppealNotAllowed           = shared.NewDomainError("APPEAL_NOT_ALLOWED", "Appeal is only allowed once on a denied return request")
	ErrAgentMismatch              = shared.NewDomainError("AGENT_MISMATCH", "Pickup agent does not match the assigned delivery agent")
	ErrNoAgentAssigned            = shared.NewDomainError("NO_AGENT_ASSIGNED", "No delivery agent is assigned to this return request")
)

// NewStatePairingError builds the fatal invariant failure for an illegal
// (status, deliveryStatus) combination. It indicates a bug or a concurrent
// modification race and must abort the whole pickup operation.
func NewStatePairingError(status ReturnStatus, delivery DeliveryStatus) *shared.DomainError {
	return shared.NewDomainError("RETURN_STATE_PAIRING_VIOLATION",
		fmt.Sprintf("Illegal return state pairing: status=%s deliveryStatus=%s", status, delivery))
}

// ReturnItem is one returned line. It mirrors the order line's SKU reference:
// a return can never silently target a different product or variant.
type ReturnItem struct {
	shared.BaseEntity
	ReturnRequestID uuid.UUID
	OrderLineID     uuid.UUID
	ProductID       *uuid.UUID
	VariantID       *uuid.UUID
	ProductName     string
	Quantity        decimal.Decimal
}

// NewReturnItem creates a return item against an order line. The quantity must
// be positive and can never exceed the line's original quantity.
func NewReturnItem(orderLineID uuid.UUID, productID, variantID *uuid.UUID, productName string, quantity, originalQuantity decimal.Decimal) (*ReturnItem, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Return quantity must be positive")
	}
	if quantity.GreaterThan(originalQuantity) {
		return nil, ErrReturnQuantityExceedsOrder
	}
	if (productID == nil) == (variantID == nil) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Exactly one of product and variant must be set on a return item")
	}
	return &ReturnItem{
		BaseEntity:  shared.NewBaseEntity(),
		OrderLineID: orderLineID,
		ProductID:   productID,
		VariantID:   variantID,
		ProductName: productName,
		Quantity:    quantity,
	}, nil
}

// ReturnAppeal is the single appeal allowed on a denied request. Its
// one-level machine mirrors the outer one at smaller scope.
type ReturnAppeal struct {
	shared.BaseEntity
	ReturnRequestID uuid.UUID
	Reason          string
	Status          AppealStatus
	DecisionNotes   string
	DecidedAt       *time.Time
}

// Decide stamps the appeal decision
func (a *ReturnAppeal) Decide(approve bool, notes string) error {
	if a.Status != AppealStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Appeal has already been decided")
	}
	if notes == "" {
		return shared.NewDomainError("INVALID_INPUT", "Decision notes are required")
	}
	now := time.Now()
	if approve {
		a.Status = AppealStatusApproved
	} else {
		a.Status = AppealStatusDenied
	}
	a.DecisionNotes = notes
	a.DecidedAt = &now
	a.UpdatedAt = now
	return nil
}

// MediaKind distinguishes attachment types on a return request
type MediaKind string

const (
	MediaKindPhoto MediaKind = "PHOTO"
	MediaKindVideo MediaKind = "VIDEO"
)

// ReturnMedia is a customer-supplied attachment documenting the return
type ReturnMedia struct {
	shared.BaseEntity
	ReturnRequestID uuid.UUID
	Kind            MediaKind
	URL             string
}

// ReturnRequest is the aggregate root for one request to return part or all
// of a fulfilled shop order. It owns the returned items, an optional appeal,
// media attachments, refund tracking, and the nested delivery sub-state.
type ReturnRequest struct {
	shared.BaseAggregateRoot
	OrderID     uuid.UUID
	CustomerID  uuid.UUID
	Reason      string
	Status      ReturnStatus
	SubmittedAt time.Time

	DecisionNotes string
	DecidedAt     *time.Time

	DeliveryStatus      DeliveryStatus
	AgentID             *uuid.UUID
	AssignedBy          *uuid.UUID
	AssignedAt          *time.Time
	AssignmentNotes     string
	ScheduledPickupTime *time.Time
	PickupStartedAt     *time.Time
	ActualPickupTime    *time.Time
	PickupCompletedAt   *time.Time
	PickupFailureReason string
	CancellationReason  string

	RefundProcessed   bool
	RefundAmount      *decimal.Decimal
	RefundProcessedAt *time.Time

	Items  []ReturnItem
	Appeal *ReturnAppeal
	Media  []ReturnMedia
}

// NewReturnRequest creates a pending return request with its items
func NewReturnRequest(orderID, customerID uuid.UUID, reason string, items []ReturnItem) (*ReturnRequest, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order reference is required")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Return reason is required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "A return request needs at least one item")
	}

	request := &ReturnRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		CustomerID:        customerID,
		Reason:            reason,
		Status:            ReturnStatusPending,
		SubmittedAt:       time.Now(),
		DeliveryStatus:    DeliveryStatusNotAssigned,
		Items:             make([]ReturnItem, 0, len(items)),
		Media:             make([]ReturnMedia, 0),
	}
	for _, item := range items {
		item.ReturnRequestID = request.ID
		request.Items = append(request.Items, item)
	}
	request.AddDomainEvent(NewReturnSubmittedEvent(request.ID, orderID, len(items)))
	return request, nil
}

// FindItem returns the owned item with the given ID
func (r *ReturnRequest) FindItem(itemID uuid.UUID) (*ReturnItem, error) {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return &r.Items[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// AttachMedia adds a media attachment to the request
func (r *ReturnRequest) AttachMedia(kind MediaKind, url string) error {
	if url == "" {
		return shared.NewDomainError("INVALID_INPUT", "Media URL is required")
	}
	r.Media = append(r.Media, ReturnMedia{
		BaseEntity:      shared.NewBaseEntity(),
		ReturnRequestID: r.ID,
		Kind:            kind,
		URL:             url,
	})
	r.UpdatedAt = time.Now()
	return nil
}

// Approve moves the request PENDING -> APPROVED, stamps the decision and
// makes the delivery sub-state meaningful
func (r *ReturnRequest) Approve(notes string) error {
	if !r.Status.CanTransitionTo(ReturnStatusApproved) {
		return NewInvalidReturnStatusError(r.Status, ReturnStatusApproved)
	}
	if notes == "" {
		return shared.NewDomainError("INVALID_INPUT", "Decision notes are required")
	}
	now := time.Now()
	r.Status = ReturnStatusApproved
	r.DecisionNotes = notes
	r.DecidedAt = &now
	if r.DeliveryStatus == "" {
		r.DeliveryStatus = DeliveryStatusNotAssigned
	}
	r.UpdatedAt = now
	r.AddDomainEvent(NewReturnDecidedEvent(r.ID, r.OrderID, ReturnStatusApproved))
	return nil
}

// Deny moves the request PENDING -> DENIED and stamps the decision
func (r *ReturnRequest) Deny(notes string) error {
	if !r.Status.CanTransitionTo(ReturnStatusDenied) {
		return NewInvalidReturnStatusError(r.Status, ReturnStatusDenied)
	}
	if notes == "" {
		return shared.NewDomainError("INVALID_INPUT", "Decision notes are required")
	}
	now := time.Now()
	r.Status = ReturnStatusDenied
	r.DecisionNotes = notes
	r.DecidedAt = &now
	r.UpdatedAt = now
	r.AddDomainEvent(NewReturnDecidedEvent(r.ID, r.OrderID, ReturnStatusDenied))
	return nil
}

// requireApproved gates every delivery transition on the parent status
func (r *ReturnRequest) requireApproved() error {
	if r.Status != ReturnStatusApproved {
		return shared.NewDomainError("INVALID_RETURN_STATUS",
			fmt.Sprintf("Delivery transitions require an approved request, current status is %s", r.Status))
	}
	return nil
}

// AssignAgent assigns a delivery agent for the pickup. Re-assignment is only
// permitted after CANCELLED or PICKUP_FAILED.
func (r *ReturnRequest) AssignAgent(agentID, assignedBy uuid.UUID, notes string) error {
	if err := r.requireApproved(); err != nil {
		return err
	}
	if agentID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "Agent reference is required")
	}
	if !r.DeliveryStatus.CanTransitionTo(DeliveryStatusAssigned) {
		return NewInvalidDeliveryStatusError(r.DeliveryStatus, DeliveryStatusAssigned)
	}
	now := time.Now()
	r.DeliveryStatus = DeliveryStatusAssigned
	r.AgentID = &agentID
	r.AssignedBy = &assignedBy
	r.AssignedAt = &now
	r.AssignmentNotes = notes
	r.PickupFailureReason = ""
	r.CancellationReason = ""
	r.UpdatedAt = now
	r.AddDomainEvent(NewAgentAssignedEvent(r.ID, agentID))
	return nil
}

// SchedulePickup records an agreed pickup time
func (r *ReturnRequest) SchedulePickup(at time.Time) error {
	if err := r.requireApproved(); err != nil {
		return err
	}
	if !r.DeliveryStatus.CanTransitionTo(DeliveryStatusPickupScheduled) {
		return NewInvalidDeliveryStatusError(r.DeliveryStatus, DeliveryStatusPickupScheduled)
	}
	r.DeliveryStatus = DeliveryStatusPickupScheduled
	r.ScheduledPickupTime = &at
	r.UpdatedAt = time.Now()
	return nil
}

// StartPickup marks the agent as on the way
func (r *ReturnRequest) StartPickup() error {
	if err := r.requireApproved(); err != nil {
		return err
	}
	if !r.DeliveryStatus.CanTransitionTo(DeliveryStatusPickupInProgress) {
		return NewInvalidDeliveryStatusError(r.DeliveryStatus, DeliveryStatusPickupInProgress)
	}
	now := time.Now()
	r.DeliveryStatus = DeliveryStatusPickupInProgress
	r.PickupStartedAt = &now
	r.UpdatedAt = now
	return nil
}

// FailPickup records a failed pickup attempt; the agent can be re-assigned
func (r *ReturnRequest) FailPickup(reason string) error {
	if err := r.requireApproved(); err != nil {
		return err
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Failure reason is required")
	}
	if !r.DeliveryStatus.CanTransitionTo(DeliveryStatusPickupFailed) {
		return NewInvalidDeliveryStatusError(r.DeliveryStatus, DeliveryStatusPickupFailed)
	}
	r.DeliveryStatus = DeliveryStatusPickupFailed
	r.PickupFailureReason = reason
	r.UpdatedAt = time.Now()
	return nil
}

// CancelPickup withdraws the assignment before the pickup started
func (r *ReturnRequest) CancelPickup(reason string) error {
	if err := r.requireApproved(); err != nil {
		return err
	}
	if !r.DeliveryStatus.CanTransitionTo(DeliveryStatusCancelled) {
		return NewInvalidDeliveryStatusError(r.DeliveryStatus, DeliveryStatusCancelled)
	}
	r.DeliveryStatus = DeliveryStatusCancelled
	r.CancellationReason = reason
	r.UpdatedAt = time.Now()
	return nil
}

// VerifyAgent checks that the given agent is the one assigned to this request
func (r *ReturnRequest) VerifyAgent(agentID uuid.UUID) error {
	if r.AgentID == nil {
		return ErrNoAgentAssigned
	}
	if *r.AgentID != agentID {
		return ErrAgentMismatch
	}
	return nil
}

// MarkPickupCompleted finishes the reconciled pickup: it re-checks the
// APPROVED/ASSIGNED precondition (defense against concurrent modification),
// moves the request to COMPLETED with deliveryStatus PICKUP_COMPLETED, and
// backfills pickup timestamps with now where absent, since the terminal
// pairing requires them to be set.
func (r *ReturnRequest) MarkPickupCompleted(now time.Time) error {
	if r.Status != ReturnStatusApproved {
		return NewInvalidReturnStatusError(r.Status, ReturnStatusCompleted)
	}
	if r.DeliveryStatus != DeliveryStatusAssigned {
		return NewInvalidDeliveryStatusError(r.DeliveryStatus, DeliveryStatusPickupCompleted)
	}
	r.Status = ReturnStatusCompleted
	r.DeliveryStatus = DeliveryStatusPickupCompleted
	r.PickupCompletedAt = &now
	if r.ActualPickupTime == nil {
		r.ActualPickupTime = &now
	}
	if r.PickupStartedAt == nil {
		r.PickupStartedAt = &now
	}
	r.UpdatedAt = now
	r.AddDomainEvent(NewReturnCompletedEvent(r.ID, r.OrderID))
	return nil
}

// ValidateStatePairing is the pure legal-pairing predicate over the composite
// (status, deliveryStatus) state: COMPLETED iff PICKUP_COMPLETED, and the
// terminal pair requires agent, decision and pickup timestamps to be present.
// A violation is a fatal programming-level error.
func (r *ReturnRequest) ValidateStatePairing() error {
	completed := r.Status == ReturnStatusCompleted
	pickedUp := r.DeliveryStatus == DeliveryStatusPickupCompleted
	if completed != pickedUp {
		return NewStatePairingError(r.Status, r.DeliveryStatus)
	}
	if completed {
		if r.AgentID == nil || r.DecidedAt == nil || r.AssignedAt == nil || r.PickupCompletedAt == nil {
			return NewStatePairingError(r.Status, r.DeliveryStatus)
		}
	}
	return nil
}

// CanBeAppealed reports whether an appeal may be opened: only on a denied
// request that has not been appealed yet
func (r *ReturnRequest) CanBeAppealed() bool {
	return r.Status == ReturnStatusDenied && r.Appeal == nil
}

// OpenAppeal opens the single allowed appeal on a denied request
func (r *ReturnRequest) OpenAppeal(reason string) (*ReturnAppeal, error) {
	if !r.CanBeAppealed() {
		return nil, ErrAppealNotAllowed
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Appeal reason is required")
	}
	r.Appeal = &ReturnAppeal{
		BaseEntity:      shared.NewBaseEntity(),
		ReturnRequestID: r.ID,
		Reason:          reason,
		Status:          AppealStatusPending,
	}
	r.UpdatedAt = time.Now()
	r.AddDomainEvent(NewAppealOpenedEvent(r.ID, r.Appeal.ID))
	return r.Appeal, nil
}

// DecideAppeal stamps the appeal decision
func (r *ReturnRequest) DecideAppeal(approve bool, notes string) error {
	if r.Appeal == nil {
		return shared.ErrNotFound
	}
	if err := r.Appeal.Decide(approve, notes); err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	return nil
}

// MarkRefundProcessed records the refund for a completed return
func (r *ReturnRequest) MarkRefundProcessed(amount decimal.Decimal) error {
	if r.Status != ReturnStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Refund can only be processed on a completed return")
	}
	if r.RefundProcessed {
		return shared.NewDomainError("INVALID_STATE", "Refund has already been processed")
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Refund amount cannot be negative")
	}
	now := time.Now()
	r.RefundProcessed = true
	r.RefundAmount = &amount
	r.RefundProcessedAt = &now
	r.UpdatedAt = now
	return nil
}
