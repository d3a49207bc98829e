package returns

import (
	"fmt"

	"github.com/stockroom/backend/internal/domain/shared"
)

// ReturnStatus is the outer lifecycle state of a return request
type ReturnStatus string

const (
	// ReturnStatusPending means the request awaits a decision
	ReturnStatusPending ReturnStatus = "PENDING"
	// ReturnStatusApproved means the request was approved and may enter the
	// delivery sub-workflow
	ReturnStatusApproved ReturnStatus = "APPROVED"
	// ReturnStatusDenied is terminal; only an appeal can follow
	ReturnStatusDenied ReturnStatus = "DENIED"
	// ReturnStatusCompleted is terminal; pickup succeeded and stock was reconciled
	ReturnStatusCompleted ReturnStatus = "COMPLETED"
)

// IsValid reports whether the value is a known status
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusDenied, ReturnStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no further outer transition is legal
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusDenied || s == ReturnStatusCompleted
}

// CanTransitionTo reports whether the outer machine allows the move.
// Status only advances forward: PENDING -> APPROVED|DENIED, APPROVED -> COMPLETED.
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusPending:
		return target == ReturnStatusApproved || target == ReturnStatusDenied
	case ReturnStatusApproved:
		return target == ReturnStatusCompleted
	default:
		return false
	}
}

// DeliveryStatus is the nested pickup sub-state, meaningful only once the
// parent request is APPROVED
type DeliveryStatus string

const (
	DeliveryStatusNotAssigned      DeliveryStatus = "NOT_ASSIGNED"
	DeliveryStatusAssigned         DeliveryStatus = "ASSIGNED"
	DeliveryStatusPickupScheduled  DeliveryStatus = "PICKUP_SCHEDULED"
	DeliveryStatusPickupInProgress DeliveryStatus = "PICKUP_IN_PROGRESS"
	DeliveryStatusPickupCompleted  DeliveryStatus = "PICKUP_COMPLETED"
	DeliveryStatusPickupFailed     DeliveryStatus = "PICKUP_FAILED"
	DeliveryStatusCancelled        DeliveryStatus = "CANCELLED"
)

// IsValid reports whether the value is a known delivery status
func (s DeliveryStatus) IsValid() bool {
	switch s {
	case DeliveryStatusNotAssigned, DeliveryStatusAssigned, DeliveryStatusPickupScheduled,
		DeliveryStatusPickupInProgress, DeliveryStatusPickupCompleted,
		DeliveryStatusPickupFailed, DeliveryStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the legal delivery moves. Re-assignment back to
// ASSIGNED is permitted only from CANCELLED and PICKUP_FAILED.
func (s DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	switch s {
	case DeliveryStatusNotAssigned:
		return target == DeliveryStatusAssigned
	case DeliveryStatusAssigned:
		return target == DeliveryStatusPickupScheduled ||
			target == DeliveryStatusPickupInProgress ||
			target == DeliveryStatusPickupCompleted ||
			target == DeliveryStatusCancelled
	case DeliveryStatusPickupScheduled:
		return target == DeliveryStatusPickupInProgress ||
			target == DeliveryStatusCancelled
	case DeliveryStatusPickupInProgress:
		return target == DeliveryStatusPickupCompleted ||
			target == DeliveryStatusPickupFailed
	case DeliveryStatusCancelled, DeliveryStatusPickupFailed:
		return target == DeliveryStatusAssigned
	default:
		return false
	}
}

// AppealStatus is the one-level state of a return appeal
type AppealStatus string

const (
	AppealStatusPending  AppealStatus = "PENDING"
	AppealStatusApproved AppealStatus = "APPROVED"
	AppealStatusDenied   AppealStatus = "DENIED"
)

// NewInvalidReturnStatusError builds the typed failure for an illegal outer
// transition, carrying both the current and the attempted state
func NewInvalidReturnStatusError(current, attempted ReturnStatus) *shared.DomainError {
	return shared.NewDomainError("INVALID_RETURN_STATUS",
		fmt.Sprintf("Cannot transition return request from %s to %s", current, attempted))
}

// NewInvalidDeliveryStatusError builds the typed failure for an illegal
// delivery transition
func NewInvalidDeliveryStatusError(current, attempted DeliveryStatus) *shared.DomainError {
	return shared.NewDomainError("INVALID_DELIVERY_STATUS",
		fmt.Sprintf("Cannot transition delivery state from %s to %s", current, attempted))
}
