package returns

import (
	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/shared"
)

// Event types emitted by the return request aggregate
const (
	EventTypeReturnSubmitted = "returns.submitted"
	EventTypeReturnDecided   = "returns.decided"
	EventTypeAgentAssigned   = "returns.agent_assigned"
	EventTypeReturnCompleted = "returns.completed"
	EventTypeAppealOpened    = "returns.appeal_opened"
)

const aggregateTypeReturnRequest = "ReturnRequest"

// ReturnSubmittedEvent is emitted when a customer submits a return request
type ReturnSubmittedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	ItemCount int       `json:"item_count"`
}

// NewReturnSubmittedEvent creates a ReturnSubmittedEvent
func NewReturnSubmittedEvent(requestID, orderID uuid.UUID, itemCount int) *ReturnSubmittedEvent {
	return &ReturnSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnSubmitted, aggregateTypeReturnRequest, requestID),
		OrderID:         orderID,
		ItemCount:       itemCount,
	}
}

// ReturnDecidedEvent is emitted when a request is approved or denied
type ReturnDecidedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID    `json:"order_id"`
	Decision ReturnStatus `json:"decision"`
}

// NewReturnDecidedEvent creates a ReturnDecidedEvent
func NewReturnDecidedEvent(requestID, orderID uuid.UUID, decision ReturnStatus) *ReturnDecidedEvent {
	return &ReturnDecidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnDecided, aggregateTypeReturnRequest, requestID),
		OrderID:         orderID,
		Decision:        decision,
	}
}

// AgentAssignedEvent is emitted when a delivery agent is assigned for pickup
type AgentAssignedEvent struct {
	shared.BaseDomainEvent
	AgentID uuid.UUID `json:"agent_id"`
}

// NewAgentAssignedEvent creates an AgentAssignedEvent
func NewAgentAssignedEvent(requestID, agentID uuid.UUID) *AgentAssignedEvent {
	return &AgentAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAgentAssigned, aggregateTypeReturnRequest, requestID),
		AgentID:         agentID,
	}
}

// ReturnCompletedEvent is emitted when pickup reconciliation finishes
type ReturnCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewReturnCompletedEvent creates a ReturnCompletedEvent
func NewReturnCompletedEvent(requestID, orderID uuid.UUID) *ReturnCompletedEvent {
	return &ReturnCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnCompleted, aggregateTypeReturnRequest, requestID),
		OrderID:         orderID,
	}
}

// AppealOpenedEvent is emitted when an appeal is opened on a denied request
type AppealOpenedEvent struct {
	shared.BaseDomainEvent
	AppealID uuid.UUID `json:"appeal_id"`
}

// NewAppealOpenedEvent creates an AppealOpenedEvent
func NewAppealOpenedEvent(requestID, appealID uuid.UUID) *AppealOpenedEvent {
	return &AppealOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAppealOpened, aggregateTypeReturnRequest, requestID),
		AppealID:        appealID,
	}
}
