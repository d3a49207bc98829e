package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/returns"
)

// ReturnRequestModel is the persistence model for the ReturnRequest aggregate root.
type ReturnRequestModel struct {
	AggregateModel
	OrderID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	Reason      string                `gorm:"type:varchar(500);not null"`
	Status      returns.ReturnStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	SubmittedAt time.Time             `gorm:"not null"`

	DecisionNotes string     `gorm:"type:varchar(500)"`
	DecidedAt     *time.Time `gorm:"type:timestamptz"`

	DeliveryStatus      returns.DeliveryStatus `gorm:"type:varchar(30);not null;default:'NOT_ASSIGNED';index"`
	AgentID             *uuid.UUID             `gorm:"type:uuid;index"`
	AssignedBy          *uuid.UUID             `gorm:"type:uuid"`
	AssignedAt          *time.Time             `gorm:"type:timestamptz"`
	AssignmentNotes     string                 `gorm:"type:varchar(500)"`
	ScheduledPickupTime *time.Time             `gorm:"type:timestamptz"`
	PickupStartedAt     *time.Time             `gorm:"type:timestamptz"`
	ActualPickupTime    *time.Time             `gorm:"type:timestamptz"`
	PickupCompletedAt   *time.Time             `gorm:"type:timestamptz"`
	PickupFailureReason string                 `gorm:"type:varchar(500)"`
	CancellationReason  string                 `gorm:"type:varchar(500)"`

	RefundProcessed   bool             `gorm:"not null;default:false"`
	RefundAmount      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	RefundProcessedAt *time.Time       `gorm:"type:timestamptz"`

	// Associations
	Items  []ReturnItemModel  `gorm:"foreignKey:ReturnRequestID;references:ID"`
	Appeal *ReturnAppealModel `gorm:"foreignKey:ReturnRequestID;references:ID"`
	Media  []ReturnMediaModel `gorm:"foreignKey:ReturnRequestID;references:ID"`
}

// TableName returns the table name for GORM
func (ReturnRequestModel) TableName() string {
	return "return_requests"
}

// ToDomain converts the persistence model to a domain ReturnRequest aggregate.
func (m *ReturnRequestModel) ToDomain() *returns.ReturnRequest {
	request := &returns.ReturnRequest{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		OrderID:             m.OrderID,
		CustomerID:          m.CustomerID,
		Reason:              m.Reason,
		Status:              m.Status,
		SubmittedAt:         m.SubmittedAt,
		DecisionNotes:       m.DecisionNotes,
		DecidedAt:           m.DecidedAt,
		DeliveryStatus:      m.DeliveryStatus,
		AgentID:             m.AgentID,
		AssignedBy:          m.AssignedBy,
		AssignedAt:          m.AssignedAt,
		AssignmentNotes:     m.AssignmentNotes,
		ScheduledPickupTime: m.ScheduledPickupTime,
		PickupStartedAt:     m.PickupStartedAt,
		ActualPickupTime:    m.ActualPickupTime,
		PickupCompletedAt:   m.PickupCompletedAt,
		PickupFailureReason: m.PickupFailureReason,
		CancellationReason:  m.CancellationReason,
		RefundProcessed:     m.RefundProcessed,
		RefundAmount:        m.RefundAmount,
		RefundProcessedAt:   m.RefundProcessedAt,
		Items:               make([]returns.ReturnItem, len(m.Items)),
		Media:               make([]returns.ReturnMedia, len(m.Media)),
	}
	for i, item := range m.Items {
		request.Items[i] = *item.ToDomain()
	}
	for i, media := range m.Media {
		request.Media[i] = *media.ToDomain()
	}
	if m.Appeal != nil {
		request.Appeal = m.Appeal.ToDomain()
	}
	return request
}

// FromDomain populates the persistence model from a domain ReturnRequest aggregate.
func (m *ReturnRequestModel) FromDomain(r *returns.ReturnRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OrderID = r.OrderID
	m.CustomerID = r.CustomerID
	m.Reason = r.Reason
	m.Status = r.Status
	m.SubmittedAt = r.SubmittedAt
	m.DecisionNotes = r.DecisionNotes
	m.DecidedAt = r.DecidedAt
	m.DeliveryStatus = r.DeliveryStatus
	m.AgentID = r.AgentID
	m.AssignedBy = r.AssignedBy
	m.AssignedAt = r.AssignedAt
	m.AssignmentNotes = r.AssignmentNotes
	m.ScheduledPickupTime = r.ScheduledPickupTime
	m.PickupStartedAt = r.PickupStartedAt
	m.ActualPickupTime = r.ActualPickupTime
	m.PickupCompletedAt = r.PickupCompletedAt
	m.PickupFailureReason = r.PickupFailureReason
	m.CancellationReason = r.CancellationReason
	m.RefundProcessed = r.RefundProcessed
	m.RefundAmount = r.RefundAmount
	m.RefundProcessedAt = r.RefundProcessedAt
	m.Items = make([]ReturnItemModel, len(r.Items))
	for i := range r.Items {
		m.Items[i] = *ReturnItemModelFromDomain(&r.Items[i])
	}
	m.Media = make([]ReturnMediaModel, len(r.Media))
	for i := range r.Media {
		m.Media[i] = *ReturnMediaModelFromDomain(&r.Media[i])
	}
	if r.Appeal != nil {
		m.Appeal = ReturnAppealModelFromDomain(r.Appeal)
	} else {
		m.Appeal = nil
	}
}

// ReturnRequestModelFromDomain creates a new persistence model from a domain ReturnRequest aggregate.
func ReturnRequestModelFromDomain(r *returns.ReturnRequest) *ReturnRequestModel {
	m := &ReturnRequestModel{}
	m.FromDomain(r)
	return m
}

// ReturnItemModel is the persistence model for the ReturnItem entity.
type ReturnItemModel struct {
	BaseModel
	ReturnRequestID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderLineID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       *uuid.UUID      `gorm:"type:uuid"`
	VariantID       *uuid.UUID      `gorm:"type:uuid"`
	ProductName     string          `gorm:"type:varchar(200);not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ReturnItemModel) TableName() string {
	return "return_items"
}

// ToDomain converts the persistence model to a domain ReturnItem entity.
func (m *ReturnItemModel) ToDomain() *returns.ReturnItem {
	return &returns.ReturnItem{
		BaseEntity:      m.BaseModel.ToDomain(),
		ReturnRequestID: m.ReturnRequestID,
		OrderLineID:     m.OrderLineID,
		ProductID:       m.ProductID,
		VariantID:       m.VariantID,
		ProductName:     m.ProductName,
		Quantity:        m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain ReturnItem entity.
func (m *ReturnItemModel) FromDomain(i *returns.ReturnItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.ReturnRequestID = i.ReturnRequestID
	m.OrderLineID = i.OrderLineID
	m.ProductID = i.ProductID
	m.VariantID = i.VariantID
	m.ProductName = i.ProductName
	m.Quantity = i.Quantity
}

// ReturnItemModelFromDomain creates a new persistence model from a domain ReturnItem entity.
func ReturnItemModelFromDomain(i *returns.ReturnItem) *ReturnItemModel {
	m := &ReturnItemModel{}
	m.FromDomain(i)
	return m
}

// ReturnAppealModel is the persistence model for the ReturnAppeal entity.
type ReturnAppealModel struct {
	BaseModel
	ReturnRequestID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	Reason          string               `gorm:"type:varchar(500);not null"`
	Status          returns.AppealStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	DecisionNotes   string               `gorm:"type:varchar(500)"`
	DecidedAt       *time.Time           `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (ReturnAppealModel) TableName() string {
	return "return_appeals"
}

// ToDomain converts the persistence model to a domain ReturnAppeal entity.
func (m *ReturnAppealModel) ToDomain() *returns.ReturnAppeal {
	return &returns.ReturnAppeal{
		BaseEntity:      m.BaseModel.ToDomain(),
		ReturnRequestID: m.ReturnRequestID,
		Reason:          m.Reason,
		Status:          m.Status,
		DecisionNotes:   m.DecisionNotes,
		DecidedAt:       m.DecidedAt,
	}
}

// FromDomain populates the persistence model from a domain ReturnAppeal entity.
func (m *ReturnAppealModel) FromDomain(a *returns.ReturnAppeal) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.ReturnRequestID = a.ReturnRequestID
	m.Reason = a.Reason
	m.Status = a.Status
	m.DecisionNotes = a.DecisionNotes
	m.DecidedAt = a.DecidedAt
}

// ReturnAppealModelFromDomain creates a new persistence model from a domain ReturnAppeal entity.
func ReturnAppealModelFromDomain(a *returns.ReturnAppeal) *ReturnAppealModel {
	m := &ReturnAppealModel{}
	m.FromDomain(a)
	return m
}

// ReturnMediaModel is the persistence model for the ReturnMedia entity.
type ReturnMediaModel struct {
	BaseModel
	ReturnRequestID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Kind            returns.MediaKind `gorm:"type:varchar(10);not null"`
	URL             string            `gorm:"type:varchar(500);not null"`
}

// TableName returns the table name for GORM
func (ReturnMediaModel) TableName() string {
	return "return_media"
}

// ToDomain converts the persistence model to a domain ReturnMedia entity.
func (m *ReturnMediaModel) ToDomain() *returns.ReturnMedia {
	return &returns.ReturnMedia{
		BaseEntity:      m.BaseModel.ToDomain(),
		ReturnRequestID: m.ReturnRequestID,
		Kind:            m.Kind,
		URL:             m.URL,
	}
}

// FromDomain populates the persistence model from a domain ReturnMedia entity.
func (m *ReturnMediaModel) FromDomain(media *returns.ReturnMedia) {
	m.FromDomainBaseEntity(media.BaseEntity)
	m.ReturnRequestID = media.ReturnRequestID
	m.Kind = media.Kind
	m.URL = media.URL
}

// ReturnMediaModelFromDomain creates a new persistence model from a domain ReturnMedia entity.
func ReturnMediaModelFromDomain(media *returns.ReturnMedia) *ReturnMediaModel {
	m := &ReturnMediaModel{}
	m.FromDomain(media)
	return m
}
