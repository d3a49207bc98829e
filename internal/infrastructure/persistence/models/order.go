package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/order"
)

// ShopOrderModel is the persistence model for the ShopOrder aggregate root.
type ShopOrderModel struct {
	AggregateModel
	CustomerID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status     order.OrderStatus `gorm:"type:varchar(20);not null;index"`
	OrderedAt  time.Time         `gorm:"not null"`
	// Associations
	Lines []OrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (ShopOrderModel) TableName() string {
	return "shop_orders"
}

// ToDomain converts the persistence model to a domain ShopOrder aggregate.
func (m *ShopOrderModel) ToDomain() *order.ShopOrder {
	o := &order.ShopOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		Status:            m.Status,
		OrderedAt:         m.OrderedAt,
		Lines:             make([]order.OrderLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		o.Lines[i] = *line.ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain ShopOrder aggregate.
func (m *ShopOrderModel) FromDomain(o *order.ShopOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.CustomerID = o.CustomerID
	m.Status = o.Status
	m.OrderedAt = o.OrderedAt
	m.Lines = make([]OrderLineModel, len(o.Lines))
	for i := range o.Lines {
		m.Lines[i] = *OrderLineModelFromDomain(&o.Lines[i])
	}
}

// ShopOrderModelFromDomain creates a new persistence model from a domain ShopOrder aggregate.
func ShopOrderModelFromDomain(o *order.ShopOrder) *ShopOrderModel {
	m := &ShopOrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineModel is the persistence model for the OrderLine entity.
type OrderLineModel struct {
	BaseModel
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     *uuid.UUID      `gorm:"type:uuid"`
	VariantID     *uuid.UUID      `gorm:"type:uuid"`
	ProductName   string          `gorm:"type:varchar(200);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MaxReturnDays int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain OrderLine entity.
func (m *OrderLineModel) ToDomain() *order.OrderLine {
	return &order.OrderLine{
		BaseEntity:    m.BaseModel.ToDomain(),
		OrderID:       m.OrderID,
		ProductID:     m.ProductID,
		VariantID:     m.VariantID,
		ProductName:   m.ProductName,
		Quantity:      m.Quantity,
		MaxReturnDays: m.MaxReturnDays,
	}
}

// FromDomain populates the persistence model from a domain OrderLine entity.
func (m *OrderLineModel) FromDomain(l *order.OrderLine) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.OrderID = l.OrderID
	m.ProductID = l.ProductID
	m.VariantID = l.VariantID
	m.ProductName = l.ProductName
	m.Quantity = l.Quantity
	m.MaxReturnDays = l.MaxReturnDays
}

// OrderLineModelFromDomain creates a new persistence model from a domain OrderLine entity.
func OrderLineModelFromDomain(l *order.OrderLine) *OrderLineModel {
	m := &OrderLineModel{}
	m.FromDomain(l)
	return m
}
