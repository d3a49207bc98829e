package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/stock"
)

// StockLocationModel is the persistence model for the StockLocation aggregate root.
type StockLocationModel struct {
	AggregateModel
	ProductID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_stock_location_sku_warehouse,priority:1"`
	VariantID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_stock_location_sku_warehouse,priority:2"`
	WarehouseID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_stock_location_sku_warehouse,priority:3"`
	// Associations
	Batches []BatchModel `gorm:"foreignKey:StockLocationID;references:ID"`
}

// TableName returns the table name for GORM
func (StockLocationModel) TableName() string {
	return "stock_locations"
}

// ToDomain converts the persistence model to a domain StockLocation aggregate.
func (m *StockLocationModel) ToDomain() *stock.StockLocation {
	location := &stock.StockLocation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		WarehouseID:       m.WarehouseID,
		Batches:           make([]stock.Batch, len(m.Batches)),
	}
	for i, batch := range m.Batches {
		location.Batches[i] = *batch.ToDomain()
	}
	return location
}

// FromDomain populates the persistence model from a domain StockLocation aggregate.
func (m *StockLocationModel) FromDomain(l *stock.StockLocation) {
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	m.ProductID = l.ProductID
	m.VariantID = l.VariantID
	m.WarehouseID = l.WarehouseID
	m.Batches = make([]BatchModel, len(l.Batches))
	for i := range l.Batches {
		m.Batches[i] = *BatchModelFromDomain(&l.Batches[i])
	}
}

// StockLocationModelFromDomain creates a new persistence model from a domain StockLocation aggregate.
func StockLocationModelFromDomain(l *stock.StockLocation) *StockLocationModel {
	m := &StockLocationModel{}
	m.FromDomain(l)
	return m
}

// BatchModel is the persistence model for the Batch entity.
type BatchModel struct {
	BaseModel
	StockLocationID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	BatchNumber         string            `gorm:"type:varchar(50);not null;index"`
	ManufactureDate     *time.Time        `gorm:"type:date"`
	ExpiryDate          *time.Time        `gorm:"type:date;index"`
	Quantity            decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Status              stock.BatchStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	SupplierName        string            `gorm:"type:varchar(200)"`
	SupplierBatchNumber string            `gorm:"type:varchar(50)"`
	CostPrice           *decimal.Decimal  `gorm:"type:decimal(18,4)"`
	RecallReason        string            `gorm:"type:varchar(500)"`
	RecalledAt          *time.Time        `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "batches"
}

// ToDomain converts the persistence model to a domain Batch entity.
func (m *BatchModel) ToDomain() *stock.Batch {
	return &stock.Batch{
		BaseEntity:          m.BaseModel.ToDomain(),
		StockLocationID:     m.StockLocationID,
		BatchNumber:         m.BatchNumber,
		ManufactureDate:     m.ManufactureDate,
		ExpiryDate:          m.ExpiryDate,
		Quantity:            m.Quantity,
		Status:              m.Status,
		SupplierName:        m.SupplierName,
		SupplierBatchNumber: m.SupplierBatchNumber,
		CostPrice:           m.CostPrice,
		RecallReason:        m.RecallReason,
		RecalledAt:          m.RecalledAt,
	}
}

// FromDomain populates the persistence model from a domain Batch entity.
func (m *BatchModel) FromDomain(b *stock.Batch) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.StockLocationID = b.StockLocationID
	m.BatchNumber = b.BatchNumber
	m.ManufactureDate = b.ManufactureDate
	m.ExpiryDate = b.ExpiryDate
	m.Quantity = b.Quantity
	m.Status = b.Status
	m.SupplierName = b.SupplierName
	m.SupplierBatchNumber = b.SupplierBatchNumber
	m.CostPrice = b.CostPrice
	m.RecallReason = b.RecallReason
	m.RecalledAt = b.RecalledAt
}

// BatchModelFromDomain creates a new persistence model from a domain Batch entity.
func BatchModelFromDomain(b *stock.Batch) *BatchModel {
	m := &BatchModel{}
	m.FromDomain(b)
	return m
}

// ReservationLockModel is the persistence model for the ReservationLock entity.
type ReservationLockModel struct {
	BaseModel
	SessionID       string          `gorm:"type:varchar(100);not null;index"`
	StockLocationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExpiresAt       time.Time       `gorm:"not null;index"`
	Released        bool            `gorm:"not null;default:false;index"`
	ReleasedAt      *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (ReservationLockModel) TableName() string {
	return "reservation_locks"
}

// ToDomain converts the persistence model to a domain ReservationLock entity.
func (m *ReservationLockModel) ToDomain() *stock.ReservationLock {
	return &stock.ReservationLock{
		BaseEntity:      m.BaseModel.ToDomain(),
		SessionID:       m.SessionID,
		StockLocationID: m.StockLocationID,
		BatchID:         m.BatchID,
		WarehouseID:     m.WarehouseID,
		Quantity:        m.Quantity,
		ExpiresAt:       m.ExpiresAt,
		Released:        m.Released,
		ReleasedAt:      m.ReleasedAt,
	}
}

// FromDomain populates the persistence model from a domain ReservationLock entity.
func (m *ReservationLockModel) FromDomain(l *stock.ReservationLock) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.SessionID = l.SessionID
	m.StockLocationID = l.StockLocationID
	m.BatchID = l.BatchID
	m.WarehouseID = l.WarehouseID
	m.Quantity = l.Quantity
	m.ExpiresAt = l.ExpiresAt
	m.Released = l.Released
	m.ReleasedAt = l.ReleasedAt
}

// ReservationLockModelFromDomain creates a new persistence model from a domain ReservationLock entity.
func ReservationLockModelFromDomain(l *stock.ReservationLock) *ReservationLockModel {
	m := &ReservationLockModel{}
	m.FromDomain(l)
	return m
}

// AllocationRecordModel is the persistence model for the AllocationRecord
// entity. Rows are append-only.
type AllocationRecordModel struct {
	BaseModel
	OrderLineID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockLocationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber     string          `gorm:"type:varchar(50);not null"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (AllocationRecordModel) TableName() string {
	return "allocation_records"
}

// ToDomain converts the persistence model to a domain AllocationRecord entity.
func (m *AllocationRecordModel) ToDomain() *stock.AllocationRecord {
	return &stock.AllocationRecord{
		BaseEntity:      m.BaseModel.ToDomain(),
		OrderLineID:     m.OrderLineID,
		StockLocationID: m.StockLocationID,
		BatchID:         m.BatchID,
		BatchNumber:     m.BatchNumber,
		WarehouseID:     m.WarehouseID,
		Quantity:        m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain AllocationRecord entity.
func (m *AllocationRecordModel) FromDomain(r *stock.AllocationRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.OrderLineID = r.OrderLineID
	m.StockLocationID = r.StockLocationID
	m.BatchID = r.BatchID
	m.BatchNumber = r.BatchNumber
	m.WarehouseID = r.WarehouseID
	m.Quantity = r.Quantity
}

// AllocationRecordModelFromDomain creates a new persistence model from a domain AllocationRecord entity.
func AllocationRecordModelFromDomain(r *stock.AllocationRecord) *AllocationRecordModel {
	m := &AllocationRecordModel{}
	m.FromDomain(r)
	return m
}
