package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/stock"
	"github.com/stockroom/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAllocationRecordRepository implements AllocationRecordRepository using
// GORM. The allocation trace is append-only: this repository exposes no
// update or delete path.
type GormAllocationRecordRepository struct {
	db *gorm.DB
}

// NewGormAllocationRecordRepository creates a new GormAllocationRecordRepository
func NewGormAllocationRecordRepository(db *gorm.DB) *GormAllocationRecordRepository {
	return &GormAllocationRecordRepository{db: db}
}

// FindByOrderLine returns the records for an order line in creation order
func (r *GormAllocationRecordRepository) FindByOrderLine(ctx context.Context, orderLineID uuid.UUID) ([]stock.AllocationRecord, error) {
	var found []models.AllocationRecordModel
	if err := r.db.WithContext(ctx).
		Where("order_line_id = ?", orderLineID).
		Order("created_at ASC").
		Find(&found).Error; err != nil {
		return nil, err
	}
	out := make([]stock.AllocationRecord, len(found))
	for i := range found {
		out[i] = *found[i].ToDomain()
	}
	return out, nil
}

// ExistsForOrderLine reports whether the line has any allocation records
func (r *GormAllocationRecordRepository) ExistsForOrderLine(ctx context.Context, orderLineID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AllocationRecordModel{}).
		Where("order_line_id = ?", orderLineID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveAll appends the given records
func (r *GormAllocationRecordRepository) SaveAll(ctx context.Context, records []*stock.AllocationRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]models.AllocationRecordModel, len(records))
	for i, record := range records {
		rows[i] = *models.AllocationRecordModelFromDomain(record)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// Ensure GormAllocationRecordRepository implements AllocationRecordRepository
var _ stock.AllocationRecordRepository = (*GormAllocationRecordRepository)(nil)
