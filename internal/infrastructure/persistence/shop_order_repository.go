package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/order"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormShopOrderRepository implements ShopOrderRepository using GORM
type GormShopOrderRepository struct {
	db *gorm.DB
}

// NewGormShopOrderRepository creates a new GormShopOrderRepository
func NewGormShopOrderRepository(db *gorm.DB) *GormShopOrderRepository {
	return &GormShopOrderRepository{db: db}
}

// FindByID finds a shop order with its lines
func (r *GormShopOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.ShopOrder, error) {
	var model models.ShopOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLine finds the order owning the given order line
func (r *GormShopOrderRepository) FindByLine(ctx context.Context, orderLineID uuid.UUID) (*order.ShopOrder, error) {
	var line models.OrderLineModel
	if err := r.db.WithContext(ctx).First(&line, "id = ?", orderLineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, line.OrderID)
}

// Save creates or updates a shop order together with its lines
func (r *GormShopOrderRepository) Save(ctx context.Context, o *order.ShopOrder) error {
	model := models.ShopOrderModelFromDomain(o)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// Ensure GormShopOrderRepository implements ShopOrderRepository
var _ order.ShopOrderRepository = (*GormShopOrderRepository)(nil)
