package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"github.com/stockroom/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockLocationRepository implements StockLocationRepository using GORM
type GormStockLocationRepository struct {
	db *gorm.DB
}

// NewGormStockLocationRepository creates a new GormStockLocationRepository
func NewGormStockLocationRepository(db *gorm.DB) *GormStockLocationRepository {
	return &GormStockLocationRepository{db: db}
}

// FindByID finds a stock location with its batches
func (r *GormStockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockLocation, error) {
	var model models.StockLocationModel
	if err := r.db.WithContext(ctx).
		Preload("Batches").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple stock locations, returned in the order of the
// given IDs. Missing IDs are skipped, not errored: the allocation engine
// treats an unknown candidate as contributing nothing.
func (r *GormStockLocationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*stock.StockLocation, error) {
	if len(ids) == 0 {
		return []*stock.StockLocation{}, nil
	}

	var found []models.StockLocationModel
	if err := r.db.WithContext(ctx).
		Preload("Batches").
		Where("id IN ?", ids).
		Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.StockLocationModel, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	out := make([]*stock.StockLocation, 0, len(found))
	for _, id := range ids {
		if model, ok := byID[id]; ok {
			out = append(out, model.ToDomain())
		}
	}
	return out, nil
}

// FindBySKUAndWarehouse finds the location for a SKU/warehouse pair
func (r *GormStockLocationRepository) FindBySKUAndWarehouse(ctx context.Context, productID, variantID *uuid.UUID, warehouseID uuid.UUID) (*stock.StockLocation, error) {
	query := r.db.WithContext(ctx).Preload("Batches").Where("warehouse_id = ?", warehouseID)
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	} else if productID != nil {
		query = query.Where("product_id = ? AND variant_id IS NULL", *productID)
	} else {
		return nil, shared.NewDomainError("INVALID_INPUT", "A product or variant reference is required")
	}

	var model models.StockLocationModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a stock location together with its batches
func (r *GormStockLocationRepository) Save(ctx context.Context, location *stock.StockLocation) error {
	model := models.StockLocationModelFromDomain(location)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// SaveWithLock saves with optimistic locking. The stored version must match
// the version the aggregate was loaded at; otherwise a concurrent
// transaction won the race and this save fails with a concurrency conflict.
func (r *GormStockLocationRepository) SaveWithLock(ctx context.Context, location *stock.StockLocation) error {
	loadedVersion := location.Version
	location.Version++
	model := models.StockLocationModelFromDomain(location)

	result := r.db.WithContext(ctx).
		Model(&models.StockLocationModel{}).
		Where("id = ? AND version = ?", model.ID, loadedVersion).
		Updates(map[string]interface{}{
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		location.Version = loadedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		location.Version = loadedVersion
		return shared.ErrConcurrencyConflict
	}

	if len(model.Batches) > 0 {
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&model.Batches).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormStockLocationRepository implements StockLocationRepository
var _ stock.StockLocationRepository = (*GormStockLocationRepository)(nil)
