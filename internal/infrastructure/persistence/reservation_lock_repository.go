package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"github.com/stockroom/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReservationLockRepository implements ReservationLockRepository using GORM
type GormReservationLockRepository struct {
	db *gorm.DB
}

// NewGormReservationLockRepository creates a new GormReservationLockRepository
func NewGormReservationLockRepository(db *gorm.DB) *GormReservationLockRepository {
	return &GormReservationLockRepository{db: db}
}

// FindByID finds a reservation lock by its ID
func (r *GormReservationLockRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.ReservationLock, error) {
	var model models.ReservationLockModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByLocation returns unreleased, unexpired locks on a location
func (r *GormReservationLockRepository) FindActiveByLocation(ctx context.Context, stockLocationID uuid.UUID, now time.Time) ([]stock.ReservationLock, error) {
	var found []models.ReservationLockModel
	if err := r.db.WithContext(ctx).
		Where("stock_location_id = ? AND released = ? AND expires_at > ?", stockLocationID, false, now).
		Find(&found).Error; err != nil {
		return nil, err
	}
	return toDomainLocks(found), nil
}

// FindExpired returns unreleased locks past their expiry
func (r *GormReservationLockRepository) FindExpired(ctx context.Context, now time.Time) ([]stock.ReservationLock, error) {
	var found []models.ReservationLockModel
	if err := r.db.WithContext(ctx).
		Where("released = ? AND expires_at <= ?", false, now).
		Find(&found).Error; err != nil {
		return nil, err
	}
	return toDomainLocks(found), nil
}

// Save creates or updates a reservation lock
func (r *GormReservationLockRepository) Save(ctx context.Context, lock *stock.ReservationLock) error {
	model := models.ReservationLockModelFromDomain(lock)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// ReleaseExpired bulk-releases expired locks in one statement
func (r *GormReservationLockRepository) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReservationLockModel{}).
		Where("released = ? AND expires_at <= ?", false, now).
		Updates(map[string]interface{}{
			"released":    true,
			"released_at": now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func toDomainLocks(found []models.ReservationLockModel) []stock.ReservationLock {
	out := make([]stock.ReservationLock, len(found))
	for i := range found {
		out[i] = *found[i].ToDomain()
	}
	return out
}

// Ensure GormReservationLockRepository implements ReservationLockRepository
var _ stock.ReservationLockRepository = (*GormReservationLockRepository)(nil)
