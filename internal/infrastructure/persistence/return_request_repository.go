package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/returns"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReturnRequestRepository implements ReturnRequestRepository using GORM
type GormReturnRequestRepository struct {
	db *gorm.DB
}

// NewGormReturnRequestRepository creates a new GormReturnRequestRepository
func NewGormReturnRequestRepository(db *gorm.DB) *GormReturnRequestRepository {
	return &GormReturnRequestRepository{db: db}
}

func (r *GormReturnRequestRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("Appeal").
		Preload("Media")
}

// FindByID finds a return request with its items, appeal and media
func (r *GormReturnRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	var model models.ReturnRequestModel
	if err := r.preloaded(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds all return requests against an order
func (r *GormReturnRequestRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]returns.ReturnRequest, error) {
	var found []models.ReturnRequestModel
	if err := r.preloaded(ctx).
		Where("order_id = ?", orderID).
		Order("submitted_at ASC").
		Find(&found).Error; err != nil {
		return nil, err
	}
	return toDomainRequests(found), nil
}

// FindAll pages through return requests with optional status, order and
// customer filters
func (r *GormReturnRequestRepository) FindAll(ctx context.Context, filter shared.Filter) ([]returns.ReturnRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReturnRequestModel{})
	query = applyReturnFilters(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("submitted_at DESC")
	}

	var found []models.ReturnRequestModel
	if err := query.
		Preload("Items").
		Preload("Appeal").
		Preload("Media").
		Find(&found).Error; err != nil {
		return nil, 0, err
	}
	return toDomainRequests(found), total, nil
}

// Save creates or updates a return request together with its children
func (r *GormReturnRequestRepository) Save(ctx context.Context, request *returns.ReturnRequest) error {
	model := models.ReturnRequestModelFromDomain(request)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// SaveWithLock saves with optimistic locking on the aggregate root. Children
// are upserted afterwards: items are immutable, the appeal is created at most
// once and media rows are append-only, so no child-level version is needed.
func (r *GormReturnRequestRepository) SaveWithLock(ctx context.Context, request *returns.ReturnRequest) error {
	loadedVersion := request.Version
	request.Version++
	model := models.ReturnRequestModelFromDomain(request)

	result := r.db.WithContext(ctx).
		Model(&models.ReturnRequestModel{}).
		Where("id = ? AND version = ?", model.ID, loadedVersion).
		Updates(map[string]interface{}{
			"version":               model.Version,
			"status":                model.Status,
			"decision_notes":        model.DecisionNotes,
			"decided_at":            model.DecidedAt,
			"delivery_status":       model.DeliveryStatus,
			"agent_id":              model.AgentID,
			"assigned_by":           model.AssignedBy,
			"assigned_at":           model.AssignedAt,
			"assignment_notes":      model.AssignmentNotes,
			"scheduled_pickup_time": model.ScheduledPickupTime,
			"pickup_started_at":     model.PickupStartedAt,
			"actual_pickup_time":    model.ActualPickupTime,
			"pickup_completed_at":   model.PickupCompletedAt,
			"pickup_failure_reason": model.PickupFailureReason,
			"cancellation_reason":   model.CancellationReason,
			"refund_processed":      model.RefundProcessed,
			"refund_amount":         model.RefundAmount,
			"refund_processed_at":   model.RefundProcessedAt,
			"updated_at":            model.UpdatedAt,
		})
	if result.Error != nil {
		request.Version = loadedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		request.Version = loadedVersion
		return shared.ErrConcurrencyConflict
	}

	if model.Appeal != nil {
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(model.Appeal).Error; err != nil {
			return err
		}
	}
	if len(model.Media) > 0 {
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.Media).Error; err != nil {
			return err
		}
	}
	return nil
}

func applyReturnFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "delivery_status":
			query = query.Where("delivery_status = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "agent_id":
			query = query.Where("agent_id = ?", value)
		}
	}
	return query
}

func toDomainRequests(found []models.ReturnRequestModel) []returns.ReturnRequest {
	out := make([]returns.ReturnRequest, len(found))
	for i := range found {
		out[i] = *found[i].ToDomain()
	}
	return out
}

// Ensure GormReturnRequestRepository implements ReturnRequestRepository
var _ returns.ReturnRequestRepository = (*GormReturnRequestRepository)(nil)
