package returns

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/shared"
)

// ReturnRequestRepository persists the ReturnRequest aggregate. Items, the
// appeal and media are child entities saved with their root.
//
// SaveWithLock performs an optimistic version check so two concurrent pickup
// processors (or a processor racing a manual decision) cannot both advance
// the same request.
type ReturnRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnRequest, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]ReturnRequest, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ReturnRequest, int64, error)
	Save(ctx context.Context, request *ReturnRequest) error
	SaveWithLock(ctx context.Context, request *ReturnRequest) error
}
