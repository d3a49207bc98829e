package order

import (
	"context"

	"github.com/google/uuid"
)

// ShopOrderRepository gives the return subsystem read access to orders plus
// the single status write it is allowed: the RETURNED transition.
type ShopOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ShopOrder, error)
	FindByLine(ctx context.Context, orderLineID uuid.UUID) (*ShopOrder, error)
	Save(ctx context.Context, order *ShopOrder) error
}
