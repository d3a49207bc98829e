package returns

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/order"
	"github.com/stockroom/backend/internal/domain/returns"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
)

// In-memory repository fakes. Pickup reconciliation spans four aggregates,
// so the tests exercise the real domain objects end to end instead of
// scripting per-call mocks.

type fakeReturnRepo struct {
	requests map[uuid.UUID]*returns.ReturnRequest
}

func newFakeReturnRepo() *fakeReturnRepo {
	return &fakeReturnRepo{requests: make(map[uuid.UUID]*returns.ReturnRequest)}
}

func (r *fakeReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	request, ok := r.requests[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return request, nil
}

func (r *fakeReturnRepo) FindByOrder(_ context.Context, orderID uuid.UUID) ([]returns.ReturnRequest, error) {
	var out []returns.ReturnRequest
	for _, request := range r.requests {
		if request.OrderID == orderID {
			out = append(out, *request)
		}
	}
	return out, nil
}

func (r *fakeReturnRepo) FindAll(_ context.Context, filter shared.Filter) ([]returns.ReturnRequest, int64, error) {
	out := make([]returns.ReturnRequest, 0, len(r.requests))
	for _, request := range r.requests {
		out = append(out, *request)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeReturnRepo) Save(_ context.Context, request *returns.ReturnRequest) error {
	r.requests[request.ID] = request
	return nil
}

func (r *fakeReturnRepo) SaveWithLock(_ context.Context, request *returns.ReturnRequest) error {
	request.Version++
	r.requests[request.ID] = request
	return nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*order.ShopOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.ShopOrder)}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.ShopOrder, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) FindByLine(_ context.Context, orderLineID uuid.UUID) (*order.ShopOrder, error) {
	for _, o := range r.orders {
		for i := range o.Lines {
			if o.Lines[i].ID == orderLineID {
				return o, nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) Save(_ context.Context, o *order.ShopOrder) error {
	r.orders[o.ID] = o
	return nil
}

type fakeLocationRepo struct {
	locations map[uuid.UUID]*stock.StockLocation
	saveErr   error
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: make(map[uuid.UUID]*stock.StockLocation)}
}

func (r *fakeLocationRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.StockLocation, error) {
	location, ok := r.locations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return location, nil
}

func (r *fakeLocationRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*stock.StockLocation, error) {
	out := make([]*stock.StockLocation, 0, len(ids))
	for _, id := range ids {
		if location, ok := r.locations[id]; ok {
			out = append(out, location)
		}
	}
	return out, nil
}

func (r *fakeLocationRepo) FindBySKUAndWarehouse(_ context.Context, productID, variantID *uuid.UUID, warehouseID uuid.UUID) (*stock.StockLocation, error) {
	return nil, shared.ErrNotFound
}

func (r *fakeLocationRepo) Save(_ context.Context, location *stock.StockLocation) error {
	r.locations[location.ID] = location
	return nil
}

func (r *fakeLocationRepo) SaveWithLock(_ context.Context, location *stock.StockLocation) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	location.Version++
	r.locations[location.ID] = location
	return nil
}

type fakeAllocationRepo struct {
	records []stock.AllocationRecord
}

func (r *fakeAllocationRepo) FindByOrderLine(_ context.Context, orderLineID uuid.UUID) ([]stock.AllocationRecord, error) {
	var out []stock.AllocationRecord
	for _, record := range r.records {
		if record.OrderLineID == orderLineID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAllocationRepo) ExistsForOrderLine(_ context.Context, orderLineID uuid.UUID) (bool, error) {
	for _, record := range r.records {
		if record.OrderLineID == orderLineID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAllocationRepo) SaveAll(_ context.Context, records []*stock.AllocationRecord) error {
	for _, record := range records {
		r.records = append(r.records, *record)
	}
	return nil
}

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{seen: make(map[string]bool)}
}

func (s *memoryIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *memoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}

func (s *memoryIdempotencyStore) Close() error { return nil }

var (
	_ returns.ReturnRequestRepository  = (*fakeReturnRepo)(nil)
	_ order.ShopOrderRepository        = (*fakeOrderRepo)(nil)
	_ stock.StockLocationRepository    = (*fakeLocationRepo)(nil)
	_ stock.AllocationRecordRepository = (*fakeAllocationRepo)(nil)
	_ shared.IdempotencyStore          = (*memoryIdempotencyStore)(nil)
)
