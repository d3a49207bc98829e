package stock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"github.com/stretchr/testify/mock"
)

// MockStockLocationRepository is a mock implementation of stock.StockLocationRepository
type MockStockLocationRepository struct {
	mock.Mock
}

func (m *MockStockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockLocation), args.Error(1)
}

func (m *MockStockLocationRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*stock.StockLocation, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*stock.StockLocation), args.Error(1)
}

func (m *MockStockLocationRepository) FindBySKUAndWarehouse(ctx context.Context, productID, variantID *uuid.UUID, warehouseID uuid.UUID) (*stock.StockLocation, error) {
	args := m.Called(ctx, productID, variantID, warehouseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockLocation), args.Error(1)
}

func (m *MockStockLocationRepository) Save(ctx context.Context, location *stock.StockLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockStockLocationRepository) SaveWithLock(ctx context.Context, location *stock.StockLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

// MockReservationLockRepository is a mock implementation of stock.ReservationLockRepository
type MockReservationLockRepository struct {
	mock.Mock
}

func (m *MockReservationLockRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.ReservationLock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.ReservationLock), args.Error(1)
}

func (m *MockReservationLockRepository) FindActiveByLocation(ctx context.Context, stockLocationID uuid.UUID, now time.Time) ([]stock.ReservationLock, error) {
	args := m.Called(ctx, stockLocationID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.ReservationLock), args.Error(1)
}

func (m *MockReservationLockRepository) FindExpired(ctx context.Context, now time.Time) ([]stock.ReservationLock, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.ReservationLock), args.Error(1)
}

func (m *MockReservationLockRepository) Save(ctx context.Context, lock *stock.ReservationLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *MockReservationLockRepository) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// MockAllocationRecordRepository is a mock implementation of stock.AllocationRecordRepository
type MockAllocationRecordRepository struct {
	mock.Mock
}

func (m *MockAllocationRecordRepository) FindByOrderLine(ctx context.Context, orderLineID uuid.UUID) ([]stock.AllocationRecord, error) {
	args := m.Called(ctx, orderLineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.AllocationRecord), args.Error(1)
}

func (m *MockAllocationRecordRepository) ExistsForOrderLine(ctx context.Context, orderLineID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderLineID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAllocationRecordRepository) SaveAll(ctx context.Context, records []*stock.AllocationRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// MockEventBus is a mock implementation of shared.EventPublisher
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// memoryIdempotencyStore is a test double backed by a plain map
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
