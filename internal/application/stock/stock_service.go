package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// StockService covers the batch ledger operations: receiving, recall and the
// derived availability query
type StockService struct {
	locationRepo stock.StockLocationRepository
	eventBus     shared.EventPublisher
	logger       *zap.Logger
}

// NewStockService creates a StockService
func NewStockService(locationRepo stock.StockLocationRepository, eventBus shared.EventPublisher, logger *zap.Logger) *StockService {
	return &StockService{
		locationRepo: locationRepo,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// ReceiveBatch records a received batch, creating the stock location on the
// SKU's first receipt at the warehouse
func (s *StockService) ReceiveBatch(ctx context.Context, cmd ReceiveBatchCommand) (*BatchResult, error) {
	location, err := s.locationRepo.FindBySKUAndWarehouse(ctx, cmd.ProductID, cmd.VariantID, cmd.WarehouseID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		location, err = stock.NewStockLocation(cmd.ProductID, cmd.VariantID, cmd.WarehouseID)
		if err != nil {
			return nil, err
		}
	}

	batch, err := location.ReceiveBatch(stock.ReceiveBatchInput{
		BatchNumber:         cmd.BatchNumber,
		Quantity:            cmd.Quantity,
		ManufactureDate:     cmd.ManufactureDate,
		ExpiryDate:          cmd.ExpiryDate,
		SupplierName:        cmd.SupplierName,
		SupplierBatchNumber: cmd.SupplierBatchNumber,
		CostPrice:           cmd.CostPrice,
	})
	if err != nil {
		return nil, err
	}

	if err := s.locationRepo.Save(ctx, location); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, location)

	s.logger.Info("batch received",
		zap.String("stock_location_id", location.ID.String()),
		zap.String("batch_number", batch.BatchNumber),
		zap.String("quantity", batch.Quantity.String()),
	)
	return toBatchResult(location.ID, batch), nil
}

// AvailableQuantity returns the derived on-hand quantity for a location:
// the sum over ACTIVE batches only
func (s *StockService) AvailableQuantity(ctx context.Context, stockLocationID uuid.UUID) (decimal.Decimal, error) {
	location, err := s.locationRepo.FindByID(ctx, stockLocationID)
	if err != nil {
		return decimal.Zero, err
	}
	return location.AvailableQuantity(), nil
}

// RecallBatch administratively recalls a batch; the recall is terminal
func (s *StockService) RecallBatch(ctx context.Context, stockLocationID, batchID uuid.UUID, reason string) error {
	location, err := s.locationRepo.FindByID(ctx, stockLocationID)
	if err != nil {
		return err
	}
	if err := location.RecallBatch(batchID, reason); err != nil {
		return err
	}
	if err := s.locationRepo.SaveWithLock(ctx, location); err != nil {
		return err
	}
	s.publishEvents(ctx, location)

	s.logger.Warn("batch recalled",
		zap.String("stock_location_id", stockLocationID.String()),
		zap.String("batch_id", batchID.String()),
		zap.String("reason", reason),
	)
	return nil
}

// GetLocation returns a stock location with its batches
func (s *StockService) GetLocation(ctx context.Context, stockLocationID uuid.UUID) (*stock.StockLocation, error) {
	return s.locationRepo.FindByID(ctx, stockLocationID)
}

// publishEvents drains and publishes the aggregate's pending events.
// Publish failures are logged, never propagated.
func (s *StockService) publishEvents(ctx context.Context, location *stock.StockLocation) {
	events := location.GetDomainEvents()
	if len(events) == 0 || s.eventBus == nil {
		return
	}
	location.ClearDomainEvents()
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish stock events", zap.Error(err))
	}
}

func toBatchResult(locationID uuid.UUID, batch *stock.Batch) *BatchResult {
	return &BatchResult{
		BatchID:         batch.ID,
		StockLocationID: locationID,
		BatchNumber:     batch.BatchNumber,
		Quantity:        batch.Quantity,
		Status:          string(batch.Status),
		ExpiryDate:      batch.ExpiryDate,
	}
}
