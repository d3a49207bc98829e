package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	stockapp "github.com/stockroom/backend/internal/application/stock"
	"github.com/stockroom/backend/internal/domain/stock"
)

// StockHandler handles batch ledger and reservation API endpoints
type StockHandler struct {
	BaseHandler
	stockService       *stockapp.StockService
	allocationService  *stockapp.AllocationService
	reservationService *stockapp.ReservationService
	expirationService  *stockapp.ReservationExpirationService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(
	stockService *stockapp.StockService,
	allocationService *stockapp.AllocationService,
	reservationService *stockapp.ReservationService,
	expirationService *stockapp.ReservationExpirationService,
) *StockHandler {
	return &StockHandler{
		stockService:       stockService,
		allocationService:  allocationService,
		reservationService: reservationService,
		expirationService:  expirationService,
	}
}

// ReceiveBatchRequest is the request body for receiving a batch
type ReceiveBatchRequest struct {
	ProductID           *string          `json:"product_id"`
	VariantID           *string          `json:"variant_id"`
	WarehouseID         string           `json:"warehouse_id" binding:"required,uuid"`
	BatchNumber         string           `json:"batch_number" binding:"required"`
	Quantity            decimal.Decimal  `json:"quantity" binding:"required"`
	ManufactureDate     *time.Time       `json:"manufacture_date"`
	ExpiryDate          *time.Time       `json:"expiry_date"`
	SupplierName        string           `json:"supplier_name"`
	SupplierBatchNumber string           `json:"supplier_batch_number"`
	CostPrice           *decimal.Decimal `json:"cost_price"`
}

// RecallBatchRequest is the request body for recalling a batch
type RecallBatchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AllocateRequest is the request body for a firm allocation
type AllocateRequest struct {
	OrderLineID          string          `json:"order_line_id" binding:"required,uuid"`
	Quantity             decimal.Decimal `json:"quantity" binding:"required"`
	CandidateLocationIDs []string        `json:"candidate_location_ids" binding:"required,min=1,dive,uuid"`
}

// AcquireReservationRequest is the request body for a cart hold
type AcquireReservationRequest struct {
	SessionID       string          `json:"session_id" binding:"required"`
	StockLocationID string          `json:"stock_location_id" binding:"required,uuid"`
	BatchID         string          `json:"batch_id" binding:"required,uuid"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	TTLSeconds      int             `json:"ttl_seconds" binding:"omitempty,min=1"`
}

// BatchResponse represents one batch in API responses
type BatchResponse struct {
	ID                  string  `json:"id"`
	BatchNumber         string  `json:"batch_number"`
	Quantity            string  `json:"quantity"`
	Status              string  `json:"status"`
	ManufactureDate     *string `json:"manufacture_date,omitempty"`
	ExpiryDate          *string `json:"expiry_date,omitempty"`
	SupplierName        string  `json:"supplier_name,omitempty"`
	SupplierBatchNumber string  `json:"supplier_batch_number,omitempty"`
	RecallReason        string  `json:"recall_reason,omitempty"`
}

// StockLocationResponse represents a stock location in API responses
type StockLocationResponse struct {
	ID                string          `json:"id"`
	ProductID         *string         `json:"product_id,omitempty"`
	VariantID         *string         `json:"variant_id,omitempty"`
	WarehouseID       string          `json:"warehouse_id"`
	AvailableQuantity string          `json:"available_quantity"`
	Batches           []BatchResponse `json:"batches"`
	Version           int             `json:"version"`
}

// AvailabilityResponse reports the quantity available for new holds
type AvailabilityResponse struct {
	StockLocationID   string `json:"stock_location_id"`
	AvailableQuantity string `json:"available_quantity"`
}

// ReleaseExpiredResponse reports how many locks a sweep released
type ReleaseExpiredResponse struct {
	ReleasedCount int `json:"released_count"`
}

// ReceiveBatch records a newly received batch, creating the stock location on
// first receipt for a product/variant at a warehouse.
// POST /stock/batches
func (h *StockHandler) ReceiveBatch(c *gin.Context) {
	var req ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID, variantID, err := parseSKU(req.ProductID, req.VariantID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	result, err := h.stockService.ReceiveBatch(c.Request.Context(), stockapp.ReceiveBatchCommand{
		ProductID:           productID,
		VariantID:           variantID,
		WarehouseID:         warehouseID,
		BatchNumber:         req.BatchNumber,
		Quantity:            req.Quantity,
		ManufactureDate:     req.ManufactureDate,
		ExpiryDate:          req.ExpiryDate,
		SupplierName:        req.SupplierName,
		SupplierBatchNumber: req.SupplierBatchNumber,
		CostPrice:           req.CostPrice,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetLocation retrieves a stock location with its batches.
// GET /stock/locations/:id
func (h *StockHandler) GetLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock location ID format")
		return
	}

	location, err := h.stockService.GetLocation(c.Request.Context(), locationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toStockLocationResponse(location))
}

// Availability reports the quantity still available for new reservations.
// GET /stock/locations/:id/availability
func (h *StockHandler) Availability(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock location ID format")
		return
	}

	available, err := h.stockService.AvailableQuantity(c.Request.Context(), locationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, AvailabilityResponse{
		StockLocationID:   locationID.String(),
		AvailableQuantity: available.String(),
	})
}

// RecallBatch marks a batch as recalled, excluding it from availability.
// POST /stock/locations/:id/batches/:batch_id/recall
func (h *StockHandler) RecallBatch(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock location ID format")
		return
	}
	batchID, err := uuid.Parse(c.Param("batch_id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req RecallBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.stockService.RecallBatch(c.Request.Context(), locationID, batchID, req.Reason); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Allocate performs a firm, all-or-nothing allocation for one order line.
// The X-Idempotency-Key header guards against duplicate invocation.
// POST /stock/allocations
func (h *StockHandler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderLineID, err := uuid.Parse(req.OrderLineID)
	if err != nil {
		h.BadRequest(c, "Invalid order line ID format")
		return
	}
	candidates := make([]uuid.UUID, 0, len(req.CandidateLocationIDs))
	for _, raw := range req.CandidateLocationIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid candidate location ID format")
			return
		}
		candidates = append(candidates, id)
	}

	idempotencyKey := c.GetHeader("X-Idempotency-Key")
	if idempotencyKey == "" {
		h.BadRequest(c, "X-Idempotency-Key header is required")
		return
	}

	records, err := h.allocationService.Allocate(c.Request.Context(), stockapp.AllocateCommand{
		OrderLineID:          orderLineID,
		Quantity:             req.Quantity,
		CandidateLocationIDs: candidates,
		IdempotencyKey:       idempotencyKey,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, records)
}

// AcquireReservation places a session-scoped hold on batch quantity.
// POST /stock/reservations
func (h *StockHandler) AcquireReservation(c *gin.Context) {
	var req AcquireReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	locationID, err := uuid.Parse(req.StockLocationID)
	if err != nil {
		h.BadRequest(c, "Invalid stock location ID format")
		return
	}
	batchID, err := uuid.Parse(req.BatchID)
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var ttl time.Duration
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	result, err := h.reservationService.Acquire(c.Request.Context(), stockapp.AcquireReservationCommand{
		SessionID:       req.SessionID,
		StockLocationID: locationID,
		BatchID:         batchID,
		Quantity:        req.Quantity,
		TTL:             ttl,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ReleaseReservation releases a hold before it expires.
// DELETE /stock/reservations/:id
func (h *StockHandler) ReleaseReservation(c *gin.Context) {
	lockID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid reservation lock ID format")
		return
	}

	if err := h.reservationService.Release(c.Request.Context(), lockID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ReleaseExpiredReservations releases every expired hold in one sweep.
// POST /stock/reservations/release-expired
func (h *StockHandler) ReleaseExpiredReservations(c *gin.Context) {
	count, err := h.expirationService.BulkReleaseExpiredLocks(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ReleaseExpiredResponse{ReleasedCount: count})
}

// parseSKU parses the optional product/variant pair from request strings
func parseSKU(productID, variantID *string) (*uuid.UUID, *uuid.UUID, error) {
	var pid, vid *uuid.UUID
	if productID != nil && *productID != "" {
		id, err := uuid.Parse(*productID)
		if err != nil {
			return nil, nil, err
		}
		pid = &id
	}
	if variantID != nil && *variantID != "" {
		id, err := uuid.Parse(*variantID)
		if err != nil {
			return nil, nil, err
		}
		vid = &id
	}
	return pid, vid, nil
}

// toStockLocationResponse projects the aggregate into the API shape
func toStockLocationResponse(location *stock.StockLocation) StockLocationResponse {
	batches := make([]BatchResponse, 0, len(location.Batches))
	for _, b := range location.Batches {
		batches = append(batches, toBatchResponse(b))
	}

	resp := StockLocationResponse{
		ID:                location.ID.String(),
		WarehouseID:       location.WarehouseID.String(),
		AvailableQuantity: location.AvailableQuantity().String(),
		Batches:           batches,
		Version:           location.Version,
	}
	if location.ProductID != nil {
		s := location.ProductID.String()
		resp.ProductID = &s
	}
	if location.VariantID != nil {
		s := location.VariantID.String()
		resp.VariantID = &s
	}
	return resp
}

func toBatchResponse(b stock.Batch) BatchResponse {
	resp := BatchResponse{
		ID:                  b.ID.String(),
		BatchNumber:         b.BatchNumber,
		Quantity:            b.Quantity.String(),
		Status:              string(b.Status),
		SupplierName:        b.SupplierName,
		SupplierBatchNumber: b.SupplierBatchNumber,
		RecallReason:        b.RecallReason,
	}
	if b.ManufactureDate != nil {
		s := b.ManufactureDate.Format(time.RFC3339)
		resp.ManufactureDate = &s
	}
	if b.ExpiryDate != nil {
		s := b.ExpiryDate.Format(time.RFC3339)
		resp.ExpiryDate = &s
	}
	return resp
}
