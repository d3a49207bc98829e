package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	returnsapp "github.com/stockroom/backend/internal/application/returns"
	"github.com/stockroom/backend/internal/domain/returns"
	"github.com/stockroom/backend/internal/domain/shared"
	"github.com/stockroom/backend/internal/interfaces/http/dto"
)

// ReturnsHandler handles the return request workflow API endpoints
type ReturnsHandler struct {
	BaseHandler
	returnService *returnsapp.ReturnService
	pickupService *returnsapp.PickupService
}

// NewReturnsHandler creates a new ReturnsHandler
func NewReturnsHandler(returnService *returnsapp.ReturnService, pickupService *returnsapp.PickupService) *ReturnsHandler {
	return &ReturnsHandler{
		returnService: returnService,
		pickupService: pickupService,
	}
}

// SubmitReturnItemRequest is one requested return line
type SubmitReturnItemRequest struct {
	OrderLineID string          `json:"order_line_id" binding:"required,uuid"`
	ProductID   *string         `json:"product_id"`
	VariantID   *string         `json:"variant_id"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// SubmitReturnMediaRequest is one customer-supplied attachment
type SubmitReturnMediaRequest struct {
	Kind string `json:"kind" binding:"required,oneof=PHOTO VIDEO"`
	URL  string `json:"url" binding:"required,url"`
}

// SubmitReturnRequest is the request body for opening a return request
type SubmitReturnRequest struct {
	OrderID    string                     `json:"order_id" binding:"required,uuid"`
	CustomerID string                     `json:"customer_id" binding:"required,uuid"`
	Reason     string                     `json:"reason" binding:"required"`
	Items      []SubmitReturnItemRequest  `json:"items" binding:"required,min=1,dive"`
	Media      []SubmitReturnMediaRequest `json:"media" binding:"omitempty,dive"`
}

// DecideReturnRequest approves or denies a pending request
type DecideReturnRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// AssignAgentRequest assigns a delivery agent to an approved request
type AssignAgentRequest struct {
	AgentID    string `json:"agent_id" binding:"required,uuid"`
	AssignedBy string `json:"assigned_by" binding:"required,uuid"`
	Notes      string `json:"notes"`
}

// SchedulePickupRequest sets the pickup appointment
type SchedulePickupRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// ReasonRequest carries a free-form reason for fail/cancel/appeal transitions
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DecideAppealRequest decides an open appeal
type DecideAppealRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

// RefundRequest records the processed refund amount
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// PickupItemDecisionRequest carries the agent's verdict for one return item
type PickupItemDecisionRequest struct {
	ReturnItemID string `json:"return_item_id" binding:"required,uuid"`
	Outcome      string `json:"outcome" binding:"required"`
	Notes        string `json:"notes"`
}

// ProcessPickupRequest is the request body for completing a pickup
type ProcessPickupRequest struct {
	AgentID   string                      `json:"agent_id" binding:"required,uuid"`
	Decisions []PickupItemDecisionRequest `json:"decisions" binding:"required,min=1,dive"`
}

// ListReturnsRequest represents the list query parameters
type ListReturnsRequest struct {
	dto.ListRequest
	Status         string `form:"status"`
	DeliveryStatus string `form:"delivery_status"`
	OrderID        string `form:"order_id"`
	CustomerID     string `form:"customer_id"`
	AgentID        string `form:"agent_id"`
}

// Submit opens a pending return request against a fulfilled order.
// POST /returns
func (h *ReturnsHandler) Submit(c *gin.Context) {
	var req SubmitReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	items := make([]returnsapp.SubmitReturnItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		orderLineID, err := uuid.Parse(item.OrderLineID)
		if err != nil {
			h.BadRequest(c, "Invalid order line ID format")
			return
		}
		productID, variantID, err := parseSKU(item.ProductID, item.VariantID)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		items = append(items, returnsapp.SubmitReturnItemInput{
			OrderLineID: orderLineID,
			ProductID:   productID,
			VariantID:   variantID,
			Quantity:    item.Quantity,
		})
	}

	media := make([]returnsapp.SubmitReturnMediaInput, 0, len(req.Media))
	for _, m := range req.Media {
		media = append(media, returnsapp.SubmitReturnMediaInput{
			Kind: returns.MediaKind(m.Kind),
			URL:  m.URL,
		})
	}

	result, err := h.returnService.SubmitReturn(c.Request.Context(), returnsapp.SubmitReturnCommand{
		OrderID:    orderID,
		CustomerID: customerID,
		Reason:     req.Reason,
		Items:      items,
		Media:      media,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Get retrieves one return request.
// GET /returns/:id
func (h *ReturnsHandler) Get(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return request ID format")
		return
	}

	result, err := h.returnService.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// List retrieves return requests with filtering and pagination.
// GET /returns
func (h *ReturnsHandler) List(c *gin.Context) {
	var req ListReturnsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	// Leave OrderBy empty unless the client asked for it; the repository
	// falls back to submitted_at DESC.
	filter.OrderBy = req.OrderBy
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	for key, value := range map[string]string{
		"status":          req.Status,
		"delivery_status": req.DeliveryStatus,
		"order_id":        req.OrderID,
		"customer_id":     req.CustomerID,
		"agent_id":        req.AgentID,
	} {
		if value != "" {
			filter.Filters[key] = value
		}
	}

	page, err := h.returnService.ListRequests(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, filter.Page, filter.PageSize)
}

// Decide approves or denies a pending return request.
// POST /returns/:id/decision
func (h *ReturnsHandler) Decide(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req DecideReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.DecideReturn(c.Request.Context(), returnsapp.DecideReturnCommand{
		RequestID: requestID,
		Approve:   req.Approve,
		Notes:     req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// AssignAgent assigns a delivery agent to an approved request.
// POST /returns/:id/agent
func (h *ReturnsHandler) AssignAgent(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req AssignAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}
	assignedBy, err := uuid.Parse(req.AssignedBy)
	if err != nil {
		h.BadRequest(c, "Invalid assigner ID format")
		return
	}

	result, err := h.returnService.AssignAgent(c.Request.Context(), returnsapp.AssignAgentCommand{
		RequestID:  requestID,
		AgentID:    agentID,
		AssignedBy: assignedBy,
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// SchedulePickup sets the pickup appointment for an assigned request.
// POST /returns/:id/pickup/schedule
func (h *ReturnsHandler) SchedulePickup(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req SchedulePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.SchedulePickup(c.Request.Context(), requestID, req.ScheduledAt)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// StartPickup marks the pickup as in progress.
// POST /returns/:id/pickup/start
func (h *ReturnsHandler) StartPickup(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	result, err := h.returnService.StartPickup(c.Request.Context(), requestID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// FailPickup records a failed pickup attempt, allowing re-assignment.
// POST /returns/:id/pickup/fail
func (h *ReturnsHandler) FailPickup(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.FailPickup(c.Request.Context(), requestID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// CancelPickup cancels the current delivery assignment.
// POST /returns/:id/pickup/cancel
func (h *ReturnsHandler) CancelPickup(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.CancelPickup(c.Request.Context(), requestID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ProcessPickup completes a pickup: the agent's per-item verdicts are
// reconciled against the batch ledger in one transaction.
// The X-Idempotency-Key header guards against duplicate submission.
// POST /returns/:id/pickup/complete
func (h *ReturnsHandler) ProcessPickup(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req ProcessPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		h.BadRequest(c, "Invalid agent ID format")
		return
	}

	idempotencyKey := c.GetHeader("X-Idempotency-Key")
	if idempotencyKey == "" {
		h.BadRequest(c, "X-Idempotency-Key header is required")
		return
	}

	decisions := make([]returnsapp.PickupItemDecision, 0, len(req.Decisions))
	for _, d := range req.Decisions {
		itemID, err := uuid.Parse(d.ReturnItemID)
		if err != nil {
			h.BadRequest(c, "Invalid return item ID format")
			return
		}
		decisions = append(decisions, returnsapp.PickupItemDecision{
			ReturnItemID: itemID,
			Outcome:      returnsapp.PickupOutcome(d.Outcome),
			Notes:        d.Notes,
		})
	}

	result, err := h.pickupService.ProcessPickup(c.Request.Context(), returnsapp.ProcessPickupCommand{
		RequestID:      requestID,
		AgentID:        agentID,
		Decisions:      decisions,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// OpenAppeal opens an appeal against a denied request.
// POST /returns/:id/appeal
func (h *ReturnsHandler) OpenAppeal(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.OpenAppeal(c.Request.Context(), requestID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// DecideAppeal decides an open appeal.
// POST /returns/:id/appeal/decision
func (h *ReturnsHandler) DecideAppeal(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req DecideAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.DecideAppeal(c.Request.Context(), requestID, req.Approve, req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// MarkRefund records the processed refund for a completed request.
// POST /returns/:id/refund
func (h *ReturnsHandler) MarkRefund(c *gin.Context) {
	requestID, ok := h.pathRequestID(c)
	if !ok {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.MarkRefundProcessed(c.Request.Context(), requestID, req.Amount)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// pathRequestID parses the :id path parameter, writing a 400 on failure
func (h *ReturnsHandler) pathRequestID(c *gin.Context) (uuid.UUID, bool) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return request ID format")
		return uuid.Nil, false
	}
	return requestID, true
}
