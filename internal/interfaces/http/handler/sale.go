package handler

import (
	billingapp "github.com/billing/backend/internal/application/billing"
	"github.com/billing/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleHandler handles sale-related API endpoints
type SaleHandler struct {
	BaseHandler
	saleService *billingapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *billingapp.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// SaleListRequest represents sale list query parameters
type SaleListRequest struct {
	dto.ListRequest
	CustomerID    string `form:"customer_id" binding:"omitempty,uuid"`
	Status        string `form:"status" binding:"omitempty,oneof=completed cancelled refunded"`
	PaymentStatus string `form:"payment_status" binding:"omitempty,oneof=pending partial paid overpaid"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
	MinAmount     string `form:"min_amount"`
	MaxAmount     string `form:"max_amount"`
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req billingapp.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, sale)
}

// GetByID handles GET /sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// GetByInvoiceNumber handles GET /sales/invoice/:invoice_number
func (h *SaleHandler) GetByInvoiceNumber(c *gin.Context) {
	invoiceNumber := c.Param("invoice_number")
	if invoiceNumber == "" {
		h.BadRequest(c, "Invoice number is required")
		return
	}

	sale, err := h.saleService.GetByInvoiceNumber(c.Request.Context(), invoiceNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var req SaleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := req.ToFilter()
	if req.CustomerID != "" {
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		filter.Filters["customer_id"] = customerID
	}
	if req.Status != "" {
		filter.Filters["status"] = req.Status
	}
	if req.PaymentStatus != "" {
		filter.Filters["payment_status"] = req.PaymentStatus
	}
	if req.StartDate != "" {
		filter.Filters["start_date"] = req.StartDate
	}
	if req.EndDate != "" {
		filter.Filters["end_date"] = req.EndDate
	}
	if req.MinAmount != "" {
		filter.Filters["min_amount"] = req.MinAmount
	}
	if req.MaxAmount != "" {
		filter.Filters["max_amount"] = req.MaxAmount
	}

	result, err := h.saleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update handles PUT /sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req billingapp.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.Update(c.Request.Context(), saleID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// Cancel handles POST /sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req billingapp.CancelSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.Cancel(c.Request.Context(), saleID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// RegisterRoutes registers all sale routes
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.Create)
		sales.GET("", h.List)
		sales.GET("/:id", h.GetByID)
		sales.GET("/invoice/:invoice_number", h.GetByInvoiceNumber)
		sales.PUT("/:id", h.Update)
		sales.POST("/:id/cancel", h.Cancel)
	}
}
