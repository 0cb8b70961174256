package billing

import (
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Sale DTOs ====================

// CreateSaleRequest represents a request to create a sale
type CreateSaleRequest struct {
	CustomerID  uuid.UUID        `json:"customer_id" binding:"required"`
	Items       []SaleItemInput  `json:"items" binding:"required,min=1"`
	Discount    *decimal.Decimal `json:"discount"`
	Tax         *decimal.Decimal `json:"tax"`
	InitialPaid *decimal.Decimal `json:"initial_paid"`
	SaleDate    *time.Time       `json:"sale_date"`
	Notes       string           `json:"notes"`
}

// SaleItemInput represents a line item in a create or update request
type SaleItemInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Discount  *decimal.Decimal `json:"discount"`
}

// UpdateSaleRequest represents a request to update a sale.
// Items, when present, fully replace the existing line items.
type UpdateSaleRequest struct {
	Items    []SaleItemInput  `json:"items"`
	Discount *decimal.Decimal `json:"discount"`
	Tax      *decimal.Decimal `json:"tax"`
	Notes    *string          `json:"notes"`
}

// CancelSaleRequest represents a request to cancel a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// SaleItemResponse represents a line item in a sale response
type SaleItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductCode string          `json:"product_code"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	InvoiceNumber  string             `json:"invoice_number"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	CustomerName   string             `json:"customer_name"`
	Items          []SaleItemResponse `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	PaidAmount     decimal.Decimal    `json:"paid_amount"`
	Balance        decimal.Decimal    `json:"balance"`
	PaymentStatus  string             `json:"payment_status"`
	Status         string             `json:"status"`
	SaleDate       time.Time          `json:"sale_date"`
	Notes          string             `json:"notes,omitempty"`
	CancelledAt    *time.Time         `json:"cancelled_at,omitempty"`
	CancelReason   string             `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// ToSaleResponse converts a Sale aggregate to a response DTO
func ToSaleResponse(sale *billing.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = SaleItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductCode: item.ProductCode,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			LineTotal:   item.LineTotal,
		}
	}

	return SaleResponse{
		ID:             sale.ID,
		InvoiceNumber:  sale.InvoiceNumber,
		CustomerID:     sale.CustomerID,
		CustomerName:   sale.CustomerName,
		Items:          items,
		Subtotal:       sale.Subtotal,
		DiscountAmount: sale.DiscountAmount,
		TaxAmount:      sale.TaxAmount,
		TotalAmount:    sale.TotalAmount,
		PaidAmount:     sale.PaidAmount,
		Balance:        sale.Balance,
		PaymentStatus:  sale.PaymentStatus.String(),
		Status:         sale.Status.String(),
		SaleDate:       sale.SaleDate,
		Notes:          sale.Notes,
		CancelledAt:    sale.CancelledAt,
		CancelReason:   sale.CancelReason,
		CreatedAt:      sale.CreatedAt,
		UpdatedAt:      sale.UpdatedAt,
	}
}

// ==================== Payment DTOs ====================

// AllocationInput requests applying part of a payment to one sale
type AllocationInput struct {
	SaleID uuid.UUID       `json:"sale_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CreatePaymentRequest represents a request to record a payment
type CreatePaymentRequest struct {
	CustomerID  uuid.UUID         `json:"customer_id" binding:"required"`
	Amount      decimal.Decimal   `json:"amount" binding:"required"`
	Method      string            `json:"method" binding:"required"`
	PaymentDate *time.Time        `json:"payment_date"`
	Reference   string            `json:"reference" binding:"max=100"`
	Notes       string            `json:"notes"`
	Allocations []AllocationInput `json:"allocations"`
}

// UpdatePaymentRequest represents a request to update a payment. Omitted
// scalar fields keep their existing values; a supplied amount must be
// positive. The allocation list always replaces the previous one in full.
type UpdatePaymentRequest struct {
	Amount      *decimal.Decimal  `json:"amount"`
	Method      *string           `json:"method"`
	PaymentDate *time.Time        `json:"payment_date"`
	Reference   *string           `json:"reference"`
	Notes       *string           `json:"notes"`
	Allocations []AllocationInput `json:"allocations"`
}

// AllocationResponse represents one applied allocation
type AllocationResponse struct {
	SaleID      uuid.UUID       `json:"sale_id"`
	SaleNumber  string          `json:"sale_number"`
	Amount      decimal.Decimal `json:"amount"`
	AllocatedAt time.Time       `json:"allocated_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID            `json:"id"`
	ReceiptNumber     string               `json:"receipt_number"`
	CustomerID        uuid.UUID            `json:"customer_id"`
	CustomerName      string               `json:"customer_name"`
	Amount            decimal.Decimal      `json:"amount"`
	Method            string               `json:"method"`
	PaymentDate       time.Time            `json:"payment_date"`
	Reference         string               `json:"reference,omitempty"`
	Notes             string               `json:"notes,omitempty"`
	Allocations       []AllocationResponse `json:"allocations"`
	AllocatedAmount   decimal.Decimal      `json:"allocated_amount"`
	UnallocatedAmount decimal.Decimal      `json:"unallocated_amount"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// ToPaymentResponse converts a Payment aggregate to a response DTO
func ToPaymentResponse(payment *billing.Payment) PaymentResponse {
	allocations := make([]AllocationResponse, len(payment.Allocations))
	for i, alloc := range payment.Allocations {
		allocations[i] = AllocationResponse{
			SaleID:      alloc.SaleID,
			SaleNumber:  alloc.SaleNumber,
			Amount:      alloc.Amount,
			AllocatedAt: alloc.AllocatedAt,
		}
	}

	return PaymentResponse{
		ID:                payment.ID,
		ReceiptNumber:     payment.ReceiptNumber,
		CustomerID:        payment.CustomerID,
		CustomerName:      payment.CustomerName,
		Amount:            payment.Amount,
		Method:            payment.Method.String(),
		PaymentDate:       payment.PaymentDate,
		Reference:         payment.Reference,
		Notes:             payment.Notes,
		Allocations:       allocations,
		AllocatedAmount:   payment.AllocatedAmount(),
		UnallocatedAmount: payment.UnallocatedAmount(),
		CreatedAt:         payment.CreatedAt,
		UpdatedAt:         payment.UpdatedAt,
	}
}

// ToAllocationRequests converts allocation inputs to engine requests,
// preserving order
func ToAllocationRequests(inputs []AllocationInput) []billing.AllocationRequest {
	requests := make([]billing.AllocationRequest, len(inputs))
	for i, input := range inputs {
		requests[i] = billing.AllocationRequest{
			SaleID: input.SaleID,
			Amount: input.Amount,
		}
	}
	return requests
}
