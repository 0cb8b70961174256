package billing

import (
	"github.com/billing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeSaleCreated        = "billing.sale.created"
	EventTypeSaleCancelled      = "billing.sale.cancelled"
	EventTypeSaleReceiptApplied = "billing.sale.receipt_applied"
	EventTypePaymentCreated     = "billing.payment.created"
	EventTypePaymentUpdated     = "billing.payment.updated"
)

// SaleCreatedEvent is published when a sale is created
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    string          `json:"customer_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewSaleCreatedEvent creates a new sale created event
func NewSaleCreatedEvent(s *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, "Sale", s.ID),
		InvoiceNumber:   s.InvoiceNumber,
		CustomerID:      s.CustomerID.String(),
		TotalAmount:     s.TotalAmount,
	}
}

// SaleCancelledEvent is published when a sale is cancelled
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string `json:"invoice_number"`
	Reason        string `json:"reason"`
}

// NewSaleCancelledEvent creates a new sale cancelled event
func NewSaleCancelledEvent(s *Sale, reason string) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, "Sale", s.ID),
		InvoiceNumber:   s.InvoiceNumber,
		Reason:          reason,
	}
}

// SaleReceiptAppliedEvent is published when money is applied to a sale
type SaleReceiptAppliedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// NewSaleReceiptAppliedEvent creates a new receipt applied event
func NewSaleReceiptAppliedEvent(s *Sale, amount decimal.Decimal) *SaleReceiptAppliedEvent {
	return &SaleReceiptAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleReceiptApplied, "Sale", s.ID),
		InvoiceNumber:   s.InvoiceNumber,
		Amount:          amount,
		Balance:         s.Balance,
		PaymentStatus:   s.PaymentStatus,
	}
}

// PaymentCreatedEvent is published when a payment is created
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
}

// NewPaymentCreatedEvent creates a new payment created event
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, "Payment", p.ID),
		ReceiptNumber:   p.ReceiptNumber,
		CustomerID:      p.CustomerID.String(),
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentUpdatedEvent is published when a payment's details change
type PaymentUpdatedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewPaymentUpdatedEvent creates a new payment updated event
func NewPaymentUpdatedEvent(p *Payment) *PaymentUpdatedEvent {
	return &PaymentUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentUpdated, "Payment", p.ID),
		ReceiptNumber:   p.ReceiptNumber,
		Amount:          p.Amount,
	}
}
