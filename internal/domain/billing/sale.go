package billing

import (
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the lifecycle status of a sale
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
	SaleStatusRefunded  SaleStatus = "refunded"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusCompleted, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// PaymentStatus classifies how much of a sale has been collected
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusOverpaid PaymentStatus = "overpaid"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentStatusFor derives the payment status from total and paid amounts.
// Pure function: recomputing from the same stored amounts always yields the
// same status. Amounts within Epsilon of settled are treated as settled.
func PaymentStatusFor(total, paid decimal.Decimal) PaymentStatus {
	balance := total.Sub(paid)
	switch {
	case valueobject.IsEffectivelyNegative(balance):
		return PaymentStatusOverpaid
	case valueobject.IsSettled(balance):
		return PaymentStatusPaid
	case valueobject.IsEffectivelyPositive(paid):
		return PaymentStatusPartial
	default:
		return PaymentStatusPending
	}
}

// SaleItem represents a line item in a sale
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	ProductCode string          `gorm:"type:varchar(50);not null"`
	Unit        string          `gorm:"type:varchar(20)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// NewSaleItem creates a new sale line item.
// The line total is quantity * unitPrice - discount.
func NewSaleItem(saleID, productID uuid.UUID, productName, productCode, unit string, quantity, unitPrice, discount decimal.Decimal) (*SaleItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Unit price cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Line discount cannot be negative")
	}

	gross := quantity.Mul(unitPrice)
	if discount.GreaterThan(gross) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Line discount cannot exceed the line amount")
	}

	now := time.Now()
	return &SaleItem{
		ID:          uuid.New(),
		SaleID:      saleID,
		ProductID:   productID,
		ProductName: productName,
		ProductCode: productCode,
		Unit:        unit,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Discount:    discount,
		LineTotal:   gross.Sub(discount),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetLineTotalMoney returns the line total as Money
func (i *SaleItem) GetLineTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.LineTotal)
}

// Sale is the aggregate root for an invoice.
// Monetary derivation order is fixed: subtotal is the sum of line totals,
// total = subtotal - discount + tax, balance = total - paid snapped to zero
// within Epsilon, and payment status is a pure function of (total, paid).
type Sale struct {
	shared.BaseAggregateRoot
	InvoiceNumber  string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName   string          `gorm:"type:varchar(200);not null"`
	Items          []SaleItem      `gorm:"foreignKey:SaleID;references:ID"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Balance        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentStatus  PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	Status         SaleStatus      `gorm:"type:varchar(20);not null;default:'completed';index"`
	SaleDate       time.Time       `gorm:"not null;index"`
	Notes          string          `gorm:"type:text"`
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale creates a new sale for a customer. The invoice number is assigned
// once at creation and never changes.
func NewSale(invoiceNumber string, customerID uuid.UUID, customerName string, saleDate time.Time) (*Sale, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invoice number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Customer name cannot be empty")
	}
	if saleDate.IsZero() {
		saleDate = time.Now()
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Items:             make([]SaleItem, 0),
		Subtotal:          decimal.Zero,
		DiscountAmount:    decimal.Zero,
		TaxAmount:         decimal.Zero,
		TotalAmount:       decimal.Zero,
		PaidAmount:        decimal.Zero,
		Balance:           decimal.Zero,
		PaymentStatus:     PaymentStatusPending,
		Status:            SaleStatusCompleted,
		SaleDate:          saleDate,
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))

	return sale, nil
}

// ReplaceItems replaces the full item list and recomputes all derived amounts
// from scratch. Partial item edits are not supported.
func (s *Sale) ReplaceItems(items []SaleItem) error {
	if s.IsCancelled() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a cancelled sale")
	}
	if len(items) == 0 {
		return shared.NewDomainError("VALIDATION_FAILED", "Sale must have at least one item")
	}

	for i := range items {
		items[i].SaleID = s.ID
	}
	s.Items = items
	s.recalculate()
	s.Touch()
	s.IncrementVersion()

	return nil
}

// SetDiscountAndTax sets the sale-level discount and tax, then recomputes
func (s *Sale) SetDiscountAndTax(discount, tax decimal.Decimal) error {
	if s.IsCancelled() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a cancelled sale")
	}
	if discount.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Discount cannot be negative")
	}
	if tax.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Tax cannot be negative")
	}
	if discount.GreaterThan(s.Subtotal) {
		return shared.NewDomainError("VALIDATION_FAILED", "Discount cannot exceed the subtotal")
	}

	s.DiscountAmount = discount
	s.TaxAmount = tax
	s.recalculate()
	s.Touch()
	s.IncrementVersion()

	return nil
}

// SetNotes sets free-form notes on the sale
func (s *Sale) SetNotes(notes string) {
	s.Notes = notes
	s.Touch()
	s.IncrementVersion()
}

// ApplyReceipt records an amount received against this sale and re-derives
// balance and payment status. The caller (the allocation engine) is
// responsible for clamping; this method only rejects non-positive amounts.
func (s *Sale) ApplyReceipt(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Receipt amount must be positive")
	}

	s.PaidAmount = s.PaidAmount.Add(amount)
	s.derive()
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleReceiptAppliedEvent(s, amount))

	return nil
}

// RevokeReceipt removes a previously applied amount. Used when a payment is
// reversed; applies regardless of sale status so reversal is always the exact
// inverse of allocation.
func (s *Sale) RevokeReceipt(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Revoked amount must be positive")
	}

	s.PaidAmount = valueobject.Snap(s.PaidAmount.Sub(amount))
	s.derive()
	s.Touch()
	s.IncrementVersion()

	return nil
}

// Cancel cancels the sale. Cancellation is terminal and excludes the sale
// from all customer aggregation.
func (s *Sale) Cancel(reason string) error {
	if s.IsCancelled() {
		return shared.NewDomainError("INVALID_STATE", "Sale is already cancelled")
	}

	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleCancelledEvent(s, reason))

	return nil
}

// MarkRefunded marks a completed sale as refunded
func (s *Sale) MarkRefunded() error {
	if s.Status != SaleStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only a completed sale can be refunded")
	}

	s.Status = SaleStatusRefunded
	s.Touch()
	s.IncrementVersion()

	return nil
}

// IsCancelled returns true if the sale is cancelled
func (s *Sale) IsCancelled() bool {
	return s.Status == SaleStatusCancelled
}

// HasOutstandingBalance reports whether money is still owed on this sale
func (s *Sale) HasOutstandingBalance() bool {
	return valueobject.IsEffectivelyPositive(s.Balance)
}

// recalculate recomputes the subtotal from the items, then the total and the
// paid-derived fields
func (s *Sale) recalculate() {
	subtotal := decimal.Zero
	for i := range s.Items {
		subtotal = subtotal.Add(s.Items[i].LineTotal)
	}
	s.Subtotal = subtotal
	s.derive()
}

// derive recomputes total, balance, and payment status from the stored
// amounts. Called after every mutation of items, discount, tax, or paid.
func (s *Sale) derive() {
	s.TotalAmount = s.Subtotal.Sub(s.DiscountAmount).Add(s.TaxAmount)
	s.Balance = valueobject.Snap(s.TotalAmount.Sub(s.PaidAmount))
	s.PaymentStatus = PaymentStatusFor(s.TotalAmount, s.PaidAmount)
}

// GetSubtotalMoney returns the subtotal as Money
func (s *Sale) GetSubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(s.Subtotal)
}

// GetTotalMoney returns the total as Money
func (s *Sale) GetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(s.TotalAmount)
}

// GetPaidMoney returns the paid amount as Money
func (s *Sale) GetPaidMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(s.PaidAmount)
}

// GetBalanceMoney returns the outstanding balance as Money
func (s *Sale) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(s.Balance)
}
