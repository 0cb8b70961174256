package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCard,
		PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// Allocation records how much of a payment was applied to one sale.
// Amount is always the APPLIED amount after clamping, never the requested one.
type Allocation struct {
	ID          uuid.UUID       `json:"id"`
	SaleID      uuid.UUID       `json:"sale_id"`
	SaleNumber  string          `json:"sale_number"`
	Amount      decimal.Decimal `json:"amount"`
	AllocatedAt time.Time       `json:"allocated_at"`
}

// Allocations is a slice of Allocation that implements GORM Scanner/Valuer
// for JSONB storage
type Allocations []Allocation

// Value implements driver.Valuer for JSONB storage
func (a Allocations) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for JSONB retrieval
func (a *Allocations) Scan(value interface{}) error {
	if value == nil {
		*a = Allocations{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan Allocations: unsupported type")
	}

	if len(data) == 0 {
		*a = Allocations{}
		return nil
	}
	return json.Unmarshal(data, a)
}

// Payment is the aggregate root for a receipt of money from a customer.
// The gross amount is fixed by the payer; allocations distribute it across
// that customer's sales and may leave a remainder unallocated.
type Payment struct {
	shared.BaseAggregateRoot
	ReceiptNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName  string          `gorm:"type:varchar(200);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method        PaymentMethod   `gorm:"type:varchar(20);not null"`
	PaymentDate   time.Time       `gorm:"not null;index"`
	Reference     string          `gorm:"type:varchar(100)"`
	Notes         string          `gorm:"type:text"`
	Allocations   Allocations     `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a new payment. The receipt number is assigned once and
// never changes.
func NewPayment(receiptNumber string, customerID uuid.UUID, customerName string, amount decimal.Decimal, method PaymentMethod, paymentDate time.Time) (*Payment, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Receipt number cannot be empty")
	}
	if len(receiptNumber) > 50 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Receipt number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Customer ID cannot be empty")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Customer name cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invalid payment method")
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	payment := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReceiptNumber:     receiptNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		Amount:            amount,
		Method:            method,
		PaymentDate:       paymentDate,
		Allocations:       Allocations{},
	}

	payment.AddDomainEvent(NewPaymentCreatedEvent(payment))

	return payment, nil
}

// RecordAllocation appends an applied allocation to this payment
func (p *Payment) RecordAllocation(saleID uuid.UUID, saleNumber string, amount decimal.Decimal) error {
	if saleID == uuid.Nil {
		return shared.NewDomainError("VALIDATION_FAILED", "Sale ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Allocation amount must be positive")
	}
	if p.AllocatedAmount().Add(amount).GreaterThan(p.Amount.Add(valueobject.Epsilon)) {
		return shared.NewDomainError("VALIDATION_FAILED", "Allocations cannot exceed the payment amount")
	}

	p.Allocations = append(p.Allocations, Allocation{
		ID:          uuid.New(),
		SaleID:      saleID,
		SaleNumber:  saleNumber,
		Amount:      amount,
		AllocatedAt: time.Now(),
	})
	p.Touch()
	p.IncrementVersion()

	return nil
}

// ClearAllocations removes every allocation record. Used when reversing a
// payment before re-applying it.
func (p *Payment) ClearAllocations() {
	p.Allocations = Allocations{}
	p.Touch()
	p.IncrementVersion()
}

// UpdateDetails overwrites the payment scalars. Zero values mean "keep the
// existing value" for amount, method, and date; reference and notes are
// overwritten as given.
func (p *Payment) UpdateDetails(amount decimal.Decimal, method PaymentMethod, paymentDate time.Time, reference, notes string) error {
	if amount.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Payment amount must be positive")
	}
	if method != "" && !method.IsValid() {
		return shared.NewDomainError("VALIDATION_FAILED", "Invalid payment method")
	}

	if amount.IsPositive() {
		p.Amount = amount
	}
	if method != "" {
		p.Method = method
	}
	if !paymentDate.IsZero() {
		p.PaymentDate = paymentDate
	}
	p.Reference = reference
	p.Notes = notes
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentUpdatedEvent(p))

	return nil
}

// AllocatedAmount returns the sum of all applied allocations
func (p *Payment) AllocatedAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Allocations {
		total = total.Add(p.Allocations[i].Amount)
	}
	return total
}

// UnallocatedAmount returns the remainder of the payment not yet applied to
// any sale
func (p *Payment) UnallocatedAmount() decimal.Decimal {
	return valueobject.Snap(p.Amount.Sub(p.AllocatedAmount()))
}

// IsFullyAllocated reports whether no effective remainder is left
func (p *Payment) IsFullyAllocated() bool {
	return valueobject.IsSettled(p.Amount.Sub(p.AllocatedAmount()))
}

// FindAllocation returns the allocation for a sale, or nil
func (p *Payment) FindAllocation(saleID uuid.UUID) *Allocation {
	for i := range p.Allocations {
		if p.Allocations[i].SaleID == saleID {
			return &p.Allocations[i]
		}
	}
	return nil
}

// GetAmountMoney returns the gross amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}

// GetUnallocatedMoney returns the unallocated remainder as Money
func (p *Payment) GetUnallocatedMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.UnallocatedAmount())
}
