package partner

import (
	"regexp"
	"strings"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// CustomerType represents the type of customer
type CustomerType string

const (
	CustomerTypeIndividual   CustomerType = "individual"
	CustomerTypeOrganization CustomerType = "organization"
)

// CreditStatus classifies a customer's standing against their credit limit.
// It is derived from the signed outstanding amount and never enforced as a
// hard constraint on sale creation.
type CreditStatus string

const (
	CreditStatusClear       CreditStatus = "clear"        // outstanding within tolerance of zero (or in credit)
	CreditStatusWithinLimit CreditStatus = "within_limit" // owes money, inside the credit limit
	CreditStatusOverLimit   CreditStatus = "over_limit"   // owes more than the credit limit
)

// Customer is the aggregate root for customer-related operations.
// OutstandingAmount is a signed running aggregate maintained incrementally by
// sale and payment mutations: positive means the customer owes money, negative
// means the customer holds a credit. TotalPurchase aggregates the totals of
// non-cancelled sales. Both are best-effort caches; list/detail reads recompute
// them from the sales themselves.
type Customer struct {
	shared.BaseAggregateRoot
	Code              string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(200);not null"`
	Type              CustomerType    `gorm:"type:varchar(20);not null;default:'individual'"`
	Status            CustomerStatus  `gorm:"type:varchar(20);not null;default:'active'"`
	ContactName       string          `gorm:"type:varchar(100)"`
	Phone             string          `gorm:"type:varchar(50);index"`
	Email             string          `gorm:"type:varchar(200);index"`
	Address           string          `gorm:"type:text"`
	CreditLimit       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OutstandingAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPurchase     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes             string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer with required fields
func NewCustomer(code, name string, customerType CustomerType) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}
	if err := validateCustomerType(customerType); err != nil {
		return nil, err
	}

	customer := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Type:              customerType,
		Status:            CustomerStatusActive,
		CreditLimit:       decimal.Zero,
		OutstandingAmount: decimal.Zero,
		TotalPurchase:     decimal.Zero,
	}

	customer.AddDomainEvent(NewCustomerCreatedEvent(customer))

	return customer, nil
}

// Update updates the customer's basic information
func (c *Customer) Update(name string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}

	c.Name = name
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerUpdatedEvent(c))

	return nil
}

// SetContact sets the customer's contact information
func (c *Customer) SetContact(contactName, phone, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("VALIDATION_FAILED", "Contact name cannot exceed 100 characters")
	}
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	c.ContactName = contactName
	c.Phone = phone
	c.Email = email
	c.Touch()
	c.IncrementVersion()

	return nil
}

// SetAddress sets the customer's address
func (c *Customer) SetAddress(address string) error {
	if len(address) > 500 {
		return shared.NewDomainError("VALIDATION_FAILED", "Address cannot exceed 500 characters")
	}

	c.Address = address
	c.Touch()
	c.IncrementVersion()

	return nil
}

// SetCreditLimit sets the customer's credit limit
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Credit limit cannot be negative")
	}

	c.CreditLimit = limit
	c.Touch()
	c.IncrementVersion()

	return nil
}

// SetNotes sets the customer's notes
func (c *Customer) SetNotes(notes string) {
	c.Notes = notes
	c.Touch()
	c.IncrementVersion()
}

// ApplyBalanceDelta applies signed increments to the running aggregates.
// This is the only mutation the reconciliation engine uses; the customer
// never recomputes itself. Outstanding may go negative - the sign means
// the customer holds a credit.
func (c *Customer) ApplyBalanceDelta(outstandingDelta, purchaseDelta decimal.Decimal) {
	if outstandingDelta.IsZero() && purchaseDelta.IsZero() {
		return
	}

	oldOutstanding := c.OutstandingAmount
	c.OutstandingAmount = valueobject.Snap(c.OutstandingAmount.Add(outstandingDelta))
	c.TotalPurchase = c.TotalPurchase.Add(purchaseDelta)
	c.Touch()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerBalanceChangedEvent(c, oldOutstanding, c.OutstandingAmount))
}

// GetCreditStatus derives the customer's credit classification
func (c *Customer) GetCreditStatus() CreditStatus {
	return CreditStatusFor(c.OutstandingAmount, c.CreditLimit)
}

// CreditStatusFor classifies an outstanding amount against a credit limit.
// Pure function: the same inputs always yield the same status.
func CreditStatusFor(outstanding, creditLimit decimal.Decimal) CreditStatus {
	if !valueobject.IsEffectivelyPositive(outstanding) {
		return CreditStatusClear
	}
	if outstanding.GreaterThan(creditLimit.Add(valueobject.Epsilon)) {
		return CreditStatusOverLimit
	}
	return CreditStatusWithinLimit
}

// HasOutstanding reports whether the customer effectively owes money
func (c *Customer) HasOutstanding() bool {
	return valueobject.IsEffectivelyPositive(c.OutstandingAmount)
}

// HasCredit reports whether the customer holds an overpayment credit
func (c *Customer) HasCredit() bool {
	return valueobject.IsEffectivelyNegative(c.OutstandingAmount)
}

// Activate activates the customer
func (c *Customer) Activate() error {
	if c.Status == CustomerStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Customer is already active")
	}

	c.Status = CustomerStatusActive
	c.Touch()
	c.IncrementVersion()

	return nil
}

// Deactivate deactivates the customer
func (c *Customer) Deactivate() error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Customer is already inactive")
	}

	c.Status = CustomerStatusInactive
	c.Touch()
	c.IncrementVersion()

	return nil
}

// IsActive returns true if the customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// GetOutstandingAmountMoney returns the outstanding amount as Money
func (c *Customer) GetOutstandingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(c.OutstandingAmount)
}

// GetTotalPurchaseMoney returns the total purchase amount as Money
func (c *Customer) GetTotalPurchaseMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(c.TotalPurchase)
}

// Validation functions

func validateCustomerCode(code string) error {
	if code == "" {
		return shared.NewDomainError("VALIDATION_FAILED", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("VALIDATION_FAILED", "Customer code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("VALIDATION_FAILED", "Customer code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError("VALIDATION_FAILED", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_FAILED", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateCustomerType(t CustomerType) error {
	switch t {
	case CustomerTypeIndividual, CustomerTypeOrganization:
		return nil
	default:
		return shared.NewDomainError("VALIDATION_FAILED", "Customer type must be 'individual' or 'organization'")
	}
}

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("VALIDATION_FAILED", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("VALIDATION_FAILED", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("VALIDATION_FAILED", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("VALIDATION_FAILED", "Invalid email format")
	}
	return nil
}
