package partner

import (
	"time"

	"github.com/billing/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Code        string           `json:"code" binding:"required,min=1,max=50"`
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	Type        string           `json:"type" binding:"required,oneof=individual organization"`
	ContactName string           `json:"contact_name" binding:"max=100"`
	Phone       string           `json:"phone" binding:"max=50"`
	Email       string           `json:"email" binding:"max=200"`
	Address     string           `json:"address" binding:"max=500"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
	Notes       string           `json:"notes"`
}

// UpdateCustomerRequest represents a request to update a customer
type UpdateCustomerRequest struct {
	Name        *string          `json:"name"`
	ContactName *string          `json:"contact_name"`
	Phone       *string          `json:"phone"`
	Email       *string          `json:"email"`
	Address     *string          `json:"address"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
	Notes       *string          `json:"notes"`
}

// CustomerResponse represents a customer in API responses.
// OutstandingAmount and TotalPurchase carry the recomputed values when the
// read path could derive them from the sales; CreditStatus is derived from
// the same values.
type CustomerResponse struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Status            string          `json:"status"`
	ContactName       string          `json:"contact_name,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Email             string          `json:"email,omitempty"`
	Address           string          `json:"address,omitempty"`
	CreditLimit       decimal.Decimal `json:"credit_limit"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	TotalPurchase     decimal.Decimal `json:"total_purchase"`
	CreditStatus      string          `json:"credit_status"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToCustomerResponse converts a Customer aggregate to a response DTO using
// its stored aggregates
func ToCustomerResponse(customer *partner.Customer) CustomerResponse {
	return toCustomerResponse(customer, customer.OutstandingAmount, customer.TotalPurchase)
}

// ToCustomerResponseWithSummary converts a Customer substituting recomputed
// outstanding and total purchase values
func ToCustomerResponseWithSummary(customer *partner.Customer, outstanding, totalPurchase decimal.Decimal) CustomerResponse {
	return toCustomerResponse(customer, outstanding, totalPurchase)
}

func toCustomerResponse(customer *partner.Customer, outstanding, totalPurchase decimal.Decimal) CustomerResponse {
	return CustomerResponse{
		ID:                customer.ID,
		Code:              customer.Code,
		Name:              customer.Name,
		Type:              string(customer.Type),
		Status:            string(customer.Status),
		ContactName:       customer.ContactName,
		Phone:             customer.Phone,
		Email:             customer.Email,
		Address:           customer.Address,
		CreditLimit:       customer.CreditLimit,
		OutstandingAmount: outstanding,
		TotalPurchase:     totalPurchase,
		CreditStatus:      string(partner.CreditStatusFor(outstanding, customer.CreditLimit)),
		Notes:             customer.Notes,
		CreatedAt:         customer.CreatedAt,
		UpdatedAt:         customer.UpdatedAt,
	}
}

// LedgerEntryResponse represents one outstanding-amount movement
type LedgerEntryResponse struct {
	ID                uuid.UUID       `json:"id"`
	Source            string          `json:"source"`
	SourceID          uuid.UUID       `json:"source_id"`
	SourceNumber      string          `json:"source_number"`
	OutstandingDelta  decimal.Decimal `json:"outstanding_delta"`
	OutstandingBefore decimal.Decimal `json:"outstanding_before"`
	OutstandingAfter  decimal.Decimal `json:"outstanding_after"`
	Description       string          `json:"description,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToLedgerEntryResponse converts a LedgerEntry to a response DTO
func ToLedgerEntryResponse(entry *partner.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                entry.ID,
		Source:            string(entry.Source),
		SourceID:          entry.SourceID,
		SourceNumber:      entry.SourceNumber,
		OutstandingDelta:  entry.OutstandingDelta,
		OutstandingBefore: entry.OutstandingBefore,
		OutstandingAfter:  entry.OutstandingAfter,
		Description:       entry.Description,
		CreatedAt:         entry.CreatedAt,
	}
}
