package partner

import (
	"github.com/billing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeCustomerCreated        = "partner.customer.created"
	EventTypeCustomerUpdated        = "partner.customer.updated"
	EventTypeCustomerBalanceChanged = "partner.customer.balance_changed"
)

// CustomerCreatedEvent is published when a customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Code string       `json:"code"`
	Name string       `json:"name"`
	Type CustomerType `json:"customer_type"`
}

// NewCustomerCreatedEvent creates a new customer created event
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, "Customer", c.ID),
		Code:            c.Code,
		Name:            c.Name,
		Type:            c.Type,
	}
}

// CustomerUpdatedEvent is published when a customer's profile changes
type CustomerUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewCustomerUpdatedEvent creates a new customer updated event
func NewCustomerUpdatedEvent(c *Customer) *CustomerUpdatedEvent {
	return &CustomerUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerUpdated, "Customer", c.ID),
		Name:            c.Name,
	}
}

// CustomerBalanceChangedEvent is published when the outstanding amount moves
type CustomerBalanceChangedEvent struct {
	shared.BaseDomainEvent
	OutstandingBefore decimal.Decimal `json:"outstanding_before"`
	OutstandingAfter  decimal.Decimal `json:"outstanding_after"`
}

// NewCustomerBalanceChangedEvent creates a new balance changed event
func NewCustomerBalanceChangedEvent(c *Customer, before, after decimal.Decimal) *CustomerBalanceChangedEvent {
	return &CustomerBalanceChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeCustomerBalanceChanged, "Customer", c.ID),
		OutstandingBefore: before,
		OutstandingAfter:  after,
	}
}
