package catalog

import (
	"github.com/billing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the catalog context
const (
	EventTypeProductCreated      = "catalog.product.created"
	EventTypeProductStockChanged = "catalog.product.stock_changed"
)

// ProductCreatedEvent is raised when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, "Product", p.ID),
		Code:            p.Code,
		Name:            p.Name,
	}
}

// ProductStockChangedEvent is raised when stock is decremented or restored
type ProductStockChangedEvent struct {
	shared.BaseDomainEvent
	Code     string          `json:"code"`
	Delta    decimal.Decimal `json:"delta"`
	NewStock decimal.Decimal `json:"new_stock"`
}

// NewProductStockChangedEvent creates a new ProductStockChangedEvent
func NewProductStockChangedEvent(p *Product, delta decimal.Decimal) *ProductStockChangedEvent {
	return &ProductStockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStockChanged, "Product", p.ID),
		Code:            p.Code,
		Delta:           delta,
		NewStock:        p.StockQuantity,
	}
}
