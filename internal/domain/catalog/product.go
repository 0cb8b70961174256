package catalog

import (
	"strings"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product represents a sellable product and its on-hand stock.
// Stock moves only through sale creation (decrement) and cancellation (restore).
type Product struct {
	shared.BaseAggregateRoot
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Description   string          `gorm:"type:text"`
	Unit          string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with required fields
func NewProduct(code, name, unit string) (*Product, error) {
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if unit == "" {
		unit = "pcs"
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Unit:              unit,
		SellingPrice:      decimal.Zero,
		PurchasePrice:     decimal.Zero,
		StockQuantity:     decimal.Zero,
		MinStock:          decimal.Zero,
		Status:            ProductStatusActive,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.Touch()
	p.IncrementVersion()

	return nil
}

// SetPrices sets purchase and selling prices
func (p *Product) SetPrices(purchasePrice, sellingPrice valueobject.Money) error {
	if purchasePrice.IsNegative() || sellingPrice.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Prices cannot be negative")
	}

	p.PurchasePrice = purchasePrice.Amount()
	p.SellingPrice = sellingPrice.Amount()
	p.Touch()
	p.IncrementVersion()

	return nil
}

// SetMinStock sets the minimum stock level for alerts
func (p *Product) SetMinStock(minStock decimal.Decimal) error {
	if minStock.IsNegative() {
		return shared.NewDomainError("VALIDATION_FAILED", "Minimum stock cannot be negative")
	}

	p.MinStock = minStock
	p.Touch()
	p.IncrementVersion()

	return nil
}

// HasSufficientStock reports whether the requested quantity is available
func (p *Product) HasSufficientStock(quantity decimal.Decimal) bool {
	return p.StockQuantity.GreaterThanOrEqual(quantity)
}

// DecreaseStock removes quantity from stock, failing on shortfall
func (p *Product) DecreaseStock(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Quantity must be positive")
	}
	if !p.HasSufficientStock(quantity) {
		return shared.ErrInsufficientStock
	}

	p.StockQuantity = p.StockQuantity.Sub(quantity)
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, quantity.Neg()))

	return nil
}

// IncreaseStock adds quantity back to stock (receipt or sale cancellation)
func (p *Product) IncreaseStock(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION_FAILED", "Quantity must be positive")
	}

	p.StockQuantity = p.StockQuantity.Add(quantity)
	p.Touch()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, quantity))

	return nil
}

// IsBelowMinStock reports whether stock has fallen under the alert threshold
func (p *Product) IsBelowMinStock() bool {
	return p.MinStock.IsPositive() && p.StockQuantity.LessThan(p.MinStock)
}

// Activate activates the product
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Product is already active")
	}

	p.Status = ProductStatusActive
	p.Touch()
	p.IncrementVersion()

	return nil
}

// Deactivate deactivates the product
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Product is already inactive")
	}

	p.Status = ProductStatusInactive
	p.Touch()
	p.IncrementVersion()

	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// GetSellingPriceMoney returns the selling price as Money
func (p *Product) GetSellingPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.SellingPrice)
}

// GetPurchasePriceMoney returns the purchase price as Money
func (p *Product) GetPurchasePriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.PurchasePrice)
}

func validateProductCode(code string) error {
	if code == "" {
		return shared.NewDomainError("VALIDATION_FAILED", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("VALIDATION_FAILED", "Product code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("VALIDATION_FAILED", "Product code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("VALIDATION_FAILED", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_FAILED", "Product name cannot exceed 200 characters")
	}
	return nil
}
