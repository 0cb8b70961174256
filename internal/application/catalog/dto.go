package catalog

import (
	"time"

	"github.com/billing/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Code          string           `json:"code" binding:"required,min=1,max=50"`
	Name          string           `json:"name" binding:"required,min=1,max=200"`
	Description   string           `json:"description"`
	Unit          string           `json:"unit" binding:"required,min=1,max=20"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	InitialStock  *decimal.Decimal `json:"initial_stock"`
	MinStock      *decimal.Decimal `json:"min_stock"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	MinStock      *decimal.Decimal `json:"min_stock"`
}

// AdjustStockRequest represents a manual stock adjustment
type AdjustStockRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Unit          string          `json:"unit"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	MinStock      decimal.Decimal `json:"min_stock"`
	BelowMinStock bool            `json:"below_min_stock"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToProductResponse converts a Product aggregate to a response DTO
func ToProductResponse(product *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:            product.ID,
		Code:          product.Code,
		Name:          product.Name,
		Description:   product.Description,
		Unit:          product.Unit,
		SellingPrice:  product.SellingPrice,
		PurchasePrice: product.PurchasePrice,
		StockQuantity: product.StockQuantity,
		MinStock:      product.MinStock,
		BelowMinStock: product.IsBelowMinStock(),
		Status:        string(product.Status),
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}
