package billing

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerSaleSummary is the recomputed view of a customer's position,
// summed over non-cancelled sales
type CustomerSaleSummary struct {
	TotalPurchase decimal.Decimal
	Outstanding   decimal.Decimal
}

// SaleRepository defines the persistence operations for sales
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Sale, error)
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Sale, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*Sale, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Sale, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, sale *Sale) error
	ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error)
	GenerateInvoiceNumber(ctx context.Context) (string, error)
	// SummarizeCustomer sums total and balance over the customer's
	// non-cancelled sales. The read path substitutes this for the stored
	// customer aggregates.
	SummarizeCustomer(ctx context.Context, customerID uuid.UUID) (CustomerSaleSummary, error)
}

// PaymentRepository defines the persistence operations for payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByReceiptNumber(ctx context.Context, receiptNumber string) (*Payment, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*Payment, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Payment, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, payment *Payment) error
	ExistsByReceiptNumber(ctx context.Context, receiptNumber string) (bool, error)
	GenerateReceiptNumber(ctx context.Context) (string, error)
}
