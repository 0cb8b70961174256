package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerSummary holds the recomputed financial position of a customer,
// summed at read time over non-cancelled sales
type CustomerSummary struct {
	CustomerID    uuid.UUID       `json:"customer_id"`
	TotalPurchase decimal.Decimal `json:"total_purchase"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

// CustomerSummaryCache caches recomputed customer summaries. Entries are
// invalidated on every sale or payment mutation touching the customer, so a
// hit is always as fresh as the last mutation.
type CustomerSummaryCache interface {
	Get(ctx context.Context, customerID uuid.UUID) (*CustomerSummary, error)
	Set(ctx context.Context, summary CustomerSummary) error
	Invalidate(ctx context.Context, customerID uuid.UUID) error
}
