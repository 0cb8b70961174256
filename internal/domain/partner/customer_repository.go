package partner

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerRepository defines the persistence operations for customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByCode(ctx context.Context, code string) (*Customer, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Customer, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, customer *Customer) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// LedgerEntryRepository persists the append-only outstanding-amount ledger
type LedgerEntryRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*LedgerEntry, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}
