package persistence

import (
	"context"

	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM.
// Ledger entries are append-only; there is no update or delete path.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append persists a new ledger entry
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entry *partner.LedgerEntry) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(entry).Error
}

// FindByCustomer finds ledger entries for a customer, newest first
func (r *GormLedgerEntryRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*partner.LedgerEntry, error) {
	var entries []*partner.LedgerEntry
	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&partner.LedgerEntry{}).
		Where("customer_id = ?", customerID)

	if source, ok := filter.Filters["source"]; ok {
		query = query.Where("source = ?", source)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, LedgerEntrySortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	if err := query.Order(orderBy + " " + orderDir).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByCustomer counts ledger entries for a customer
func (r *GormLedgerEntryRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&partner.LedgerEntry{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ partner.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
