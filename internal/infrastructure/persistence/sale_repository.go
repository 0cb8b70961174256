package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Sale, error) {
	var sale billing.Sale
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Items").
		First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sale %s", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &sale, nil
}

// FindByIDs loads the given sales keyed by ID. Missing IDs are simply absent
// from the result map.
func (r *GormSaleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*billing.Sale, error) {
	result := make(map[uuid.UUID]*billing.Sale, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var sales []*billing.Sale
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Items").
		Where("id IN ?", ids).
		Find(&sales).Error; err != nil {
		return nil, err
	}
	for _, sale := range sales {
		result[sale.ID] = sale
	}
	return result, nil
}

// FindByInvoiceNumber finds a sale by its invoice number
func (r *GormSaleRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*billing.Sale, error) {
	var sale billing.Sale
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Items").
		Where("invoice_number = ?", invoiceNumber).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sale %s", shared.ErrNotFound, invoiceNumber)
		}
		return nil, err
	}
	return &sale, nil
}

// FindByCustomer finds sales for a customer with filtering
func (r *GormSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*billing.Sale, error) {
	var sales []*billing.Sale
	query := r.applyFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Sale{}).
			Preload("Items").
			Where("customer_id = ?", customerID),
		filter,
	)

	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// FindAll finds all sales with filtering
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Sale, error) {
	var sales []*billing.Sale
	query := r.applyFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Sale{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Sale{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a sale together with its line items. A concurrent
// insert of the same invoice number hits the unique index and comes back as
// CONFLICT.
func (r *GormSaleRepository) Save(ctx context.Context, sale *billing.Sale) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(sale).Error; err != nil {
			return conflictOnDuplicate(err, "invoice number "+sale.InvoiceNumber)
		}

		if sale.ID == uuid.Nil {
			return nil
		}

		// Replace the item set: drop rows no longer present, save the rest
		currentItemIDs := make([]uuid.UUID, len(sale.Items))
		for i, item := range sale.Items {
			currentItemIDs[i] = item.ID
		}

		if len(currentItemIDs) > 0 {
			if err := tx.Where("sale_id = ? AND id NOT IN ?", sale.ID, currentItemIDs).
				Delete(&billing.SaleItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("sale_id = ?", sale.ID).
				Delete(&billing.SaleItem{}).Error; err != nil {
				return err
			}
		}

		for i := range sale.Items {
			sale.Items[i].SaleID = sale.ID
			if err := tx.Save(&sale.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// ExistsByInvoiceNumber checks if an invoice number is already taken
func (r *GormSaleRepository) ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Sale{}).
		Where("invoice_number = ?", invoiceNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateInvoiceNumber generates a unique invoice number
// Format: INV-YYYY-NNNNN (e.g., INV-2026-00001)
func (r *GormSaleRepository) GenerateInvoiceNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("INV-%d-", year)

	// Get the highest invoice number for this year
	var lastSale billing.Sale
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Sale{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		First(&lastSale).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastSale.InvoiceNumber != "" {
		parts := strings.Split(lastSale.InvoiceNumber, "-")
		if len(parts) == 3 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[2], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	invoiceNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.ExistsByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			invoiceNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.ExistsByInvoiceNumber(ctx, invoiceNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return invoiceNumber, nil
}

// SummarizeCustomer sums total and outstanding balance over the customer's
// non-cancelled sales
func (r *GormSaleRepository) SummarizeCustomer(ctx context.Context, customerID uuid.UUID) (billing.CustomerSaleSummary, error) {
	var row struct {
		TotalPurchase decimal.Decimal
		Outstanding   decimal.Decimal
	}
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Sale{}).
		Select("COALESCE(SUM(total_amount), 0) AS total_purchase, COALESCE(SUM(balance), 0) AS outstanding").
		Where("customer_id = ? AND status <> ?", customerID, billing.SaleStatusCancelled).
		Scan(&row).Error
	if err != nil {
		return billing.CustomerSaleSummary{}, err
	}
	return billing.CustomerSaleSummary{
		TotalPurchase: row.TotalPurchase,
		Outstanding:   row.Outstanding,
	}, nil
}

// applyFilter applies filter options to the query
func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, SaleSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSaleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR customer_name ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("sale_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("sale_date <= ?", t)
			}
		case "min_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("total_amount >= ?", d)
			}
		case "max_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("total_amount <= ?", d)
			}
		}
	}

	return query
}

// Ensure GormSaleRepository implements SaleRepository
var _ billing.SaleRepository = (*GormSaleRepository)(nil)
