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

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var payment billing.Payment
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %s", shared.ErrNotFound, id)
		}
		return nil, err
	}
	return &payment, nil
}

// FindByReceiptNumber finds a payment by its receipt number
func (r *GormPaymentRepository) FindByReceiptNumber(ctx context.Context, receiptNumber string) (*billing.Payment, error) {
	var payment billing.Payment
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("receipt_number = ?", receiptNumber).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %s", shared.ErrNotFound, receiptNumber)
		}
		return nil, err
	}
	return &payment, nil
}

// FindByCustomer finds payments for a customer with filtering
func (r *GormPaymentRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*billing.Payment, error) {
	var payments []*billing.Payment
	query := r.applyFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Payment{}).
			Where("customer_id = ?", customerID),
		filter,
	)

	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindAll finds all payments with filtering
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Payment, error) {
	var payments []*billing.Payment
	query := r.applyFilter(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Payment{}),
		filter,
	)

	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Count counts payments matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		dbFromContext(ctx, r.db).WithContext(ctx).Model(&billing.Payment{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payment. A concurrent insert of the same receipt
// number hits the unique index and comes back as CONFLICT.
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Save(payment).Error; err != nil {
		return conflictOnDuplicate(err, "receipt number "+payment.ReceiptNumber)
	}
	return nil
}

// ExistsByReceiptNumber checks if a receipt number is already taken
func (r *GormPaymentRepository) ExistsByReceiptNumber(ctx context.Context, receiptNumber string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Payment{}).
		Where("receipt_number = ?", receiptNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateReceiptNumber generates a unique receipt number
// Format: RCP-YYYY-NNNNN (e.g., RCP-2026-00001)
func (r *GormPaymentRepository) GenerateReceiptNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("RCP-%d-", year)

	var lastPayment billing.Payment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Payment{}).
		Where("receipt_number LIKE ?", prefix+"%").
		Order("receipt_number DESC").
		First(&lastPayment).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastPayment.ReceiptNumber != "" {
		parts := strings.Split(lastPayment.ReceiptNumber, "-")
		if len(parts) == 3 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[2], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	receiptNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.ExistsByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			receiptNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.ExistsByReceiptNumber(ctx, receiptNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return receiptNumber, nil
}

// applyFilter applies filter options to the query
func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPaymentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("receipt_number ILIKE ? OR customer_name ILIKE ? OR reference ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "method":
			query = query.Where("method = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("payment_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("payment_date <= ?", t)
			}
		case "min_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("amount >= ?", d)
			}
		case "max_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("amount <= ?", d)
			}
		}
	}

	return query
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
