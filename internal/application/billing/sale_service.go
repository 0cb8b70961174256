package billing

import (
	"context"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleService handles sale business operations. Every mutation runs inside a
// single transaction covering the sale, the touched products, the customer
// aggregates, and the ledger entry, so no partial reconciliation state is
// ever visible.
type SaleService struct {
	saleRepo       billing.SaleRepository
	customerRepo   partner.CustomerRepository
	productRepo    catalog.ProductRepository
	ledgerRepo     partner.LedgerEntryRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	summaryCache   partner.CustomerSummaryCache
}

// NewSaleService creates a new SaleService
func NewSaleService(
	saleRepo billing.SaleRepository,
	customerRepo partner.CustomerRepository,
	productRepo catalog.ProductRepository,
	ledgerRepo partner.LedgerEntryRepository,
	txManager shared.TransactionManager,
) *SaleService {
	return &SaleService{
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		ledgerRepo:   ledgerRepo,
		txManager:    txManager,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetSummaryCache sets the customer summary cache to invalidate on mutation
func (s *SaleService) SetSummaryCache(cache partner.CustomerSummaryCache) {
	s.summaryCache = cache
}

// Create creates a sale: validates the customer and products, decrements
// stock, assigns an invoice number, and applies the customer delta, all in
// one transaction.
func (s *SaleService) Create(ctx context.Context, req CreateSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, req.CustomerID.String())

	var sale *billing.Sale
	var customer *partner.Customer

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		customer, err = s.customerRepo.FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		invoiceNumber, err := s.saleRepo.GenerateInvoiceNumber(ctx)
		if err != nil {
			return err
		}

		saleDate := timeOrZero(req.SaleDate)
		sale, err = billing.NewSale(invoiceNumber, customer.ID, customer.Name, saleDate)
		if err != nil {
			return err
		}

		items, err := s.buildItems(ctx, req.Items)
		if err != nil {
			return err
		}
		if err := sale.ReplaceItems(items); err != nil {
			return err
		}

		discount := decimalOrZero(req.Discount)
		tax := decimalOrZero(req.Tax)
		if !discount.IsZero() || !tax.IsZero() {
			if err := sale.SetDiscountAndTax(discount, tax); err != nil {
				return err
			}
		}
		if req.Notes != "" {
			sale.SetNotes(req.Notes)
		}
		if req.InitialPaid != nil && req.InitialPaid.IsPositive() {
			if err := sale.ApplyReceipt(*req.InitialPaid); err != nil {
				return err
			}
		}

		if err := s.saleRepo.Save(ctx, sale); err != nil {
			return err
		}

		return s.applyCustomerDelta(ctx, customer, sale.Balance, sale.TotalAmount,
			partner.LedgerSourceSale, sale.ID, sale.InvoiceNumber, "sale created")
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, sale.CustomerID, sale, customer)

	response := ToSaleResponse(sale)
	return &response, nil
}

// Update replaces the sale's items and scalars, adjusts stock for the item
// diff, and applies the customer delta computed against the pre-update
// snapshot.
func (s *SaleService) Update(ctx context.Context, saleID uuid.UUID, req UpdateSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSaleID, saleID.String())

	var sale *billing.Sale
	var customer *partner.Customer

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.saleRepo.FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return shared.NewDomainError("INVALID_STATE", "Cannot update a cancelled sale")
		}

		customer, err = s.customerRepo.FindByID(ctx, sale.CustomerID)
		if err != nil {
			return err
		}

		oldTotal := sale.TotalAmount
		oldBalance := sale.Balance

		if len(req.Items) > 0 {
			if err := s.restoreStock(ctx, sale.Items); err != nil {
				return err
			}
			items, err := s.buildItems(ctx, req.Items)
			if err != nil {
				return err
			}
			if err := sale.ReplaceItems(items); err != nil {
				return err
			}
		}

		discount := sale.DiscountAmount
		tax := sale.TaxAmount
		if req.Discount != nil {
			discount = *req.Discount
		}
		if req.Tax != nil {
			tax = *req.Tax
		}
		if err := sale.SetDiscountAndTax(discount, tax); err != nil {
			return err
		}
		if req.Notes != nil {
			sale.SetNotes(*req.Notes)
		}

		if err := s.saleRepo.Save(ctx, sale); err != nil {
			return err
		}

		totalDiff := sale.TotalAmount.Sub(oldTotal)
		balanceDiff := sale.Balance.Sub(oldBalance)
		return s.applyCustomerDelta(ctx, customer, balanceDiff, totalDiff,
			partner.LedgerSourceSaleAdjustment, sale.ID, sale.InvoiceNumber, "sale updated")
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, sale.CustomerID, sale, customer)

	response := ToSaleResponse(sale)
	return &response, nil
}

// Cancel cancels a sale, restores the stock of its items, and reverses the
// sale's contribution to the customer aggregates at their current values.
func (s *SaleService) Cancel(ctx context.Context, saleID uuid.UUID, reason string) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "cancel")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSaleID, saleID.String())

	var sale *billing.Sale
	var customer *partner.Customer

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		sale, err = s.saleRepo.FindByID(ctx, saleID)
		if err != nil {
			return err
		}

		customer, err = s.customerRepo.FindByID(ctx, sale.CustomerID)
		if err != nil {
			return err
		}

		// Capture current values before cancellation; the reversal uses
		// them, not the values at creation time.
		balanceAtCancel := sale.Balance
		totalAtCancel := sale.TotalAmount

		if err := sale.Cancel(reason); err != nil {
			return err
		}
		if err := s.restoreStock(ctx, sale.Items); err != nil {
			return err
		}
		if err := s.saleRepo.Save(ctx, sale); err != nil {
			return err
		}

		return s.applyCustomerDelta(ctx, customer, balanceAtCancel.Neg(), totalAtCancel.Neg(),
			partner.LedgerSourceSaleCancellation, sale.ID, sale.InvoiceNumber, "sale cancelled")
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, sale.CustomerID, sale, customer)

	response := ToSaleResponse(sale)
	return &response, nil
}

// GetByID retrieves a sale by ID
func (s *SaleService) GetByID(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// GetByInvoiceNumber retrieves a sale by its invoice number
func (s *SaleService) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// List retrieves sales with filtering and pagination
func (s *SaleService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[SaleResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	sales, err := s.saleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.saleRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]SaleResponse, len(sales))
	for i, sale := range sales {
		responses[i] = ToSaleResponse(sale)
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListByCustomer retrieves a customer's sales
func (s *SaleService) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]SaleResponse, error) {
	sales, err := s.saleRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]SaleResponse, len(sales))
	for i, sale := range sales {
		responses[i] = ToSaleResponse(sale)
	}
	return responses, nil
}

// buildItems validates product references, applies default prices, and
// decrements stock for each requested line
func (s *SaleService) buildItems(ctx context.Context, inputs []SaleItemInput) ([]billing.SaleItem, error) {
	items := make([]billing.SaleItem, 0, len(inputs))
	for _, input := range inputs {
		product, err := s.productRepo.FindByID(ctx, input.ProductID)
		if err != nil {
			return nil, err
		}

		unitPrice := product.SellingPrice
		if input.UnitPrice != nil {
			unitPrice = *input.UnitPrice
		}

		item, err := billing.NewSaleItem(uuid.Nil, product.ID, product.Name, product.Code,
			product.Unit, input.Quantity, unitPrice, decimalOrZero(input.Discount))
		if err != nil {
			return nil, err
		}

		if err := product.DecreaseStock(input.Quantity); err != nil {
			return nil, err
		}
		if err := s.productRepo.Save(ctx, product); err != nil {
			return nil, err
		}

		items = append(items, *item)
	}
	return items, nil
}

// restoreStock returns the quantities of the given items to their products
func (s *SaleService) restoreStock(ctx context.Context, items []billing.SaleItem) error {
	for i := range items {
		product, err := s.productRepo.FindByID(ctx, items[i].ProductID)
		if err != nil {
			return err
		}
		if err := product.IncreaseStock(items[i].Quantity); err != nil {
			return err
		}
		if err := s.productRepo.Save(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

// applyCustomerDelta applies the signed aggregates to the customer, appends
// the ledger entry, and saves the customer
func (s *SaleService) applyCustomerDelta(ctx context.Context, customer *partner.Customer, outstandingDelta, purchaseDelta decimal.Decimal, source partner.LedgerSource, sourceID uuid.UUID, sourceNumber, description string) error {
	if outstandingDelta.IsZero() && purchaseDelta.IsZero() {
		return nil
	}

	outstandingBefore := customer.OutstandingAmount
	customer.ApplyBalanceDelta(outstandingDelta, purchaseDelta)
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return err
	}

	if outstandingDelta.IsZero() {
		return nil
	}
	entry, err := partner.NewLedgerEntry(customer.ID, source, sourceID, sourceNumber,
		outstandingDelta, outstandingBefore, description)
	if err != nil {
		return err
	}
	return s.ledgerRepo.Append(ctx, entry)
}

// afterCommit publishes collected domain events and invalidates the
// customer's cached summary. Both are best-effort.
func (s *SaleService) afterCommit(ctx context.Context, customerID uuid.UUID, aggregates ...shared.AggregateRoot) {
	if s.eventPublisher != nil {
		for _, agg := range aggregates {
			if agg == nil {
				continue
			}
			_ = s.eventPublisher.Publish(ctx, agg.GetDomainEvents()...)
			agg.ClearDomainEvents()
		}
	}
	if s.summaryCache != nil {
		_ = s.summaryCache.Invalidate(ctx, customerID)
	}
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
