package billing

import (
	"context"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService handles payment recording and allocation. Allocation,
// reversal, and the customer delta always commit together in one
// transaction.
type PaymentService struct {
	paymentRepo    billing.PaymentRepository
	saleRepo       billing.SaleRepository
	customerRepo   partner.CustomerRepository
	ledgerRepo     partner.LedgerEntryRepository
	engine         *billing.AllocationEngine
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	summaryCache   partner.CustomerSummaryCache
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo billing.PaymentRepository,
	saleRepo billing.SaleRepository,
	customerRepo partner.CustomerRepository,
	ledgerRepo partner.LedgerEntryRepository,
	txManager shared.TransactionManager,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		ledgerRepo:   ledgerRepo,
		engine:       billing.NewAllocationEngine(),
		txManager:    txManager,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetSummaryCache sets the customer summary cache to invalidate on mutation
func (s *PaymentService) SetSummaryCache(cache partner.CustomerSummaryCache) {
	s.summaryCache = cache
}

// Create records a payment and applies its allocations in request order.
// Amounts are clamped to each sale's open balance; whatever is not applied
// stays on the payment as the unallocated remainder.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCustomerID, req.CustomerID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	method := billing.PaymentMethod(req.Method)
	requests := ToAllocationRequests(req.Allocations)
	if err := billing.ValidateRequestsWithinAmount(req.Amount, requests); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var payment *billing.Payment
	var customer *partner.Customer

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		customer, err = s.customerRepo.FindByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		receiptNumber, err := s.paymentRepo.GenerateReceiptNumber(ctx)
		if err != nil {
			return err
		}

		payment, err = billing.NewPayment(receiptNumber, customer.ID, customer.Name,
			req.Amount, method, timeOrZero(req.PaymentDate))
		if err != nil {
			return err
		}
		payment.Reference = req.Reference
		payment.Notes = req.Notes

		if len(requests) > 0 {
			sales, err := s.saleRepo.FindByIDs(ctx, billing.SaleIDs(requests))
			if err != nil {
				return err
			}
			delta, err := s.engine.Allocate(payment, sales, requests)
			if err != nil {
				return err
			}
			if err := s.saveSales(ctx, sales); err != nil {
				return err
			}
			if err := s.applyCustomerDelta(ctx, customer, delta,
				partner.LedgerSourcePayment, payment.ID, payment.ReceiptNumber, "payment allocated"); err != nil {
				return err
			}
		}

		return s.paymentRepo.Save(ctx, payment)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommitPayment(ctx, payment, customer)

	response := ToPaymentResponse(payment)
	return &response, nil
}

// Update edits a payment by reversing every recorded allocation, overwriting
// the scalars (omitted fields keep their existing values), and re-running
// allocation against the new list. All of it commits atomically, so an
// identical list nets to zero on the sales and the customer.
func (s *PaymentService) Update(ctx context.Context, paymentID uuid.UUID, req UpdatePaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, paymentID.String())

	// An omitted amount keeps the existing value; a supplied one must be
	// positive, so an explicit zero is rejected rather than ignored.
	if req.Amount != nil && !req.Amount.IsPositive() {
		err := shared.NewDomainError("VALIDATION_FAILED", "Payment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var payment *billing.Payment
	var customer *partner.Customer

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.paymentRepo.FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		customer, err = s.customerRepo.FindByID(ctx, payment.CustomerID)
		if err != nil {
			return err
		}

		// Load the union of sales touched by the old allocations and the
		// new requests before mutating anything.
		requests := ToAllocationRequests(req.Allocations)
		saleIDs := unionIDs(billing.AllocatedSaleIDs(payment), billing.SaleIDs(requests))
		sales := make(map[uuid.UUID]*billing.Sale)
		if len(saleIDs) > 0 {
			sales, err = s.saleRepo.FindByIDs(ctx, saleIDs)
			if err != nil {
				return err
			}
		}

		reverseDelta, err := s.engine.Reverse(payment, sales)
		if err != nil {
			return err
		}

		amount := decimal.Zero
		if req.Amount != nil {
			amount = *req.Amount
		}
		method := billing.PaymentMethod("")
		if req.Method != nil {
			method = billing.PaymentMethod(*req.Method)
		}
		reference := payment.Reference
		if req.Reference != nil {
			reference = *req.Reference
		}
		notes := payment.Notes
		if req.Notes != nil {
			notes = *req.Notes
		}
		if err := payment.UpdateDetails(amount, method, timeOrZero(req.PaymentDate), reference, notes); err != nil {
			return err
		}

		if err := billing.ValidateRequestsWithinAmount(payment.Amount, requests); err != nil {
			return err
		}

		allocDelta := decimal.Zero
		if len(requests) > 0 {
			allocDelta, err = s.engine.Allocate(payment, sales, requests)
			if err != nil {
				return err
			}
		}

		if err := s.saveSales(ctx, sales); err != nil {
			return err
		}
		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return err
		}

		netDelta := reverseDelta.Add(allocDelta)
		return s.applyCustomerDelta(ctx, customer, netDelta,
			partner.LedgerSourcePaymentAdjustment, payment.ID, payment.ReceiptNumber, "payment updated")
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommitPayment(ctx, payment, customer)

	response := ToPaymentResponse(payment)
	return &response, nil
}

// GetByID retrieves a payment by ID
func (s *PaymentService) GetByID(ctx context.Context, paymentID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(payment)
	return &response, nil
}

// GetByReceiptNumber retrieves a payment by its receipt number
func (s *PaymentService) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByReceiptNumber(ctx, receiptNumber)
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(payment)
	return &response, nil
}

// List retrieves payments with filtering and pagination
func (s *PaymentService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[PaymentResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	payments, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.paymentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		responses[i] = ToPaymentResponse(payment)
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListByCustomer retrieves a customer's payments
func (s *PaymentService) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		responses[i] = ToPaymentResponse(payment)
	}
	return responses, nil
}

// saveSales persists every loaded sale. Sales untouched by the engine save
// unchanged; keeping the write set uniform keeps the transaction simple.
func (s *PaymentService) saveSales(ctx context.Context, sales map[uuid.UUID]*billing.Sale) error {
	for _, sale := range sales {
		if err := s.saleRepo.Save(ctx, sale); err != nil {
			return err
		}
	}
	return nil
}

// applyCustomerDelta applies the outstanding delta to the customer, appends
// the ledger entry, and saves the customer
func (s *PaymentService) applyCustomerDelta(ctx context.Context, customer *partner.Customer, outstandingDelta decimal.Decimal, source partner.LedgerSource, sourceID uuid.UUID, sourceNumber, description string) error {
	if outstandingDelta.IsZero() {
		return nil
	}

	outstandingBefore := customer.OutstandingAmount
	customer.ApplyBalanceDelta(outstandingDelta, decimal.Zero)
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return err
	}

	entry, err := partner.NewLedgerEntry(customer.ID, source, sourceID, sourceNumber,
		outstandingDelta, outstandingBefore, description)
	if err != nil {
		return err
	}
	return s.ledgerRepo.Append(ctx, entry)
}

// afterCommitPayment publishes collected domain events and invalidates the
// customer's cached summary
func (s *PaymentService) afterCommitPayment(ctx context.Context, payment *billing.Payment, customer *partner.Customer) {
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, payment.GetDomainEvents()...)
		payment.ClearDomainEvents()
		_ = s.eventPublisher.Publish(ctx, customer.GetDomainEvents()...)
		customer.ClearDomainEvents()
	}
	if s.summaryCache != nil {
		_ = s.summaryCache.Invalidate(ctx, payment.CustomerID)
	}
}

// unionIDs merges two ID lists preserving order and dropping duplicates
func unionIDs(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(a)+len(b))
	out := make([]uuid.UUID, 0, len(a)+len(b))
	for _, list := range [][]uuid.UUID{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
