package partner

import (
	"context"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// CustomerService handles customer business operations. Reads recompute the
// financial aggregates from the sales and substitute them into the response;
// the stored values stay untouched and serve as a cross-check.
type CustomerService struct {
	customerRepo partner.CustomerRepository
	saleRepo     billing.SaleRepository
	ledgerRepo   partner.LedgerEntryRepository
	summaryCache partner.CustomerSummaryCache
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo partner.CustomerRepository,
	saleRepo billing.SaleRepository,
	ledgerRepo partner.LedgerEntryRepository,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		saleRepo:     saleRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// SetSummaryCache sets the cache for recomputed customer summaries
func (s *CustomerService) SetSummaryCache(cache partner.CustomerSummaryCache) {
	s.summaryCache = cache
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "create")
	defer span.End()

	exists, err := s.customerRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer code is already in use")
	}

	customer, err := partner.NewCustomer(req.Code, req.Name, partner.CustomerType(req.Type))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.ContactName != "" || req.Phone != "" || req.Email != "" {
		if err := customer.SetContact(req.ContactName, req.Phone, req.Email); err != nil {
			return nil, err
		}
	}
	if req.Address != "" {
		if err := customer.SetAddress(req.Address); err != nil {
			return nil, err
		}
	}
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		customer.SetNotes(req.Notes)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	response := ToCustomerResponse(customer)
	return &response, nil
}

// Update updates a customer's profile
func (s *CustomerService) Update(ctx context.Context, customerID uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrCustomerID, customerID.String())

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := customer.Update(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.ContactName != nil || req.Phone != nil || req.Email != nil {
		contactName := customer.ContactName
		phone := customer.Phone
		email := customer.Email
		if req.ContactName != nil {
			contactName = *req.ContactName
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.Email != nil {
			email = *req.Email
		}
		if err := customer.SetContact(contactName, phone, email); err != nil {
			return nil, err
		}
	}
	if req.Address != nil {
		if err := customer.SetAddress(*req.Address); err != nil {
			return nil, err
		}
	}
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		customer.SetNotes(*req.Notes)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	response := s.respondWithSummary(ctx, customer)
	return &response, nil
}

// GetByID retrieves a customer with recomputed financial aggregates
func (s *CustomerService) GetByID(ctx context.Context, customerID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	response := s.respondWithSummary(ctx, customer)
	return &response, nil
}

// GetByCode retrieves a customer by code
func (s *CustomerService) GetByCode(ctx context.Context, code string) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	response := s.respondWithSummary(ctx, customer)
	return &response, nil
}

// List retrieves customers with pagination, each with recomputed aggregates
func (s *CustomerService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[CustomerResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	customers, err := s.customerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.customerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]CustomerResponse, len(customers))
	for i, customer := range customers {
		responses[i] = s.respondWithSummary(ctx, customer)
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Activate activates a customer
func (s *CustomerService) Activate(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if err := customer.Activate(); err != nil {
		return err
	}
	return s.customerRepo.Save(ctx, customer)
}

// Deactivate deactivates a customer
func (s *CustomerService) Deactivate(ctx context.Context, customerID uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if err := customer.Deactivate(); err != nil {
		return err
	}
	return s.customerRepo.Save(ctx, customer)
}

// ListLedger retrieves the customer's outstanding-amount ledger
func (s *CustomerService) ListLedger(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[LedgerEntryResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	entries, err := s.ledgerRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.ledgerRepo.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	responses := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = ToLedgerEntryResponse(entry)
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetSummary returns the recomputed financial position of a customer,
// consulting the cache first
func (s *CustomerService) GetSummary(ctx context.Context, customerID uuid.UUID) (*partner.CustomerSummary, error) {
	if s.summaryCache != nil {
		if summary, err := s.summaryCache.Get(ctx, customerID); err == nil && summary != nil {
			return summary, nil
		}
	}

	saleSummary, err := s.saleRepo.SummarizeCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	summary := partner.CustomerSummary{
		CustomerID:    customerID,
		TotalPurchase: saleSummary.TotalPurchase,
		Outstanding:   saleSummary.Outstanding,
	}
	if s.summaryCache != nil {
		_ = s.summaryCache.Set(ctx, summary)
	}
	return &summary, nil
}

// respondWithSummary builds a response substituting the recomputed
// aggregates. When the recompute fails the stored values are used as-is
// rather than failing the read.
func (s *CustomerService) respondWithSummary(ctx context.Context, customer *partner.Customer) CustomerResponse {
	summary, err := s.GetSummary(ctx, customer.ID)
	if err != nil {
		return ToCustomerResponse(customer)
	}
	return ToCustomerResponseWithSummary(customer, summary.Outstanding, summary.TotalPurchase)
}
