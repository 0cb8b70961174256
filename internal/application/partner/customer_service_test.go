package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*partner.Customer, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MockSaleRepository mocks only what the customer read path needs; the
// remaining billing.SaleRepository methods are stubs.
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*billing.Sale, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*billing.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*billing.Sale, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*billing.Sale, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*billing.Sale, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Sale), args.Error(1)
}

func (m *MockSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *billing.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockSaleRepository) GenerateInvoiceNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSaleRepository) SummarizeCustomer(ctx context.Context, customerID uuid.UUID) (billing.CustomerSaleSummary, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(billing.CustomerSaleSummary), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of partner.LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Append(ctx context.Context, entry *partner.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*partner.LedgerEntry, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*partner.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSummaryCache is a mock implementation of partner.CustomerSummaryCache
type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Get(ctx context.Context, customerID uuid.UUID) (*partner.CustomerSummary, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CustomerSummary), args.Error(1)
}

func (m *MockSummaryCache) Set(ctx context.Context, summary partner.CustomerSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockSummaryCache) Invalidate(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func newCustomerServiceForTest() (*CustomerService, *MockCustomerRepository, *MockSaleRepository, *MockLedgerEntryRepository) {
	customerRepo := new(MockCustomerRepository)
	saleRepo := new(MockSaleRepository)
	ledgerRepo := new(MockLedgerEntryRepository)
	service := NewCustomerService(customerRepo, saleRepo, ledgerRepo)
	return service, customerRepo, saleRepo, ledgerRepo
}

func newTestCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	customer, err := partner.NewCustomer("CUST-001", "Acme Retail", partner.CustomerTypeOrganization)
	require.NoError(t, err)
	return customer
}

func TestCustomerService_Create(t *testing.T) {
	service, customerRepo, _, _ := newCustomerServiceForTest()
	ctx := context.Background()

	customerRepo.On("ExistsByCode", mock.Anything, "CUST-001").Return(false, nil)
	customerRepo.On("Save", mock.Anything, mock.AnythingOfType("*partner.Customer")).Return(nil)

	creditLimit := decimal.NewFromInt(5000)
	resp, err := service.Create(ctx, CreateCustomerRequest{
		Code:        "CUST-001",
		Name:        "Acme Retail",
		Type:        "organization",
		Phone:       "555-0100",
		CreditLimit: &creditLimit,
	})

	require.NoError(t, err)
	assert.Equal(t, "CUST-001", resp.Code)
	assert.Equal(t, "organization", resp.Type)
	assert.True(t, resp.CreditLimit.Equal(creditLimit))
	assert.Equal(t, string(partner.CreditStatusClear), resp.CreditStatus)
	customerRepo.AssertExpectations(t)
}

func TestCustomerService_Create_DuplicateCode(t *testing.T) {
	service, customerRepo, _, _ := newCustomerServiceForTest()
	ctx := context.Background()

	customerRepo.On("ExistsByCode", mock.Anything, "CUST-001").Return(true, nil)

	_, err := service.Create(ctx, CreateCustomerRequest{
		Code: "CUST-001",
		Name: "Acme Retail",
		Type: "organization",
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_GetByID_SubstitutesRecomputedAggregates(t *testing.T) {
	service, customerRepo, saleRepo, _ := newCustomerServiceForTest()
	ctx := context.Background()

	customer := newTestCustomer(t)
	// Stored aggregates deliberately stale
	customer.OutstandingAmount = decimal.NewFromInt(999)
	customer.TotalPurchase = decimal.NewFromInt(9999)

	customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	saleRepo.On("SummarizeCustomer", mock.Anything, customer.ID).Return(billing.CustomerSaleSummary{
		TotalPurchase: decimal.NewFromInt(1500),
		Outstanding:   decimal.NewFromInt(400),
	}, nil)

	resp, err := service.GetByID(ctx, customer.ID)

	require.NoError(t, err)
	assert.True(t, resp.OutstandingAmount.Equal(decimal.NewFromInt(400)))
	assert.True(t, resp.TotalPurchase.Equal(decimal.NewFromInt(1500)))
}

func TestCustomerService_GetByID_FallsBackToStoredAggregates(t *testing.T) {
	service, customerRepo, saleRepo, _ := newCustomerServiceForTest()
	ctx := context.Background()

	customer := newTestCustomer(t)
	customer.OutstandingAmount = decimal.NewFromInt(250)
	customer.TotalPurchase = decimal.NewFromInt(800)

	customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	saleRepo.On("SummarizeCustomer", mock.Anything, customer.ID).
		Return(billing.CustomerSaleSummary{}, errors.New("connection reset"))

	resp, err := service.GetByID(ctx, customer.ID)

	require.NoError(t, err)
	assert.True(t, resp.OutstandingAmount.Equal(decimal.NewFromInt(250)))
	assert.True(t, resp.TotalPurchase.Equal(decimal.NewFromInt(800)))
}

func TestCustomerService_GetSummary_CacheHit(t *testing.T) {
	service, _, saleRepo, _ := newCustomerServiceForTest()
	ctx := context.Background()

	customerID := uuid.New()
	cached := &partner.CustomerSummary{
		CustomerID:    customerID,
		TotalPurchase: decimal.NewFromInt(1200),
		Outstanding:   decimal.NewFromInt(300),
	}

	summaryCache := new(MockSummaryCache)
	summaryCache.On("Get", mock.Anything, customerID).Return(cached, nil)
	service.SetSummaryCache(summaryCache)

	summary, err := service.GetSummary(ctx, customerID)

	require.NoError(t, err)
	assert.True(t, summary.Outstanding.Equal(decimal.NewFromInt(300)))
	saleRepo.AssertNotCalled(t, "SummarizeCustomer", mock.Anything, mock.Anything)
}

func TestCustomerService_GetSummary_CacheMissPopulatesCache(t *testing.T) {
	service, _, saleRepo, _ := newCustomerServiceForTest()
	ctx := context.Background()

	customerID := uuid.New()
	saleRepo.On("SummarizeCustomer", mock.Anything, customerID).Return(billing.CustomerSaleSummary{
		TotalPurchase: decimal.NewFromInt(700),
		Outstanding:   decimal.NewFromInt(70),
	}, nil)

	summaryCache := new(MockSummaryCache)
	summaryCache.On("Get", mock.Anything, customerID).Return(nil, errors.New("cache miss"))
	summaryCache.On("Set", mock.Anything, mock.MatchedBy(func(s partner.CustomerSummary) bool {
		return s.CustomerID == customerID && s.Outstanding.Equal(decimal.NewFromInt(70))
	})).Return(nil)
	service.SetSummaryCache(summaryCache)

	summary, err := service.GetSummary(ctx, customerID)

	require.NoError(t, err)
	assert.True(t, summary.TotalPurchase.Equal(decimal.NewFromInt(700)))
	summaryCache.AssertExpectations(t)
}

func TestCustomerService_ListLedger_UnknownCustomer(t *testing.T) {
	service, customerRepo, _, ledgerRepo := newCustomerServiceForTest()
	ctx := context.Background()

	missing := uuid.New()
	customerRepo.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)

	_, err := service.ListLedger(ctx, missing, shared.DefaultFilter())

	require.ErrorIs(t, err, shared.ErrNotFound)
	ledgerRepo.AssertNotCalled(t, "FindByCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestCustomerService_ListLedger(t *testing.T) {
	service, customerRepo, _, ledgerRepo := newCustomerServiceForTest()
	ctx := context.Background()

	customer := newTestCustomer(t)
	entry, err := partner.NewLedgerEntry(
		customer.ID,
		partner.LedgerSourceSale,
		uuid.New(),
		"INV-2026-00007",
		decimal.NewFromInt(150),
		decimal.Zero,
		"invoice issued",
	)
	require.NoError(t, err)

	customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	ledgerRepo.On("FindByCustomer", mock.Anything, customer.ID, mock.AnythingOfType("shared.Filter")).
		Return([]*partner.LedgerEntry{entry}, nil)
	ledgerRepo.On("CountByCustomer", mock.Anything, customer.ID).Return(int64(1), nil)

	result, err := service.ListLedger(ctx, customer.ID, shared.DefaultFilter())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "INV-2026-00007", result.Items[0].SourceNumber)
	assert.True(t, result.Items[0].OutstandingAfter.Equal(decimal.NewFromInt(150)))
}

func TestCustomerService_Deactivate(t *testing.T) {
	service, customerRepo, _, _ := newCustomerServiceForTest()
	ctx := context.Background()

	customer := newTestCustomer(t)
	customerRepo.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	customerRepo.On("Save", mock.Anything, customer).Return(nil)

	require.NoError(t, service.Deactivate(ctx, customer.ID))
	assert.Equal(t, partner.CustomerStatusInactive, customer.Status)

	// A second deactivation is rejected by the aggregate
	err := service.Deactivate(ctx, customer.ID)
	require.Error(t, err)
}
