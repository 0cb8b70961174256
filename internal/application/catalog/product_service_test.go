package catalog

import (
	"context"
	"testing"

	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, code string) (*catalog.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func newProductServiceForTest() (*ProductService, *MockProductRepository) {
	repo := new(MockProductRepository)
	return NewProductService(repo), repo
}

func newTestProduct(t *testing.T) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct("PRD-001", "Thermal Paper Roll", "box")
	require.NoError(t, err)
	return product
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestProductService_Create(t *testing.T) {
	service, repo := newProductServiceForTest()
	ctx := context.Background()

	repo.On("ExistsByCode", mock.Anything, "PRD-001").Return(false, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	resp, err := service.Create(ctx, CreateProductRequest{
		Code:          "PRD-001",
		Name:          "Thermal Paper Roll",
		Unit:          "box",
		SellingPrice:  decPtr(12),
		PurchasePrice: decPtr(8),
		InitialStock:  decPtr(100),
		MinStock:      decPtr(10),
	})

	require.NoError(t, err)
	assert.Equal(t, "PRD-001", resp.Code)
	assert.True(t, resp.SellingPrice.Equal(decimal.NewFromInt(12)))
	assert.True(t, resp.StockQuantity.Equal(decimal.NewFromInt(100)))
	assert.False(t, resp.BelowMinStock)
	repo.AssertExpectations(t)
}

func TestProductService_Create_DuplicateCode(t *testing.T) {
	service, repo := newProductServiceForTest()
	ctx := context.Background()

	repo.On("ExistsByCode", mock.Anything, "PRD-001").Return(true, nil)

	_, err := service.Create(ctx, CreateProductRequest{
		Code: "PRD-001",
		Name: "Thermal Paper Roll",
		Unit: "box",
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_Update(t *testing.T) {
	service, repo := newProductServiceForTest()
	ctx := context.Background()

	product := newTestProduct(t)
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("Save", mock.Anything, product).Return(nil)

	name := "Thermal Paper Roll 80mm"
	resp, err := service.Update(ctx, product.ID, UpdateProductRequest{
		Name:         &name,
		SellingPrice: decPtr(15),
	})

	require.NoError(t, err)
	assert.Equal(t, "Thermal Paper Roll 80mm", resp.Name)
	assert.True(t, resp.SellingPrice.Equal(decimal.NewFromInt(15)))
}

func TestProductService_AdjustStock(t *testing.T) {
	service, repo := newProductServiceForTest()
	ctx := context.Background()

	product := newTestProduct(t)
	require.NoError(t, product.IncreaseStock(decimal.NewFromInt(50)))

	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("Save", mock.Anything, product).Return(nil)

	resp, err := service.AdjustStock(ctx, product.ID, AdjustStockRequest{
		Quantity: decimal.NewFromInt(-20),
	})

	require.NoError(t, err)
	assert.True(t, resp.StockQuantity.Equal(decimal.NewFromInt(30)))
}

func TestProductService_AdjustStock_Insufficient(t *testing.T) {
	service, repo := newProductServiceForTest()
	ctx := context.Background()

	product := newTestProduct(t)
	require.NoError(t, product.IncreaseStock(decimal.NewFromInt(5)))

	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	_, err := service.AdjustStock(ctx, product.ID, AdjustStockRequest{
		Quantity: decimal.NewFromInt(-10),
	})

	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProductService_List(t *testing.T) {
	service, repo := newProductServiceForTest()
	ctx := context.Background()

	product := newTestProduct(t)
	repo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return([]catalog.Product{*product}, nil)
	repo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return(int64(1), nil)

	result, err := service.List(ctx, shared.DefaultFilter())

	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, "PRD-001", result.Items[0].Code)
}

func TestProductService_Deactivate(t *testing.T) {
	service, repo := newProductServiceForTest()
	ctx := context.Background()

	product := newTestProduct(t)
	repo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	repo.On("Save", mock.Anything, product).Return(nil)

	require.NoError(t, service.Deactivate(ctx, product.ID))
	assert.Equal(t, catalog.ProductStatusInactive, product.Status)

	err := service.Deactivate(ctx, product.ID)
	require.Error(t, err)
}
