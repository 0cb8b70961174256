package cache

import (
	"context"
	"testing"

	"github.com/billing/backend/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySummaryCache_GetSet(t *testing.T) {
	cache := NewInMemorySummaryCache()
	defer cache.Close()

	ctx := context.Background()
	customerID := uuid.New()

	t.Run("miss returns nil without error", func(t *testing.T) {
		summary, err := cache.Get(ctx, customerID)
		assert.NoError(t, err)
		assert.Nil(t, summary)
	})

	t.Run("set then get returns the summary", func(t *testing.T) {
		stored := partner.CustomerSummary{
			CustomerID:    customerID,
			TotalPurchase: decimal.NewFromInt(1500),
			Outstanding:   decimal.NewFromInt(400),
		}
		require.NoError(t, cache.Set(ctx, stored))

		summary, err := cache.Get(ctx, customerID)
		require.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, customerID, summary.CustomerID)
		assert.True(t, summary.TotalPurchase.Equal(decimal.NewFromInt(1500)))
		assert.True(t, summary.Outstanding.Equal(decimal.NewFromInt(400)))
	})

	t.Run("set overwrites an existing entry", func(t *testing.T) {
		updated := partner.CustomerSummary{
			CustomerID:    customerID,
			TotalPurchase: decimal.NewFromInt(2000),
			Outstanding:   decimal.Zero,
		}
		require.NoError(t, cache.Set(ctx, updated))

		summary, err := cache.Get(ctx, customerID)
		require.NoError(t, err)
		require.NotNil(t, summary)
		assert.True(t, summary.TotalPurchase.Equal(decimal.NewFromInt(2000)))
		assert.True(t, summary.Outstanding.IsZero())
	})
}

func TestInMemorySummaryCache_Invalidate(t *testing.T) {
	cache := NewInMemorySummaryCache()
	defer cache.Close()

	ctx := context.Background()
	customerID := uuid.New()

	require.NoError(t, cache.Set(ctx, partner.CustomerSummary{
		CustomerID:    customerID,
		TotalPurchase: decimal.NewFromInt(100),
		Outstanding:   decimal.NewFromInt(100),
	}))

	require.NoError(t, cache.Invalidate(ctx, customerID))

	summary, err := cache.Get(ctx, customerID)
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

func TestInMemorySummaryCache_InvalidateMissingEntry(t *testing.T) {
	cache := NewInMemorySummaryCache()
	defer cache.Close()

	// Invalidating an absent entry is not an error
	err := cache.Invalidate(context.Background(), uuid.New())
	assert.NoError(t, err)
}

func TestInMemorySummaryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewInMemorySummaryCache()

	assert.NoError(t, cache.Close())
	assert.NoError(t, cache.Close())
}

func TestInMemorySummaryCache_IsolatesCustomers(t *testing.T) {
	cache := NewInMemorySummaryCache()
	defer cache.Close()

	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, cache.Set(ctx, partner.CustomerSummary{CustomerID: first, TotalPurchase: decimal.NewFromInt(10)}))
	require.NoError(t, cache.Set(ctx, partner.CustomerSummary{CustomerID: second, TotalPurchase: decimal.NewFromInt(20)}))

	require.NoError(t, cache.Invalidate(ctx, first))

	gone, err := cache.Get(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := cache.Get(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.True(t, kept.TotalPurchase.Equal(decimal.NewFromInt(20)))
}
