package cache

import (
	"context"
	"sync"
	"time"

	"github.com/billing/backend/internal/domain/partner"
	"github.com/google/uuid"
)

// summaryEntry represents a stored summary with expiration
type summaryEntry struct {
	summary   partner.CustomerSummary
	expiresAt time.Time
}

// InMemorySummaryCache implements CustomerSummaryCache using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemorySummaryCache struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]summaryEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySummaryCache creates a new in-memory customer summary cache.
// It starts a background goroutine to clean up expired entries.
func NewInMemorySummaryCache() *InMemorySummaryCache {
	cache := &InMemorySummaryCache{
		entries:  make(map[uuid.UUID]summaryEntry),
		ttl:      DefaultSummaryTTL,
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached summary for a customer, or nil on a cache miss
func (c *InMemorySummaryCache) Get(ctx context.Context, customerID uuid.UUID) (*partner.CustomerSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[customerID]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, nil
	}

	summary := e.summary
	return &summary, nil
}

// Set stores the summary for a customer
func (c *InMemorySummaryCache) Set(ctx context.Context, summary partner.CustomerSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[summary.CustomerID] = summaryEntry{
		summary:   summary,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Invalidate drops the cached summary for a customer
func (c *InMemorySummaryCache) Invalidate(ctx context.Context, customerID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, customerID)
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemorySummaryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemorySummaryCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

// cleanup removes expired entries
func (c *InMemorySummaryCache) cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, id)
		}
	}
}

// Ensure InMemorySummaryCache implements CustomerSummaryCache
var _ partner.CustomerSummaryCache = (*InMemorySummaryCache)(nil)
