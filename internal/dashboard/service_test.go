package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	stats *Stats
	err   error
	calls int
}

func (s *countingStore) Stats(context.Context) (*Stats, error) {
	s.calls++
	return s.stats, s.err
}

func sampleStats() *Stats {
	return &Stats{
		TotalInvoices:     3,
		ApprovedInvoices:  1,
		TotalAmount:       decimal.RequireFromString("4500.00"),
		ApprovedAmount:    decimal.RequireFromString("1500.00"),
		CompletedPayments: 1,
		PaidAmount:        decimal.RequireFromString("1500.00"),
	}
}

func TestStatsFallsThroughWithoutCache(t *testing.T) {
	store := &countingStore{stats: sampleStats()}
	// Nil redis client: every lookup is a miss.
	svc := NewService(store, NewCache(nil, 0), nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.TotalAmount.Equal(decimal.RequireFromString("4500.00")))
	assert.Equal(t, 1, store.calls)

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls, "nil cache never serves hits")
}

func TestStatsPropagatesStoreError(t *testing.T) {
	store := &countingStore{err: errors.New("connection reset")}
	svc := NewService(store, NewCache(nil, 0), nil)

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
}

func TestNilCacheMethodsAreSafe(t *testing.T) {
	var c *Cache
	_, err := c.Snapshot(context.Background())
	require.Error(t, err)
	assert.NoError(t, c.StoreSnapshot(context.Background(), sampleStats()))
	assert.NoError(t, c.InvalidateDashboard(context.Background()))
}
