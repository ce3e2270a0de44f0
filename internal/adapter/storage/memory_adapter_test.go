package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func seedMemoryProduct(t *testing.T, m *MemoryAdapter, id string, quantity int) {
	t.Helper()
	require.NoError(t, m.CreateProduct(context.Background(), domain.Product{
		ID:       id,
		Name:     "name-" + id,
		Price:    decimal.RequireFromString("5.00"),
		Quantity: quantity,
	}))
}

func TestMemoryFindManyByID_OmitsUnknownAndIsRepeatable(t *testing.T) {
	m := NewMemoryAdapter()
	seedMemoryProduct(t, m, "P1", 10)
	ctx := context.Background()

	first, err := m.FindManyByID(ctx, []string{"P1", "PX"})
	require.NoError(t, err)
	second, err := m.FindManyByID(ctx, []string{"P1", "PX"})
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, "P1", first[0].ID)
	assert.Equal(t, first, second)
}

func TestMemoryFindManyByID_ReturnsCopies(t *testing.T) {
	m := NewMemoryAdapter()
	seedMemoryProduct(t, m, "P1", 10)
	ctx := context.Background()

	products, _ := m.FindManyByID(ctx, []string{"P1"})
	products[0].Quantity = 0

	again, _ := m.FindManyByID(ctx, []string{"P1"})
	assert.Equal(t, 10, again[0].Quantity)
}

func TestMemoryApplyQuantities(t *testing.T) {
	m := NewMemoryAdapter()
	seedMemoryProduct(t, m, "P1", 10)
	seedMemoryProduct(t, m, "P2", 10)
	ctx := context.Background()

	updated, err := m.ApplyQuantities(ctx, []domain.StockUpdate{
		{ProductID: "P1", Quantity: 7, Version: 0},
		{ProductID: "P2", Quantity: 2, Version: 0},
	})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, 7, updated[0].Quantity)
	assert.Equal(t, 1, updated[0].Version)
	assert.Equal(t, 2, updated[1].Quantity)
}

func TestMemoryApplyQuantities_StaleVersionRejectsBatch(t *testing.T) {
	m := NewMemoryAdapter()
	seedMemoryProduct(t, m, "P1", 10)
	seedMemoryProduct(t, m, "P2", 10)
	ctx := context.Background()

	_, err := m.ApplyQuantities(ctx, []domain.StockUpdate{{ProductID: "P2", Quantity: 9, Version: 0}})
	require.NoError(t, err)

	_, err = m.ApplyQuantities(ctx, []domain.StockUpdate{
		{ProductID: "P1", Quantity: 5, Version: 0},
		{ProductID: "P2", Quantity: 5, Version: 0},
	})
	assert.ErrorIs(t, err, ErrOptimisticLock)

	products, _ := m.FindManyByID(ctx, []string{"P1", "P2"})
	assert.Equal(t, 10, products[0].Quantity)
	assert.Equal(t, 9, products[1].Quantity)
}

func TestMemoryApplyQuantities_RejectsNegative(t *testing.T) {
	m := NewMemoryAdapter()
	seedMemoryProduct(t, m, "P1", 1)

	_, err := m.ApplyQuantities(context.Background(), []domain.StockUpdate{{ProductID: "P1", Quantity: -1}})
	assert.ErrorIs(t, err, ErrNegativeStock)
}

func TestMemoryOrders(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	lines := []domain.OrderLine{{ProductID: "P1", UnitPrice: decimal.RequireFromString("5"), Quantity: 3}}
	order, err := m.CreateOrder(ctx, "C1", lines)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, domain.OrderStatusPlaced, order.Status)

	lines[0].Quantity = 99
	found, err := m.FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.Lines[0].Quantity)

	require.NoError(t, m.CancelOrder(ctx, order.ID))
	found, _ = m.FindOrderByID(ctx, order.ID)
	assert.Equal(t, domain.OrderStatusCancelled, found.Status)

	assert.ErrorIs(t, m.CancelOrder(ctx, "missing"), ErrNotFound)

	missing, err := m.FindOrderByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryCustomers_UniqueEmail(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	require.NoError(t, m.CreateCustomer(ctx, domain.Customer{ID: "C1", Name: "Ana", Email: "ana@example.com"}))
	err := m.CreateCustomer(ctx, domain.Customer{ID: "C2", Name: "Ana", Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	found, err := m.FindCustomerByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "C1", found.ID)
}

func TestMemoryExecute_Serializes(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Execute(ctx, func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				// nested units join the outer one
				_ = m.Execute(ctx, func(ctx context.Context) error { return nil })

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	ok, _ := c.ClaimRequest(ctx, "req-1")
	assert.True(t, ok)
	ok, _ = c.ClaimRequest(ctx, "req-1")
	assert.False(t, ok)

	orderID, _ := c.LookupRequest(ctx, "req-1")
	assert.Empty(t, orderID)

	require.NoError(t, c.ReleaseRequest(ctx, "req-1"))
	ok, _ = c.ClaimRequest(ctx, "req-1")
	assert.True(t, ok)

	require.NoError(t, c.CompleteRequest(ctx, "req-1", "order-1"))
	require.NoError(t, c.ReleaseRequest(ctx, "req-1"))
	orderID, _ = c.LookupRequest(ctx, "req-1")
	assert.Equal(t, "order-1", orderID)
}
