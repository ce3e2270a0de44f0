package handler

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type testEnv struct {
	store     *storage.MemoryAdapter
	orders    *service.OrderService
	customers *service.CustomerService
	products  *service.ProductService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := storage.NewMemoryAdapter()
	ctx := context.Background()
	require.NoError(t, store.CreateCustomer(ctx, domain.Customer{ID: "C1", Name: "Carla", Email: "carla@example.com"}))
	require.NoError(t, store.CreateProduct(ctx, domain.Product{
		ID:       "P1",
		Name:     "Keyboard",
		Price:    decimal.RequireFromString("5.00"),
		Quantity: 10,
	}))

	orders := service.NewOrderService(store, store, store, store, storage.NewMemoryCache(), 100)
	t.Cleanup(orders.Close)

	return &testEnv{
		store:     store,
		orders:    orders,
		customers: service.NewCustomerService(store),
		products:  service.NewProductService(store),
	}
}

func (e *testEnv) stock(t *testing.T, id string) int {
	t.Helper()
	products, err := e.store.FindManyByID(context.Background(), []string{id})
	require.NoError(t, err)
	require.Len(t, products, 1)
	return products[0].Quantity
}
