package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/adapter/storage"
)

func TestCreateProduct(t *testing.T) {
	svc := NewProductService(storage.NewMemoryAdapter())
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, "Keyboard", decimal.RequireFromString("49.90"), 12)
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Zero(t, product.Version)

	products, err := svc.GetProducts(ctx, []string{product.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 12, products[0].Quantity)
	assert.True(t, decimal.RequireFromString("49.90").Equal(products[0].Price))
}

func TestCreateProduct_DuplicateName(t *testing.T) {
	svc := NewProductService(storage.NewMemoryAdapter())
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, "Keyboard", decimal.NewFromInt(10), 1)
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, "Keyboard", decimal.NewFromInt(20), 5)
	assert.ErrorIs(t, err, ErrProductAlreadyExists)
}

func TestCreateProduct_Invalid(t *testing.T) {
	svc := NewProductService(storage.NewMemoryAdapter())

	tests := []struct {
		name     string
		product  string
		price    decimal.Decimal
		quantity int
	}{
		{name: "blank name", product: "", price: decimal.NewFromInt(1), quantity: 1},
		{name: "negative price", product: "Mouse", price: decimal.NewFromInt(-1), quantity: 1},
		{name: "negative quantity", product: "Mouse", price: decimal.NewFromInt(1), quantity: -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.product, tc.price, tc.quantity)
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}
}

func TestUpdatePrice(t *testing.T) {
	svc := NewProductService(storage.NewMemoryAdapter())
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, "Keyboard", decimal.NewFromInt(10), 1)
	require.NoError(t, err)

	updated, err := svc.UpdatePrice(ctx, product.ID, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.50").Equal(updated.Price))

	_, err = svc.UpdatePrice(ctx, "missing", decimal.NewFromInt(1))
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, "missing", lineErr.ProductID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.UpdatePrice(ctx, product.ID, decimal.NewFromInt(-3))
	assert.ErrorIs(t, err, ErrInvalidProduct)
}
