package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CatalogRepository interface {
	// FindManyByID returns the subset of ids that exist, unmatched ids are omitted
	FindManyByID(ctx context.Context, ids []string) ([]domain.Product, error)

	// ApplyQuantities overwrites on-hand quantities, rejecting the batch if any version moved
	ApplyQuantities(ctx context.Context, updates []domain.StockUpdate) ([]domain.Product, error)

	// CreateProduct inserts a new product
	CreateProduct(ctx context.Context, product domain.Product) error

	// FindProductByName returns nil when no product has the name
	FindProductByName(ctx context.Context, name string) (*domain.Product, error)

	// UpdateProductPrice changes the catalog price, returns nil when the product does not exist
	UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal) (*domain.Product, error)
}
