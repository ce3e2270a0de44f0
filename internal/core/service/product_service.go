package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type ProductService struct {
	catalog port.CatalogRepository
	logger  *zap.Logger
}

func NewProductService(catalog port.CatalogRepository, opts ...Option) *ProductService {
	o := newOptions(opts)
	return &ProductService{catalog: catalog, logger: o.logger}
}

// CreateProduct adds a product to the catalog. Names are unique.
func (s *ProductService) CreateProduct(ctx context.Context, name string, price decimal.Decimal, quantity int) (*domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" || price.IsNegative() || quantity < 0 {
		return nil, ErrInvalidProduct
	}

	existing, err := s.catalog.FindProductByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find product by name: %w", err)
	}
	if existing != nil {
		return nil, ErrProductAlreadyExists
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:        uuid.New().String(),
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.catalog.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info("product created", zap.String("product_id", product.ID), zap.Int("quantity", quantity))
	return &product, nil
}

// GetProducts returns the products that exist among ids.
func (s *ProductService) GetProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	products, err := s.catalog.FindManyByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

// UpdatePrice changes the catalog price. Orders already placed keep the
// price they were placed at.
func (s *ProductService) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*domain.Product, error) {
	if price.IsNegative() {
		return nil, ErrInvalidProduct
	}

	product, err := s.catalog.UpdateProductPrice(ctx, id, price)
	if err != nil {
		return nil, fmt.Errorf("update product price: %w", err)
	}
	if product == nil {
		return nil, &LineError{ProductID: id, Err: ErrProductNotFound}
	}

	s.logger.Info("product price updated", zap.String("product_id", id), zap.String("price", price.StringFixed(2)))
	return product, nil
}
