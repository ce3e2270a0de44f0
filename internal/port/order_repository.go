package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder assigns an id and persists the order with its lines as one unit
	CreateOrder(ctx context.Context, customerID string, lines []domain.OrderLine) (*domain.Order, error)

	// CancelOrder marks an order cancelled
	CancelOrder(ctx context.Context, orderID string) error

	// FindOrderByID returns nil when the order does not exist
	FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
}
