package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CustomerRepository interface {
	// FindCustomerByID returns nil when the customer does not exist
	FindCustomerByID(ctx context.Context, id string) (*domain.Customer, error)

	// FindCustomerByEmail returns nil when no customer has the email
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)

	// CreateCustomer inserts a new customer
	CreateCustomer(ctx context.Context, customer domain.Customer) error
}
