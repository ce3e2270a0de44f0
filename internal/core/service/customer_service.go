package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type CustomerService struct {
	customers port.CustomerRepository
	logger    *zap.Logger
}

func NewCustomerService(customers port.CustomerRepository, opts ...Option) *CustomerService {
	o := newOptions(opts)
	return &CustomerService{customers: customers, logger: o.logger}
}

// CreateCustomer registers a customer whose email is not yet taken.
func (s *CustomerService) CreateCustomer(ctx context.Context, name, email string) (*domain.Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, ErrInvalidCustomer
	}

	existing, err := s.customers.FindCustomerByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find customer by email: %w", err)
	}
	if existing != nil {
		return nil, ErrCustomerAlreadyExists
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.logger.Info("customer created", zap.String("customer_id", customer.ID))
	return &customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.customers.FindCustomerByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}
	return customer, nil
}
