package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

type memoryTxKey struct{}

// MemoryAdapter keeps the catalog, customers and orders in process. Every
// record handed out is a copy.
//
// Execute serializes units of work but does not roll back their writes.
type MemoryAdapter struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	products  map[string]domain.Product
	customers map[string]domain.Customer
	orders    map[string]domain.Order
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		products:  make(map[string]domain.Product),
		customers: make(map[string]domain.Customer),
		orders:    make(map[string]domain.Order),
	}
}

func (m *MemoryAdapter) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	return fn(context.WithValue(ctx, memoryTxKey{}, true))
}

func (m *MemoryAdapter) FindManyByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (m *MemoryAdapter) ApplyQuantities(ctx context.Context, updates []domain.StockUpdate) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range updates {
		if u.Quantity < 0 {
			return nil, ErrNegativeStock
		}
		p, ok := m.products[u.ProductID]
		if !ok || p.Version != u.Version {
			return nil, ErrOptimisticLock
		}
	}

	now := time.Now().UTC()
	updated := make([]domain.Product, 0, len(updates))
	for _, u := range updates {
		p := m.products[u.ProductID]
		p.Quantity = u.Quantity
		p.Version++
		p.UpdatedAt = now
		m.products[u.ProductID] = p
		updated = append(updated, p)
	}

	return updated, nil
}

func (m *MemoryAdapter) CreateProduct(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[product.ID]; ok {
		return ErrAlreadyExists
	}
	for _, p := range m.products {
		if p.Name == product.Name {
			return ErrAlreadyExists
		}
	}

	m.products[product.ID] = product
	return nil
}

func (m *MemoryAdapter) FindProductByName(ctx context.Context, name string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *MemoryAdapter) UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	p.Price = price
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return &p, nil
}

func (m *MemoryAdapter) FindCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryAdapter) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.customers {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MemoryAdapter) CreateCustomer(ctx context.Context, customer domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.customers[customer.ID]; ok {
		return ErrAlreadyExists
	}
	for _, c := range m.customers {
		if c.Email == customer.Email {
			return ErrAlreadyExists
		}
	}

	m.customers[customer.ID] = customer
	return nil
}

func (m *MemoryAdapter) CreateOrder(ctx context.Context, customerID string, lines []domain.OrderLine) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	order := domain.Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Status:     domain.OrderStatusPlaced,
		Lines:      append([]domain.OrderLine(nil), lines...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.orders[order.ID] = order

	return copyOrder(order), nil
}

func (m *MemoryAdapter) CancelOrder(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = time.Now().UTC()
	m.orders[orderID] = order
	return nil
}

func (m *MemoryAdapter) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	return copyOrder(order), nil
}

// Orders returns every stored order.
func (m *MemoryAdapter) Orders() []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		orders = append(orders, *copyOrder(o))
	}
	return orders
}

func copyOrder(o domain.Order) *domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &o
}
