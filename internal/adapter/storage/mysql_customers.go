package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (m *MySQLAdapter) FindCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	return m.findCustomer(ctx, `SELECT id, name, email, created_at, updated_at FROM customers WHERE id = ?`, id)
}

func (m *MySQLAdapter) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return m.findCustomer(ctx, `SELECT id, name, email, created_at, updated_at FROM customers WHERE email = ?`, email)
}

func (m *MySQLAdapter) findCustomer(ctx context.Context, query string, arg string) (*domain.Customer, error) {
	var c domain.Customer
	err := m.conn(ctx).QueryRowContext(ctx, query, arg).
		Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) CreateCustomer(ctx context.Context, customer domain.Customer) error {
	_, err := m.conn(ctx).ExecContext(ctx, `
		INSERT INTO customers (id, name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		customer.ID, customer.Name, customer.Email, customer.CreatedAt, customer.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}
