package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
)

func (m *MySQLAdapter) CreateOrder(ctx context.Context, customerID string, lines []domain.OrderLine) (*domain.Order, error) {
	now := time.Now().UTC()
	order := domain.Order{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Status:     domain.OrderStatusPlaced,
		Lines:      append([]domain.OrderLine(nil), lines...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := m.Execute(ctx, func(ctx context.Context) error {
		_, err := m.conn(ctx).ExecContext(ctx, `
			INSERT INTO orders (id, customer_id, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			order.ID, order.CustomerID, order.Status, order.CreatedAt, order.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if len(order.Lines) == 0 {
			return nil
		}

		values := make([]string, 0, len(order.Lines))
		args := make([]any, 0, len(order.Lines)*5)
		for i, line := range order.Lines {
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, order.ID, i, line.ProductID, line.UnitPrice, line.Quantity)
		}

		_, err = m.conn(ctx).ExecContext(ctx, `
			INSERT INTO order_lines (order_id, line_no, product_id, unit_price, quantity)
			VALUES `+strings.Join(values, ", "),
			args...,
		)
		if err != nil {
			return fmt.Errorf("insert order lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (m *MySQLAdapter) CancelOrder(ctx context.Context, orderID string) error {
	result, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		domain.OrderStatusCancelled, time.Now().UTC(), orderID,
	)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := m.conn(ctx).QueryRowContext(ctx, `
		SELECT id, customer_id, status, created_at, updated_at
		FROM orders WHERE id = ?`, orderID,
	).Scan(&order.ID, &order.CustomerID, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := m.conn(ctx).QueryContext(ctx, `
		SELECT product_id, unit_price, quantity
		FROM order_lines WHERE order_id = ? ORDER BY line_no`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return &order, nil
}
