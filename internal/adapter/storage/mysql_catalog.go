package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

const productColumns = `id, name, price, quantity, version, created_at, updated_at`

// FindManyByID locks the returned rows when called inside a transaction, so
// the quantities read stay valid until the unit of work commits.
func (m *MySQLAdapter) FindManyByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` + placeholders(len(ids)) + `)`
	if _, ok := txFromContext(ctx); ok {
		query += ` FOR UPDATE`
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := m.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (m *MySQLAdapter) ApplyQuantities(ctx context.Context, updates []domain.StockUpdate) ([]domain.Product, error) {
	var products []domain.Product

	err := m.Execute(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		ids := make([]string, 0, len(updates))

		for _, u := range updates {
			if u.Quantity < 0 {
				return ErrNegativeStock
			}

			result, err := m.conn(ctx).ExecContext(ctx, `
				UPDATE products
				SET quantity = ?, version = version + 1, updated_at = ?
				WHERE id = ? AND version = ?`,
				u.Quantity, now, u.ProductID, u.Version,
			)
			if err != nil {
				return fmt.Errorf("update product %s: %w", u.ProductID, err)
			}

			rows, _ := result.RowsAffected()
			if rows == 0 {
				return ErrOptimisticLock
			}
			ids = append(ids, u.ProductID)
		}

		var err error
		products, err = m.FindManyByID(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (m *MySQLAdapter) CreateProduct(ctx context.Context, product domain.Product) error {
	_, err := m.conn(ctx).ExecContext(ctx, `
		INSERT INTO products (id, name, price, quantity, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		product.ID, product.Name, product.Price, product.Quantity, product.Version,
		product.CreatedAt, product.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) FindProductByName(ctx context.Context, name string) (*domain.Product, error) {
	var p domain.Product
	err := m.conn(ctx).QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Version, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal) (*domain.Product, error) {
	result, err := m.conn(ctx).ExecContext(ctx, `
		UPDATE products SET price = ?, updated_at = ? WHERE id = ?`,
		price, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product price: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, nil
	}

	products, err := m.FindManyByID(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}
