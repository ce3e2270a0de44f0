package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Version   int // optimistic locking
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockUpdate carries the fully computed on-hand quantity for a product
// together with the version observed when it was read.
type StockUpdate struct {
	ProductID string
	Quantity  int
	Version   int
}
