package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID         string
	CustomerID string
	Status     OrderStatus
	Lines      []OrderLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderLine holds the unit price as it was when the order was placed.
type OrderLine struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineRequest is one requested (product, quantity) pair.
type LineRequest struct {
	ProductID string
	Quantity  int
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// QuantityByProduct sums line quantities per product id.
func (o Order) QuantityByProduct() map[string]int {
	totals := make(map[string]int, len(o.Lines))
	for _, line := range o.Lines {
		totals[line.ProductID] += line.Quantity
	}
	return totals
}
