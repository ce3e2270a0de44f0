package domain

import (
	"time"

	"github.com/google/uuid"
)

const OrderPlacedEventType = "orders.OrderPlaced"

type OrderPlacedEvent struct {
	EventID    string           `json:"event_id"`
	Type       string           `json:"type"`
	OrderID    string           `json:"order_id"`
	CustomerID string           `json:"customer_id"`
	Lines      []OrderLineEvent `json:"lines"`
	Total      string           `json:"total"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type OrderLineEvent struct {
	ProductID string `json:"product_id"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

func NewOrderPlacedEvent(order Order) OrderPlacedEvent {
	lines := make([]OrderLineEvent, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLineEvent{
			ProductID: line.ProductID,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Quantity:  line.Quantity,
		})
	}

	return OrderPlacedEvent{
		EventID:    uuid.New().String(),
		Type:       OrderPlacedEventType,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Lines:      lines,
		Total:      order.Total().StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
}
