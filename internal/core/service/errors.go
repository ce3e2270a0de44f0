package service

import (
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

var (
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrNoProductsFound        = errors.New("no products found")
	ErrProductNotFound        = errors.New("product not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrOrderPersistenceFailed = errors.New("order persistence failed")
	ErrStockCommitFailed      = errors.New("stock commit failed")
	ErrOrderNotFound          = errors.New("order not found")
	ErrDuplicateRequest       = errors.New("duplicate request")

	ErrCustomerAlreadyExists = errors.New("customer with the same email already exists")
	ErrInvalidCustomer       = errors.New("customer name and email are required")
	ErrProductAlreadyExists  = errors.New("product with the same name already exists")
	ErrInvalidProduct        = errors.New("product price and quantity must not be negative")
)

// LineError identifies the requested line that failed validation.
type LineError struct {
	ProductID string
	Err       error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.ProductID)
}

func (e *LineError) Unwrap() error { return e.Err }

// StockError reports a line whose quantity exceeds what is left on hand,
// counting earlier lines of the same order for that product.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Shortfall() int { return e.Requested - e.Available }

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// StockCommitError is returned when the order was written but its stock
// decrement was not. Compensated reports whether the order was cancelled.
type StockCommitError struct {
	Order       domain.Order
	Compensated bool
	Err         error
}

func (e *StockCommitError) Error() string {
	state := "order left in place"
	if e.Compensated {
		state = "order cancelled"
	}
	return fmt.Sprintf("%v for order %s (%s): %v", ErrStockCommitFailed, e.Order.ID, state, e.Err)
}

func (e *StockCommitError) Is(target error) bool { return target == ErrStockCommitFailed }

func (e *StockCommitError) Unwrap() error { return e.Err }

// DuplicateRequestError carries the order created by the first request with
// the same id, empty while that request is still in flight.
type DuplicateRequestError struct {
	RequestID string
	OrderID   string
}

func (e *DuplicateRequestError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDuplicateRequest, e.RequestID)
}

func (e *DuplicateRequestError) Unwrap() error { return ErrDuplicateRequest }
