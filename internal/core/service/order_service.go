package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type OrderService struct {
	customers  port.CustomerRepository
	catalog    port.CatalogRepository
	orders     port.OrderRepository
	txScope    port.TransactionScope
	cache      port.CacheRepository
	logger     *zap.Logger
	tracer     trace.Tracer
	eventQueue chan domain.OrderPlacedEvent
}

func NewOrderService(
	customers port.CustomerRepository,
	catalog port.CatalogRepository,
	orders port.OrderRepository,
	txScope port.TransactionScope,
	cache port.CacheRepository,
	queueSize int,
	opts ...Option,
) *OrderService {
	o := newOptions(opts)
	return &OrderService{
		customers:  customers,
		catalog:    catalog,
		orders:     orders,
		txScope:    txScope,
		cache:      cache,
		logger:     o.logger,
		tracer:     o.tracer,
		eventQueue: make(chan domain.OrderPlacedEvent, queueSize),
	}
}

// CreateOrder validates the request against the customer directory and the
// catalog, writes the order, then commits the decremented stock. Validation
// failures are reported before anything is written.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, lines []domain.LineRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.Int("order.requested_lines", len(lines)),
	))
	defer span.End()

	order, err := s.createOrder(ctx, customerID, lines)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, ErrStockCommitFailed) || errors.Is(err, ErrOrderPersistenceFailed) {
			s.logger.Error("order failed", zap.String("customer_id", customerID), zap.Error(err))
		} else {
			s.logger.Info("order rejected", zap.String("customer_id", customerID), zap.Error(err))
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.Int("lines", len(order.Lines)),
		zap.String("total", order.Total().StringFixed(2)),
	)

	s.enqueue(*order)
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, customerID string, lines []domain.LineRequest) (*domain.Order, error) {
	customer, err := s.customers.FindCustomerByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
	}

	if len(lines) == 0 {
		return nil, ErrNoProductsFound
	}

	var fnSucceeded bool
	order, err := port.ExecuteWithResult(ctx, s.txScope, func(ctx context.Context) (*domain.Order, error) {
		fnSucceeded = false

		products, err := s.catalog.FindManyByID(ctx, productIDs(lines))
		if err != nil {
			return nil, fmt.Errorf("find products: %w", err)
		}
		if len(products) == 0 {
			return nil, ErrNoProductsFound
		}

		orderLines, updates, err := reserve(lines, products)
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("order aborted before persistence: %w", err)
		}

		order, err := s.orders.CreateOrder(ctx, customer.ID, orderLines)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOrderPersistenceFailed, err)
		}

		if _, err := s.catalog.ApplyQuantities(ctx, updates); err != nil {
			return nil, s.compensate(ctx, *order, err)
		}

		fnSucceeded = true
		return order, nil
	})
	if err != nil {
		if fnSucceeded {
			// nothing was persisted when the unit of work itself failed to commit
			return nil, fmt.Errorf("%w: commit: %w", ErrOrderPersistenceFailed, err)
		}
		return nil, err
	}

	return order, nil
}

// reserve walks the requested lines in order, checking each against the
// running on-hand quantity of its product. It returns the order lines and the
// new quantity for every product touched, in first-touch order.
func reserve(lines []domain.LineRequest, products []domain.Product) ([]domain.OrderLine, []domain.StockUpdate, error) {
	byID := make(map[string]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	touched := make([]string, 0, len(products))
	seen := make(map[string]bool, len(products))

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, nil, &LineError{ProductID: line.ProductID, Err: ErrProductNotFound}
		}
		if line.Quantity <= 0 {
			return nil, nil, &LineError{ProductID: line.ProductID, Err: ErrInvalidQuantity}
		}
		if line.Quantity > product.Quantity {
			return nil, nil, &StockError{
				ProductID: product.ID,
				Requested: line.Quantity,
				Available: product.Quantity,
			}
		}

		product.Quantity -= line.Quantity
		orderLines = append(orderLines, domain.OrderLine{
			ProductID: product.ID,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})

		if !seen[product.ID] {
			seen[product.ID] = true
			touched = append(touched, product.ID)
		}
	}

	updates := make([]domain.StockUpdate, 0, len(touched))
	for _, id := range touched {
		updates = append(updates, domain.StockUpdate{
			ProductID: id,
			Quantity:  byID[id].Quantity,
			Version:   byID[id].Version,
		})
	}

	return orderLines, updates, nil
}

// compensate cancels an order whose stock decrement could not be committed.
func (s *OrderService) compensate(ctx context.Context, order domain.Order, cause error) error {
	commitErr := &StockCommitError{Order: order, Err: cause}

	if err := s.orders.CancelOrder(context.WithoutCancel(ctx), order.ID); err != nil {
		s.logger.Error("CRITICAL: failed to cancel order after stock commit failure",
			zap.String("order_id", order.ID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return commitErr
	}

	commitErr.Compensated = true
	commitErr.Order.Status = domain.OrderStatusCancelled
	return commitErr
}

// PlaceOrder is CreateOrder guarded by a caller-supplied request id, so a
// retried request never creates a second order.
func (s *OrderService) PlaceOrder(ctx context.Context, requestID, customerID string, lines []domain.LineRequest) (*domain.Order, error) {
	ok, err := s.cache.ClaimRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		orderID, err := s.cache.LookupRequest(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup failed: %w", err)
		}
		return nil, &DuplicateRequestError{RequestID: requestID, OrderID: orderID}
	}

	order, err := s.CreateOrder(ctx, customerID, lines)
	if err != nil {
		if releaseErr := s.cache.ReleaseRequest(context.WithoutCancel(ctx), requestID); releaseErr != nil {
			s.logger.Warn("failed to release request claim", zap.String("request_id", requestID), zap.Error(releaseErr))
		}
		return nil, err
	}

	if err := s.cache.CompleteRequest(ctx, requestID, order.ID); err != nil {
		s.logger.Warn("failed to record request result",
			zap.String("request_id", requestID),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
	}

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return order, nil
}

func (s *OrderService) enqueue(order domain.Order) {
	select {
	case s.eventQueue <- domain.NewOrderPlacedEvent(order):
	default:
		s.logger.Warn("event queue full, dropping order placed event", zap.String("order_id", order.ID))
	}
}

func (s *OrderService) GetEventQueue() <-chan domain.OrderPlacedEvent {
	return s.eventQueue
}

func (s *OrderService) Close() {
	close(s.eventQueue)
}

func productIDs(lines []domain.LineRequest) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}
