package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const (
	publishTimeout    = 5 * time.Second
	maxPublishRetries = 3
)

// Dispatcher drains the order event queue with a fixed pool of workers.
type Dispatcher struct {
	publisher port.EventPublisher
	logger    *zap.Logger
	workers   int
	wg        sync.WaitGroup
}

func NewDispatcher(publisher port.EventPublisher, workers int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{publisher: publisher, logger: logger, workers: workers}
}

// Start launches the workers. They exit once queue is closed and drained.
func (d *Dispatcher) Start(queue <-chan domain.OrderPlacedEvent) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id, queue)
		}(i)
	}
	d.logger.Info("started event workers", zap.Int("workers", d.workers))
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) workerLoop(id int, queue <-chan domain.OrderPlacedEvent) {
	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)

		b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxPublishRetries), ctx)
		err := backoff.Retry(func() error {
			return d.publisher.PublishOrderPlaced(ctx, event)
		}, b)
		if err != nil {
			d.logger.Error("failed to publish order placed event",
				zap.Int("worker", id),
				zap.String("order_id", event.OrderID),
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
		}

		cancel()
	}
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishOrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) error {
	p.logger.Info("order placed event",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.OrderID),
		zap.String("customer_id", event.CustomerID),
		zap.String("total", event.Total),
	)
	return nil
}
