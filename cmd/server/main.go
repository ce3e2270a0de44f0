package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/messaging"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/observability"
	"github.com/rl1809/storefront/internal/port"
)

func main() {
	logger := observability.NewLogger(zapcore.InfoLevel)
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	var tp trace.TracerProvider = noop.NewTracerProvider()
	if cfg.OtelEndpoint != "" {
		sdkTP, shutdownTracing, err := observability.SetupTracingSDK(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to set up tracing", zap.Error(err))
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer shutdownCancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Error("failed to shut down tracing", zap.Error(err))
			}
		}()
		tp = sdkTP
		logger.Info("tracing enabled", zap.String("endpoint", cfg.OtelEndpoint))
	}
	tracer := tp.Tracer(config.ServiceName)

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to connect mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Events
	publisher, closePublisher, err := newPublisher(cfg, tp, logger)
	if err != nil {
		logger.Fatal("failed to set up event publisher", zap.Error(err))
	}

	opts := []service.Option{service.WithLogger(logger), service.WithTracer(tracer)}
	orderService := service.NewOrderService(
		mysqlAdapter,
		mysqlAdapter,
		mysqlAdapter,
		mysqlAdapter,
		storage.NewRedisAdapter(rdb),
		cfg.QueueSize,
		opts...,
	)
	customerService := service.NewCustomerService(mysqlAdapter, opts...)
	productService := service.NewProductService(mysqlAdapter, opts...)

	dispatcher := messaging.NewDispatcher(publisher, cfg.WorkerCount, logger)
	dispatcher.Start(orderService.GetEventQueue())

	// gRPC
	grpcServer := grpc.NewServer()
	handler.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(orderService, logger))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(handler.OrderServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// HTTP
	httpHandler := handler.NewHTTPHandler(orderService, customerService, productService, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Routes(cfg.RequestTimeout),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// No more orders can be placed, so the queue can be closed and drained.
	orderService.Close()
	dispatcher.Wait()
	logger.Info("event workers stopped")

	if err := closePublisher(); err != nil {
		logger.Error("failed to close event publisher", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		logger.Error("failed to close redis", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close mysql", zap.Error(err))
	}
	logger.Info("connections closed")
}

// newPublisher returns a traced Kafka publisher, or a logging publisher when
// no brokers are configured.
func newPublisher(cfg *config.Config, tp trace.TracerProvider, logger *zap.Logger) (port.EventPublisher, func() error, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, order events will only be logged")
		return messaging.NewLogPublisher(logger), func() error { return nil }, nil
	}

	baseWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: config.KafkaBatchTimeout,
		BatchSize:    config.KafkaBatchSize,
		RequiredAcks: kafka.RequireAll,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(cfg.KafkaTopic),
				attribute.String("messaging.kafka.client_id", config.ServiceName),
			},
		),
	)
	if err != nil {
		return nil, nil, err
	}

	publisher := messaging.NewKafkaPublisher(writer, logger)
	logger.Info("publishing order events to kafka",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
	)
	return publisher, publisher.Close, nil
}
