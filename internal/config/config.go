package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ServiceName    = "storefront"
	ServiceVersion = "0.1.0"
)

const (
	TracesPath    = "/otlp/v1/traces"
	ExportTimeout = 30 * time.Second
	MaxQueueSize  = 2048
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaBatchSize    = 100
)

type Config struct {
	HTTPAddr  string
	GRPCAddr  string
	MySQLDSN  string
	RedisAddr string

	// KafkaBrokers is empty when order events should only be logged.
	KafkaBrokers []string
	KafkaTopic   string

	// OtelEndpoint is empty when tracing is disabled.
	OtelEndpoint   string
	OtelAuthHeader string

	WorkerCount     int
	QueueSize       int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	var errs []error

	cfg := &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:       getEnv("GRPC_ADDR", ":50051"),
		MySQLDSN:       getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "OrderPlaced"),
		OtelEndpoint:   os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader: os.Getenv("OTEL_AUTH_HEADER"),
	}

	cfg.WorkerCount = getInt("WORKER_COUNT", 10, &errs)
	cfg.QueueSize = getInt("QUEUE_SIZE", 10000, &errs)
	cfg.RequestTimeout = getDuration("REQUEST_TIMEOUT", 5*time.Second, &errs)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs)

	if cfg.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_COUNT must be positive, got %d", cfg.WorkerCount))
	}
	if cfg.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("QUEUE_SIZE must be positive, got %d", cfg.QueueSize))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", cfg.ShutdownTimeout))
	}
	if cfg.MySQLDSN == "" {
		errs = append(errs, errors.New("MYSQL_DSN must not be empty"))
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if cfg.OtelEndpoint != "" && cfg.OtelAuthHeader == "" {
		errs = append(errs, errors.New("OTEL_AUTH_HEADER is required when OTEL_ENDPOINT is set"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
