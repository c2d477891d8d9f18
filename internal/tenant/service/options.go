package service

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	tenantmetrics "tenancy/internal/tenant/metrics"
)

// serviceConfig holds optional dependencies for the handler.
type serviceConfig struct {
	logger  *slog.Logger
	metrics *tenantmetrics.Metrics
	tracer  trace.Tracer
	ids     IDGenerator
	clock   func() time.Time
	tx      StoreTx
}

// Option configures the handler.
type Option func(c *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *serviceConfig) {
		c.tracer = t
	}
}

// WithIDGenerator replaces the default UUIDv7 member id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *serviceConfig) {
		c.ids = g
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *serviceConfig) {
		c.clock = now
	}
}

// WithTx runs the store and publish steps of each command inside one
// transaction. Only meaningful when the publisher writes to the same database
// (the outbox publisher); a broker publish cannot be rolled back.
func WithTx(tx StoreTx) Option {
	return func(c *serviceConfig) {
		c.tx = tx
	}
}
