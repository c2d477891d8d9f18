package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tenancy/internal/platform/config"
	"tenancy/internal/platform/database"
	"tenancy/internal/platform/health"
	"tenancy/internal/platform/kafka/producer"
	redisclient "tenancy/internal/platform/redis"
	tenanthandler "tenancy/internal/tenant/handler"
	tenantmetrics "tenancy/internal/tenant/metrics"
	"tenancy/internal/tenant/models"
	"tenancy/internal/tenant/publisher"
	"tenancy/internal/tenant/service"
	tenantstore "tenancy/internal/tenant/store/tenant"
	"tenancy/pkg/platform/circuit"
	"tenancy/pkg/platform/middleware/auth"
	"tenancy/pkg/platform/middleware/request"
	"tenancy/pkg/platform/outbox/maintenance"
	outboxmetrics "tenancy/pkg/platform/outbox/metrics"
	outboxpostgres "tenancy/pkg/platform/outbox/store/postgres"
	"tenancy/pkg/platform/outbox/worker"
	"tenancy/pkg/platform/tx"
)

// tenantStore is what the invite handler and demo seeding need from a store.
type tenantStore interface {
	service.TenantStore
	CreateTenant(ctx context.Context, t *models.Tenant) error
}

type app struct {
	log    *slog.Logger
	router http.Handler

	pool     *database.Pool
	redis    *redisclient.Client
	producer *producer.Producer
	relay    *worker.Worker
	cron     *maintenance.Scheduler
	stopPool chan struct{}
}

func newApp(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{log: log, stopPool: make(chan struct{})}
	if err := a.init(ctx, cfg); err != nil {
		_ = a.close(context.Background()) //nolint:errcheck // best-effort cleanup on init failure
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context, cfg config.Server) error {
	var err error
	log := a.log

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checks := health.New(cfg.Environment)

	if a.pool, err = database.New(ctx, cfg.Database, reg); err != nil {
		return err
	}
	if a.pool != nil {
		checks.RegisterCheck("postgres", a.pool.Health)
	}

	if a.redis, err = redisclient.New(ctx, cfg.Redis, redisclient.NewPoolMetrics(reg)); err != nil {
		return err
	}
	if a.redis != nil {
		checks.RegisterCheck("redis", a.redis.Health)
	}

	if cfg.Kafka.Brokers != "" {
		a.producer, err = producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			ClientID:        cfg.Kafka.ClientID,
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, log)
		if err != nil {
			return err
		}
		checks.RegisterCheck("kafka", a.producer.Health)
	}

	var store tenantStore
	if a.pool != nil {
		store = tenantstore.NewPostgres(a.pool.DB())
	} else {
		store = tenantstore.NewInMemory()
	}
	if cfg.DemoSeed {
		if err := seedDemoTenant(ctx, store); err != nil {
			return err
		}
		log.Info("seeded demo tenant", "tenant", "acme")
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(tenantmetrics.New(reg)),
	}
	pub, err := a.buildPublisher(cfg, reg)
	if err != nil {
		return err
	}
	if cfg.Publisher.Mode == config.PublisherKafka || cfg.Publisher.Mode == config.PublisherRedis {
		guarded := publisher.NewGuarded(pub, circuit.New(cfg.Publisher.Mode,
			circuit.WithOnStateChange(func(name string, from, to circuit.State) {
				log.Warn("publisher circuit changed state", "publisher", name, "from", from.String(), "to", to.String())
			}),
		))
		checks.RegisterCheck("publisher", guarded.Health)
		pub = guarded
	}
	if cfg.Publisher.Mode == config.PublisherOutbox {
		opts = append(opts, service.WithTx(tx.NewPostgresRunner(a.pool.DB())))
	}
	inviter := service.NewInviteMemberHandler(store, pub, opts...)

	a.router = newRouter(cfg, log, reg, checks, tenanthandler.New(inviter, log))
	return nil
}

func (a *app) buildPublisher(cfg config.Server, reg prometheus.Registerer) (service.EventPublisher, error) {
	switch cfg.Publisher.Mode {
	case config.PublisherKafka:
		return publisher.NewKafka(a.producer, cfg.Kafka.Topic), nil
	case config.PublisherRedis:
		return publisher.NewRedisStream(a.redis, cfg.Publisher.RedisStream, cfg.Publisher.RedisStreamMax), nil
	case config.PublisherOutbox:
		store := outboxpostgres.New(a.pool.DB())
		m := outboxmetrics.New(reg)
		a.relay = worker.New(store, a.producer,
			worker.WithTopic(cfg.Kafka.Topic),
			worker.WithBatchSize(cfg.Outbox.BatchSize),
			worker.WithPollInterval(cfg.Outbox.PollInterval),
			worker.WithMetrics(m),
			worker.WithLogger(a.log),
			worker.WithTx(tx.NewPostgresRunner(a.pool.DB())),
		)
		cron, err := maintenance.New(store, maintenance.Config{
			CleanupInterval: cfg.Outbox.CleanupInterval,
			Retention:       cfg.Outbox.Retention,
			DepthInterval:   cfg.Outbox.DepthInterval,
		}, m, a.log)
		if err != nil {
			return nil, fmt.Errorf("outbox maintenance: %w", err)
		}
		a.cron = cron
		return publisher.NewOutbox(store), nil
	default:
		return publisher.NewNoop(a.log), nil
	}
}

func newRouter(cfg config.Server, log *slog.Logger, reg *prometheus.Registry, checks *health.Handler, tenants *tenanthandler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.Logger(log))
	r.Use(request.Latency(request.NewMetrics(reg), routePattern))

	checks.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(16 << 10))
		r.Use(auth.RequireAuth(auth.NewHS256Validator(cfg.JWTSigningKey), log))
		tenants.Register(r)
	})
	return r
}

// routePattern keeps metric label cardinality bounded to registered routes.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func (a *app) startBackground() {
	if a.relay != nil {
		a.relay.Start()
	}
	if a.cron != nil {
		a.cron.Start()
	}
	if a.redis != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-a.stopPool:
					return
				case <-ticker.C:
					a.redis.RecordPoolStats()
				}
			}
		}()
	}
}

// close stops background work before the clients it depends on.
func (a *app) close(ctx context.Context) error {
	var errs []error
	select {
	case <-a.stopPool:
	default:
		close(a.stopPool)
	}
	if a.relay != nil {
		errs = append(errs, a.relay.Stop(ctx))
	}
	if a.cron != nil {
		errs = append(errs, a.cron.Stop())
	}
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.pool.Close())
	return errors.Join(errs...)
}
