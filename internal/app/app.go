// Package app assembles the resolution service from configuration. The
// server and the operator CLI share it so both resolve against the same
// store, cache, provider and audit stream.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"idlookup/internal/audit"
	"idlookup/internal/holidays"
	"idlookup/internal/holidays/providers/calendarific"
	identitymetrics "idlookup/internal/identity/metrics"
	"idlookup/internal/identity/service"
	"idlookup/internal/identity/store"
	"idlookup/internal/platform/config"
	"idlookup/internal/platform/database"
	"idlookup/internal/platform/kafka/producer"
	"idlookup/internal/platform/metrics"
	redisplatform "idlookup/internal/platform/redis"
	"idlookup/internal/platform/tracer"
	"idlookup/pkg/platform/circuit"
)

// Producer delivery settings for the audit stream.
const (
	auditAcks            = "all"
	auditDeliveryTimeout = 10 * time.Second
	auditPartitions      = 3
	auditReplication     = 1
)

// App holds the assembled service and the infrastructure it owns.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Registry
	Service *service.Service

	db       *database.Pool
	redis    *redisplatform.Client
	producer *producer.Producer
	async    *audit.AsyncSink
	memory   *audit.MemorySink
}

// Option configures Build.
type Option func(*options)

type options struct {
	tracer tracer.Tracer
}

// WithTracer selects the span backend; the default is the noop tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// Build connects every configured backend and wires the service. Unset
// backends fall back to in-process implementations. On error, anything
// already opened is closed.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, reg *metrics.Registry, opts ...Option) (_ *App, err error) {
	o := options{tracer: tracer.NewNoop()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger, Metrics: reg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	identityMetrics := identitymetrics.New(reg.Registerer())

	identityStore, err := a.buildStore(ctx, identityMetrics)
	if err != nil {
		return nil, err
	}

	sink, err := a.buildAuditSink(ctx)
	if err != nil {
		return nil, err
	}

	client := calendarific.New(cfg.Holidays.BaseURL, cfg.Holidays.APIKey,
		calendarific.WithTimeout(cfg.Holidays.FetchTimeout),
		calendarific.WithLogger(logger),
	)
	source := holidays.NewGuardedSource(client,
		circuit.New(calendarific.ProviderID,
			circuit.WithFailureThreshold(cfg.Holidays.BreakerFailures),
			circuit.WithCooldown(cfg.Holidays.BreakerCooldown),
		),
		logger,
	)
	if cfg.Holidays.APIKey == "" {
		logger.Warn("CALENDARIFIC_API_KEY not set; holiday enrichment will return empty results")
	}

	svc, err := service.New(identityStore, source,
		service.WithLogger(logger),
		service.WithMetrics(identityMetrics),
		service.WithTracer(o.tracer),
		service.WithAuditPublisher(audit.NewPublisher(sink)),
		service.WithCountry(cfg.Holidays.Country),
		service.WithStoreTimeout(cfg.Identity.StoreTimeout),
		service.WithFetchTimeout(cfg.Holidays.FetchTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("build identity service: %w", err)
	}
	a.Service = svc
	return a, nil
}

func (a *App) buildStore(ctx context.Context, m *identitymetrics.Metrics) (store.Store, error) {
	var backing store.Store = store.NewInMemoryStore()

	pool, err := database.New(ctx, a.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if pool != nil {
		a.db = pool
		if err := pool.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.Metrics.RegisterDBStats(pool.DB(), "idlookup")
		backing = store.NewPostgresStore(pool.DB())
		a.Logger.Info("identity store: postgres")
	} else {
		a.Logger.Warn("DATABASE_URL not set; identities are kept in memory")
	}

	client, err := redisplatform.New(ctx, a.Config.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if client == nil {
		return backing, nil
	}
	a.redis = client
	a.Logger.Info("identity projection cache: redis", "ttl", a.Config.Identity.CacheTTL.String())
	return store.NewCachedStore(backing, client,
		store.WithCacheTTL(a.Config.Identity.CacheTTL),
		store.WithCacheLogger(a.Logger),
		store.WithCacheMetrics(m),
	), nil
}

func (a *App) buildAuditSink(ctx context.Context) (audit.Sink, error) {
	if !a.Config.Kafka.Enabled() {
		a.memory = audit.NewMemorySink(audit.DefaultMemoryCapacity)
		return audit.MultiSink{a.memory, audit.NewLogSink(a.Logger)}, nil
	}

	p, err := producer.New(producer.Config{
		Brokers:         a.Config.Kafka.Brokers,
		Acks:            auditAcks,
		DeliveryTimeout: auditDeliveryTimeout,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	a.producer = p

	if err := p.EnsureTopic(ctx, a.Config.Kafka.AuditTopic, auditPartitions, auditReplication); err != nil {
		a.Logger.Warn("could not ensure audit topic", "topic", a.Config.Kafka.AuditTopic, "error", err)
	}
	a.async = audit.NewAsyncSink(audit.NewKafkaSink(p, a.Config.Kafka.AuditTopic), audit.DefaultBufferSize, a.Logger)
	return a.async, nil
}

// RunBackground forwards queued audit events until ctx is cancelled.
func (a *App) RunBackground(ctx context.Context) error {
	if a.async == nil {
		<-ctx.Done()
		return nil
	}
	return a.async.Run(ctx)
}

// FlushAudit forwards whatever is queued. Short-lived callers that never run
// the background loop use it, and the server calls it once HTTP shutdown has
// completed so events from the last requests are not lost.
func (a *App) FlushAudit(ctx context.Context) {
	if a.async == nil {
		return
	}
	a.async.Flush(ctx)
}

// AuditEvents returns the most recent events kept in process when no broker
// is configured.
func (a *App) AuditEvents() []audit.Event {
	if a.memory == nil {
		return nil
	}
	return a.memory.Events()
}

// Ready reports whether every configured backend answers.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Healthy(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases backends in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	if a.producer != nil {
		errs = append(errs, a.producer.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
