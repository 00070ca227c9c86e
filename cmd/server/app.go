package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/cache"
	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-booking/internal/adapter/lock"
	"github.com/seu-repo/sigec-booking/internal/adapter/queue"
	"github.com/seu-repo/sigec-booking/internal/adapter/storage/memory"
	"github.com/seu-repo/sigec-booking/internal/adapter/storage/postgres"
	"github.com/seu-repo/sigec-booking/internal/adapter/storage/seed"
	"github.com/seu-repo/sigec-booking/internal/adapter/vault"
	"github.com/seu-repo/sigec-booking/internal/domain"
	"github.com/seu-repo/sigec-booking/internal/observability/telemetry"
	"github.com/seu-repo/sigec-booking/internal/ports"
	"github.com/seu-repo/sigec-booking/internal/service/availability"
	"github.com/seu-repo/sigec-booking/internal/service/catalog"
	"github.com/seu-repo/sigec-booking/internal/service/health"
	"github.com/seu-repo/sigec-booking/internal/service/lifecycle"
	"github.com/seu-repo/sigec-booking/internal/service/pricing"
	"github.com/seu-repo/sigec-booking/internal/service/reassignment"
	"github.com/seu-repo/sigec-booking/internal/service/reservation"
	"github.com/seu-repo/sigec-booking/pkg/config"
)

// repositories groups the storage ports of one driver
type repositories struct {
	points        ports.ChargingPointRepository
	vehicles      ports.VehicleRepository
	reservations  ports.ReservationRepository
	sessions      ports.SessionRepository
	fees          ports.FeeRepository
	reassignments ports.ReassignmentRepository
	tx            ports.Transactor
	sqlDB         *sql.DB
}

// application holds the wired services and the resources to release on exit
type application struct {
	cfg *config.Config
	log *zap.Logger

	catalog     *catalog.Service
	ledger      *reservation.Service
	finder      *availability.Finder
	coordinator *reassignment.Coordinator
	monitor     *lifecycle.Monitor
	health      *health.Service
	verifier    *middleware.JWTVerifier

	closers []func() error
}

func newApplication(ctx context.Context, cfg *config.Config, log *zap.Logger) (a *application, err error) {
	a = &application{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := resolveSecrets(ctx, cfg, log); err != nil {
		return nil, err
	}

	if cfg.OpenTelemetry.Enabled {
		tp, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName, cfg.App.Version,
			cfg.OpenTelemetry.Jaeger.Endpoint, cfg.OpenTelemetry.Jaeger.SamplerParam)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		a.onClose(shutdownTracer(tp))
		log.Info("Tracing enabled", zap.String("endpoint", cfg.OpenTelemetry.Jaeger.Endpoint))
	}

	repos, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis.URL, log)
		if err != nil {
			return nil, err
		}
		a.onClose(redisClient.Close)
	}

	var catalogCache ports.Cache
	if redisClient != nil {
		catalogCache = cache.NewRedisCache(redisClient, cfg.Redis.KeyPrefix, log)
	} else {
		local := cache.NewLocalCache(cfg.Cache.CleanupInterval, cfg.Cache.MaxEntries, log)
		a.onClose(local.Close)
		catalogCache = local
	}

	var locker ports.PointLocker
	switch cfg.Storage.Locker {
	case "redis":
		locker = lock.NewRedisLocker(redisClient, cfg.Scheduling.LockTTL, log)
	default:
		locker = lock.NewLocalLocker(log)
	}

	mq, err := queue.Open(cfg.Events.Driver, eventsURL(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("open event queue: %w", err)
	}
	a.onClose(mq.Close)
	events := queue.NewEventPublisher(mq, queue.BreakerSettings{
		MaxRequests:  uint32(cfg.CircuitBreaker.MaxRequests),
		Interval:     cfg.CircuitBreaker.Interval,
		Timeout:      cfg.CircuitBreaker.Timeout,
		FailureRatio: cfg.CircuitBreaker.FailureThreshold,
		MinRequests:  uint32(cfg.CircuitBreaker.MinRequests),
	}, log)

	pricingCfg, err := pricingConfig(cfg.Pricing)
	if err != nil {
		return nil, err
	}
	pricer := pricing.NewService(log, pricingCfg, nil)
	resCfg := reservationConfig(cfg)

	a.catalog = catalog.NewService(repos.points, repos.vehicles, catalogCache, cfg.Cache.CatalogTTL, log)
	a.ledger = reservation.NewService(reservation.Repositories{
		Reservations: repos.reservations,
		Sessions:     repos.sessions,
		Fees:         repos.fees,
		Points:       repos.points,
	}, a.catalog, pricer, locker, repos.tx, events, resCfg, penaltyPolicy(cfg.Penalties), log)
	a.finder = availability.NewFinder(a.catalog, repos.reservations, pricer, resCfg, log)
	a.coordinator = reassignment.NewCoordinator(repos.reservations, repos.points, repos.reassignments,
		a.catalog, locker, repos.tx, events, cfg.Scheduling.LockWaitTimeout, log)
	a.monitor = lifecycle.NewMonitor(a.ledger, repos.reservations, &lifecycle.Config{
		Interval:    cfg.Lifecycle.Interval,
		BatchSize:   cfg.Lifecycle.BatchSize,
		LockTimeout: cfg.Lifecycle.LockTimeout,
		GracePeriod: cfg.Lifecycle.GracePeriod,
	}, log)

	a.health = health.NewService(&health.Config{
		Version: cfg.App.Version,
		DB:      repos.sqlDB,
		Redis:   redisClient,
		Queue:   mq,
	}, log)

	if cfg.JWT.Secret != "" {
		a.verifier = middleware.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	}

	return a, nil
}

// openStorage builds the repositories for storage.driver. The memory store
// is seeded with the demo catalog when storage.seed_demo is set; PostgreSQL
// is only seeded by "migrate --seed-demo".
func (a *application) openStorage(ctx context.Context) (*repositories, error) {
	switch a.cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.NewConnection(a.cfg.Database.URL, poolOptions(a.cfg), a.log)
		if err != nil {
			return nil, err
		}
		a.onClose(func() error { return postgres.Close(db) })

		if a.cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(ctx, db, a.log); err != nil {
				return nil, err
			}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB: %w", err)
		}
		return &repositories{
			points:        postgres.NewChargingPointRepository(db, a.log),
			vehicles:      postgres.NewVehicleRepository(db),
			reservations:  postgres.NewReservationRepository(db, a.log),
			sessions:      postgres.NewSessionRepository(db),
			fees:          postgres.NewFeeRepository(db),
			reassignments: postgres.NewReassignmentRepository(db),
			tx:            postgres.NewTransactor(db),
			sqlDB:         sqlDB,
		}, nil

	default:
		store := memory.NewStore()
		if a.cfg.Storage.SeedDemo {
			seed.LoadMemory(store, seed.Demo())
			a.log.Info("Demo catalog loaded into memory store")
		}
		return &repositories{
			points:        memory.NewChargingPointRepository(store),
			vehicles:      memory.NewVehicleRepository(store),
			reservations:  memory.NewReservationRepository(store),
			sessions:      memory.NewSessionRepository(store),
			fees:          memory.NewFeeRepository(store),
			reassignments: memory.NewReassignmentRepository(store),
			tx:            memory.NewTransactor(store),
		}, nil
	}
}

func (a *application) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Failed to release resource", zap.Error(err))
		}
	}
	a.closers = nil
}

// resolveSecrets fills the database URL and JWT secret from Vault when they
// are not set in the configuration.
func resolveSecrets(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}
	sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Mount)
	if err != nil {
		return fmt.Errorf("init vault client: %w", err)
	}

	if cfg.Database.URL == "" && cfg.Storage.Driver == "postgres" {
		url, err := sm.GetDatabaseURL(ctx)
		if err != nil {
			return fmt.Errorf("read database url from vault: %w", err)
		}
		cfg.Database.URL = url
		log.Info("Database URL loaded from Vault")
	}
	if cfg.JWT.Secret == "" {
		secret, err := sm.GetJWTSecret(ctx)
		if err != nil {
			return fmt.Errorf("read jwt secret from vault: %w", err)
		}
		cfg.JWT.Secret = secret
		log.Info("JWT secret loaded from Vault")
	}
	return nil
}

func shutdownTracer(tp *sdktrace.TracerProvider) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
}

func eventsURL(cfg *config.Config) string {
	switch cfg.Events.Driver {
	case "nats":
		return cfg.NATS.URL
	case "rabbitmq":
		return cfg.RabbitMQ.URL
	}
	return ""
}

func poolOptions(cfg *config.Config) postgres.PoolOptions {
	return postgres.PoolOptions{
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogSQL:          cfg.Database.LogQueries,
	}
}

func reservationConfig(cfg *config.Config) *domain.ReservationConfig {
	return &domain.ReservationConfig{
		Horizon:          cfg.Scheduling.Horizon,
		SlotGranularity:  cfg.Scheduling.SlotGranularity,
		MaxAdvance:       cfg.Scheduling.MaxAdvance,
		EarlyStartWindow: cfg.Scheduling.EarlyStartWindow,
		GracePeriod:      cfg.Lifecycle.GracePeriod,
		LockWaitTimeout:  cfg.Scheduling.LockWaitTimeout,
	}
}

// penaltyPolicy converts the validated percent strings. Validate has already
// rejected values that do not parse.
func penaltyPolicy(p config.PenaltiesConfig) domain.PenaltyPolicy {
	return domain.PenaltyPolicy{
		NoShowPercent:         decimal.RequireFromString(p.NoShowPercent),
		LateCancelPercent:     decimal.RequireFromString(p.LateCancelPercent),
		LateCancelWindow:      p.LateCancelWindow,
		OvertimeRatePerMinute: decimal.RequireFromString(p.OvertimeRatePerMinute),
	}
}

func pricingConfig(p config.PricingConfig) (*pricing.Config, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing timezone %q: %w", p.Timezone, err)
	}
	return &pricing.Config{
		PeakStartHour: p.PeakStartHour,
		PeakEndHour:   p.PeakEndHour,
		PeakFactor:    decimal.RequireFromString(p.PeakFactor),
		WeekendFactor: decimal.RequireFromString(p.WeekendFactor),
		Location:      loc,
	}, nil
}
