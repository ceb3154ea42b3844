package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"streamnotifier/internal/config"
	"streamnotifier/internal/repository"
	"streamnotifier/internal/service"
	httpt "streamnotifier/internal/transport/http"
	"streamnotifier/internal/transport/sender"
	"streamnotifier/pkg/logger"
	"streamnotifier/pkg/postgres"
	"streamnotifier/pkg/storage/redis"
)

// Container holds the wired dependencies shared by every entry point.
type Container struct {
	Notify   *service.NotifyService
	Records  *service.RecordService
	Settings *service.SettingsService

	db  *postgres.Postgres
	rdb *redis.Redis
	log logger.Logger
}

// Build connects to the stores and wires the services. Callers must Close
// the returned container.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Container, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("app.Build: timezone: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err = Migrate(cfg, log); err != nil {
			return nil, err
		}
	}

	db, err := initDatabase(ctx, &cfg.Database, log)
	if err != nil {
		return nil, err
	}
	c := &Container{db: db, log: log}

	tm, err := initTransactionManager(db, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	historyCache, err := c.initHistoryCache(ctx, &cfg.Cache, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	whatsapp := initSender(&cfg.Gateway, log)

	settingsRepo := repository.NewSettingsRepository(db)
	c.Notify, err = service.NewNotifyService(
		repository.NewNotifyRepository(db),
		repository.NewSubscriptionRepository(db),
		settingsRepo,
		whatsapp,
		log.With("component", "notify service"),
		service.WithLocation(loc),
		service.WithHistoryCache(historyCache),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("app.Build: %w", err)
	}

	c.Records = service.NewRecordService(
		repository.NewClientRepository(db),
		repository.NewProviderRepository(db),
		repository.NewSubscriptionRepository(db),
		log.With("component", "record service"),
		loc,
		service.WithRecordHistoryCache(historyCache),
	)
	c.Settings = service.NewSettingsService(settingsRepo, tm, whatsapp, log.With("component", "settings service"))

	return c, nil
}

func (c *Container) Close() {
	if c.rdb != nil {
		if err := c.rdb.Close(); err != nil {
			c.log.Warnw("redis close failed", "error", err)
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.log.Warnw("database close failed", "error", err)
		}
	}
}

// Run serves the HTTP API until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	c, err := Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	eg, ctx := errgroup.WithContext(ctx)

	if err = initHTTPServer(ctx, eg, &cfg.HTTP, c, log); err != nil {
		return err
	}

	return waitForShutdown(eg)
}

// Generate runs one generator pass, for use from cron.
func Generate(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.GenerationResult, error) {
	c, err := Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	res, err := c.Notify.GenerateAutomatic(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Generate: %w", err)
	}
	return res, nil
}

// Dispatch runs one dispatcher pass, for use from cron.
func Dispatch(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.DispatchResult, error) {
	c, err := Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	res, err := c.Notify.DispatchPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("app.Dispatch: %w", err)
	}
	return res, nil
}

// Migrate applies pending schema migrations.
func Migrate(cfg *config.Config, log logger.Logger) error {
	start := time.Now()
	if err := postgres.MigrateUp(cfg.Database.DSN, cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("app.Migrate: %w", err)
	}
	log.Infow("migrations applied",
		"source", cfg.Database.MigrationsPath,
		"duration", time.Since(start),
	)
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Database, log logger.Logger) (*postgres.Postgres, error) {
	db, err := postgres.New(
		ctx,
		cfg.DSN,
		log.With("component", "database"),
		postgres.MaxPoolSize(cfg.PoolMax),
		postgres.MaxConnAttempts(cfg.ConnAttempts),
		postgres.BaseRetryDelay(cfg.BaseRetryDelay),
		postgres.RetryBackoff(cfg.RetryBackoff),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initDatabase: %w", err)
	}
	return db, nil
}

func initTransactionManager(db *postgres.Postgres, log logger.Logger) (postgres.Manager, error) {
	tm, err := postgres.NewManager(db, log)
	if err != nil {
		return nil, fmt.Errorf("app.initTransactionManager: %w", err)
	}
	return tm, nil
}

func (c *Container) initHistoryCache(
	ctx context.Context,
	cfg *config.Cache,
	log logger.Logger,
) (service.HistoryCache, error) {
	if !cfg.Enabled() {
		log.Infow("redis address not set, history cache disabled")
		return repository.NoopHistoryCache{}, nil
	}

	rdb, err := redis.New(
		ctx,
		cfg.Addr,
		cfg.Password,
		cfg.DB,
		redis.PoolSize(cfg.PoolSize),
		redis.MinIdleConns(cfg.MinIdleConns),
		redis.PoolTimeout(cfg.PoolTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("app.initHistoryCache: %w", err)
	}
	c.rdb = rdb

	return repository.NewHistoryCache(rdb, cfg.HistoryTTL), nil
}

func initSender(cfg *config.Gateway, log logger.Logger) *sender.WhatsAppSender {
	return sender.NewWhatsAppSender(
		log.With("component", "whatsapp sender"),
		sender.WithTimeout(cfg.Timeout),
	)
}

func initHTTPServer(
	ctx context.Context,
	eg *errgroup.Group,
	cfg *config.HTTP,
	c *Container,
	log logger.Logger,
) error {
	handler, err := httpt.NewHandler(c.Notify, c.Records, c.Settings, log.With("component", "http"))
	if err != nil {
		return fmt.Errorf("app.initHTTPServer: %w", err)
	}

	httpServer, err := httpt.NewHTTPServer(handler, cfg, log.With("component", "http server"))
	if err != nil {
		return fmt.Errorf("app.initHTTPServer: %w", err)
	}

	eg.Go(func() error {
		return httpServer.Start(ctx)
	})
	return nil
}

func waitForShutdown(eg *errgroup.Group) error {
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app.waitForShutdown: application failed: %w", err)
	}
	return nil
}
