// Package app wires the token engine from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"

	"go.pilab.hu/oauth2/cache"
	"go.pilab.hu/oauth2/cache/bolt"
	"go.pilab.hu/oauth2/cache/redis"
	"go.pilab.hu/oauth2/client"
	"go.pilab.hu/oauth2/config"
	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/internal/audit"
	"go.pilab.hu/oauth2/internal/metrics"
	"go.pilab.hu/oauth2/log"
	"go.pilab.hu/oauth2/mongodb"
	"go.pilab.hu/oauth2/services"
)

// App holds the engine and its backing resources.
type App struct {
	Config    *config.Config
	Logger    log.Logger
	Audit     *audit.Logger
	Metrics   *metrics.Metrics
	Tokens    *services.TokenService
	Validator *services.Validator
	Clients   *client.ClientService

	closers []func(context.Context) error
	db      *mongo.Database
}

// Option customizes New.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	tokenOpts  []services.TokenServiceOption
}

// WithRegisterer registers the engine metrics on reg instead of a private
// registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTokenOptions passes extra options to the token service.
func WithTokenOptions(opts ...services.TokenServiceOption) Option {
	return func(o *options) { o.tokenOpts = append(o.tokenOpts, opts...) }
}

// New builds the storage backend, the client registry and the engine
// described by cfg. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger log.Logger, opts ...Option) (_ *App, err error) {
	o := options{registerer: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger, Audit: audit.New(logger)}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Metrics, err = metrics.New(o.registerer)
	if err != nil {
		return nil, err
	}

	store, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := a.openRegistry(ctx)
	if err != nil {
		return nil, err
	}

	registry := client.WithDefaults(clients, cfg.ClientDefaults())

	tokenOpts := append([]services.TokenServiceOption{
		services.WithTokenName(cfg.TokenName),
		services.WithLogger(logger),
		services.WithMetrics(a.Metrics),
	}, o.tokenOpts...)

	a.Tokens = services.NewTokenService(store, registry, tokenOpts...)
	a.Validator = services.NewValidator(registry, a.Tokens,
		services.WithValidatorLogger(logger),
		services.WithValidatorMetrics(a.Metrics),
	)
	a.Clients = client.NewClientService(clients, client.WithAudit(a.Audit))

	logger.Debug(ctx, "engine ready", log.Fields{
		"storage":  cfg.Storage.Driver,
		"registry": cfg.Registry.Driver,
	})

	return a, nil
}

func (a *App) openStorage(ctx context.Context) (domain.Storage, error) {
	sc := a.Config.Storage

	switch sc.Driver {
	case config.DriverMemory:
		raw := cache.NewMemoryStore()
		a.onClose(func(context.Context) error { return raw.Close() })

		return cache.NewStorage(raw), nil

	case config.DriverRedis:
		raw, err := redis.Connect(ctx, redis.Options{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return raw.Close() })

		return cache.NewStorage(raw), nil

	case config.DriverBolt:
		raw, err := bolt.Open(sc.Bolt.Path, sc.Bolt.CleanupInterval, a.Logger)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return raw.Close() })
		raw.StartCleanupRoutine(ctx)

		return cache.NewStorage(raw), nil

	case config.DriverMongo:
		db, err := a.mongo(ctx)
		if err != nil {
			return nil, err
		}

		raw, err := mongodb.NewKVStore(ctx, db)
		if err != nil {
			return nil, err
		}

		return cache.NewStorage(raw), nil
	}

	return nil, fmt.Errorf("unsupported storage driver: %q", sc.Driver)
}

func (a *App) openRegistry(ctx context.Context) (client.ClientStore, error) {
	switch a.Config.Registry.Driver {
	case config.RegistryStatic:
		return client.NewMemoryRegistry(a.Config.OpenidDigestPrefix, a.Config.Clients...), nil

	case config.RegistryMongo:
		db, err := a.mongo(ctx)
		if err != nil {
			return nil, err
		}

		repo, err := mongodb.NewClientRepository(ctx, db, a.Config.OpenidDigestPrefix)
		if err != nil {
			return nil, err
		}

		for i := range a.Config.Clients {
			if err := repo.SaveClient(ctx, &a.Config.Clients[i]); err != nil {
				return nil, fmt.Errorf("failed to seed client %s: %w", a.Config.Clients[i].ClientID, err)
			}
		}

		return repo, nil
	}

	return nil, fmt.Errorf("unsupported registry driver: %q", a.Config.Registry.Driver)
}

// mongo connects once and shares the database between storage and registry.
func (a *App) mongo(ctx context.Context) (*mongo.Database, error) {
	if a.db != nil {
		return a.db, nil
	}

	db, err := mongodb.Connect(ctx, a.Config.Storage.Mongo.URI, a.Config.Storage.Mongo.Database, a.Logger)
	if err != nil {
		return nil, err
	}

	a.db = db
	a.onClose(func(ctx context.Context) error { return mongodb.Disconnect(ctx, db) })

	return db, nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases the backends in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
