package talent

import (
	"context"
	"errors"
	"fmt"

	config "github.com/BANSEOKCHA/my-yks-app/internal/config"
	db "github.com/BANSEOKCHA/my-yks-app/internal/db"
	events "github.com/BANSEOKCHA/my-yks-app/internal/external/nats"
	interf "github.com/BANSEOKCHA/my-yks-app/internal/interfaces"
	service "github.com/BANSEOKCHA/my-yks-app/internal/services"
	observability "github.com/BANSEOKCHA/my-yks-app/observability/otel"
	"go.uber.org/zap"
)

// Services shared by the server and the queue consumers
type App struct {
	Cfg       *config.Config
	Logger    *zap.Logger
	Storage   interf.Storage
	Cache     *db.CacheService
	Rewards   *service.RewardService
	Community *service.CommunityService

	events  *events.EventPublisher
	cleanup []func(context.Context) error
}

func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// New wires storage, optional cache, optional events and tracing. On error
// everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Cfg: cfg, Logger: logger}

	steps := []func(context.Context) error{
		app.initTracer,
		app.initStorage,
		app.initCache,
		app.initEvents,
		app.initServices,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, errors.Join(err, app.Close(ctx))
		}
	}
	return app, nil
}

func (a *App) initTracer(ctx context.Context) error {
	if a.Cfg.Otel.Endpoint == "" {
		return nil
	}
	shutdown, err := observability.InitTracer(ctx, a.Cfg.Otel.Endpoint, a.Cfg.Otel.ServiceName, a.Logger)
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, shutdown)
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.Cfg.Store.Driver {
	case "mongo":
		store, err := db.NewMongoDB(a.Cfg.Store.Mongo.URI, a.Cfg.Store.Mongo.Database, a.Cfg.Store.Mongo.Transactions)
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		a.Storage = store
	case "postgres":
		store, err := db.NewPostgresDB(ctx, a.Cfg.Store.Postgres.DSN, a.Logger)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		a.Storage = store
	default:
		a.Logger.Warn("memory store in use, data is lost on restart")
		a.Storage = db.NewMemoryDB()
	}
	a.cleanup = append(a.cleanup, a.Storage.Close)
	a.Logger.Info("storage ready", zap.String("driver", a.Cfg.Store.Driver))
	return nil
}

// Cache failures are not fatal; the leaderboard falls back to the store
func (a *App) initCache(ctx context.Context) error {
	if a.Cfg.Redis.Addr == "" {
		return nil
	}
	cache, err := db.NewCacheService(a.Cfg.Redis.Addr, a.Cfg.Redis.Username, a.Cfg.Redis.Password)
	if err != nil {
		a.Logger.Error("redis unavailable, leaderboard served from store", zap.Error(err))
		return nil
	}
	a.Cache = cache
	a.cleanup = append(a.cleanup, func(context.Context) error { return cache.Close() })
	return nil
}

func (a *App) initEvents(ctx context.Context) error {
	if a.Cfg.NATS.URL == "" {
		return nil
	}
	pub, err := events.NewEventPublisher(ctx, a.Cfg.NATS.URL, a.Cfg.NATS.Stream, a.Cfg.NATS.Subject, a.Logger)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	a.events = pub
	a.cleanup = append(a.cleanup, func(context.Context) error { return pub.Close() })
	return nil
}

func (a *App) initServices(ctx context.Context) error {
	loc, err := a.Cfg.Location()
	if err != nil {
		return err
	}
	policy, err := a.Cfg.Rewards.Policy()
	if err != nil {
		return err
	}

	opts := []service.RewardOption{service.WithMaxRetries(a.Cfg.Rewards.MaxRetries)}
	var cache interf.ScoreCache
	if a.Cache != nil {
		cache = a.Cache
		opts = append(opts, service.WithScoreCache(a.Cache))
	}
	if a.events != nil {
		opts = append(opts, service.WithEventPublisher(a.events))
	}
	a.Rewards = service.NewRewardService(a.Logger, service.NewRuleEngine(loc), policy,
		a.Storage, a.Storage, a.Storage, opts...)

	if a.Cfg.Rewards.Checkin.Secret == "" {
		a.Logger.Warn("rewards.checkin.secret is empty, QR check-in is closed")
	}
	a.Community = service.NewCommunityService(a.Logger, service.CommunityConfig{
		AdminEmails:   a.Cfg.Community.AdminEmails,
		Cells:         a.Cfg.Community.Cells,
		CellOrder:     a.Cfg.Community.CellOrder,
		MinPostLength: a.Cfg.Community.MinPostLength,
		CheckinSecret: a.Cfg.Rewards.Checkin.Secret,
	}, a.Storage, a.Rewards, cache)
	return nil
}

// Close runs cleanups in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	return errors.Join(errs...)
}
