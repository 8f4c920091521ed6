package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/Temirlan0k/ride-dispatch/config"
	"github.com/Temirlan0k/ride-dispatch/internal/adapter/geo"
	httpserver "github.com/Temirlan0k/ride-dispatch/internal/adapter/http/server"
	rabbitadapter "github.com/Temirlan0k/ride-dispatch/internal/adapter/rabbit"
	wsadapter "github.com/Temirlan0k/ride-dispatch/internal/adapter/ws"
	"github.com/Temirlan0k/ride-dispatch/internal/dispatch"
	"github.com/Temirlan0k/ride-dispatch/internal/service/auth"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	wrap "github.com/Temirlan0k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temirlan0k/ride-dispatch/pkg/postgres"
	"github.com/Temirlan0k/ride-dispatch/pkg/rabbit"
	"github.com/Temirlan0k/ride-dispatch/pkg/trm"
	wsHub "github.com/Temirlan0k/ride-dispatch/pkg/wsHub"

	pgadapter "github.com/Temirlan0k/ride-dispatch/internal/adapter/postgres"
)

type App struct {
	api *httpserver.API
	hub *wsHub.ConnectionHub

	db     *postgres.PostgreDB
	rds    *redis.Client
	broker *rabbit.RabbitMQ // nil when disabled

	cfg config.Config
	log logger.Logger
}

// NewApplication wires storage, broker, dispatch core and the HTTP surface.
func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	rds := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rds.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var broker *rabbit.RabbitMQ
	var publisher dispatch.EventPublisher
	if cfg.RabbitMQ.Enabled {
		broker, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}

		publisher, err = rabbitadapter.NewRidePublisher(broker)
		if err != nil {
			return nil, fmt.Errorf("failed to init ride publisher: %w", err)
		}
	}

	hub := wsHub.NewConnHub(log)

	coordinator := dispatch.NewCoordinator(
		pgadapter.NewRideRepo(db.Pool),
		pgadapter.NewDriverRepo(db.Pool),
		geo.NewRedisLocator(rds),
		hub,
		publisher,
		trm.New(db.Pool),
		dispatch.Config{
			SearchRadiusKm: cfg.Dispatch.SearchRadiusKm,
			MaxCandidates:  cfg.Dispatch.MaxCandidates,
		},
		log,
	)

	verifier := auth.New(cfg.Auth.JWTSecret, log)
	router := wsadapter.NewRouter(coordinator, log)
	wsHandler := wsadapter.NewHandler(hub, verifier, router, log)

	api := httpserver.New(cfg.Server, coordinator, wsHandler, log)

	return &App{
		api:    api,
		hub:    hub,
		db:     db,
		rds:    rds,
		broker: broker,
		cfg:    cfg,
		log:    log,
	}, nil
}

// Run starts the HTTP server and blocks until a shutdown signal or a fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	a.api.Run(ctx, errCh)

	select {
	case <-ctx.Done():
		a.log.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		a.Close(context.Background())
		return err
	}

	a.Close(context.Background())

	return nil
}

// Close releases every held resource; safe to call once.
func (a *App) Close(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "app_close")

	if err := a.api.Stop(ctx); err != nil {
		a.log.Warn(ctx, "failed to stop http server", "err", err.Error())
	}

	a.hub.Close()

	if a.broker != nil {
		if err := a.broker.Close(); err != nil {
			a.log.Warn(ctx, "failed to close rabbitmq", "err", err.Error())
		}
	}

	if err := a.rds.Close(); err != nil {
		a.log.Warn(ctx, "failed to close redis client", "err", err.Error())
	}

	a.db.Pool.Close()

	a.log.Info(ctx, "application stopped")
}
