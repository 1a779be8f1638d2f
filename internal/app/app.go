package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evbook/evbook-go/internal/config"
	"github.com/evbook/evbook-go/internal/postgres"
	"github.com/evbook/evbook-go/internal/redis"
	postgresrepo "github.com/evbook/evbook-go/internal/repository/postgres"
	redisrepo "github.com/evbook/evbook-go/internal/repository/redis"
	"github.com/evbook/evbook-go/internal/service"
	httpgin "github.com/evbook/evbook-go/internal/transport/http/gin"
)

// App owns the process lifecycle: the store handle is opened here, passed
// explicitly down the stack, and closed on shutdown.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	shutdown   func()
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisrepo.NewEventsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "evbook:v1:rl", cfg.Booking.RateLimit, cfg.Booking.RateWindow)
	idem := redisrepo.NewIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL)

	services := service.NewServices(store, cache, pubsub, limiter, service.Config{})

	router := httpgin.NewRouter(services, idem, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		shutdown: func() {
			pgxPool.Close()
			_ = rdb.Close()
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.shutdown()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
