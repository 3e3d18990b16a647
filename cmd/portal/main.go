package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/recovery-portal/internal/api/http"
	"github.com/spec-kit/recovery-portal/internal/api/http/handlers"
	"github.com/spec-kit/recovery-portal/internal/auth"
	"github.com/spec-kit/recovery-portal/internal/config"
	"github.com/spec-kit/recovery-portal/internal/observability"
	"github.com/spec-kit/recovery-portal/internal/persistence"
	"github.com/spec-kit/recovery-portal/internal/session"
	"github.com/spec-kit/recovery-portal/internal/token"
	"github.com/spec-kit/recovery-portal/internal/upstream"
	"github.com/spec-kit/recovery-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	store, checks, closeStores, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to init session store", zap.Error(err))
	}
	defer closeStores()

	api := upstream.NewClient(cfg.Upstream, store, logger)
	sessions := session.NewManager(store, api, logger)
	api.BindInvalidator(sessions)

	sessions.Stream().Subscribe(func(event session.Event) {
		if event.Session == nil {
			logger.Info("session ended")
			return
		}
		logger.Info("session active",
			zap.String("username", event.Session.Username),
			zap.String("role", string(event.Session.Role)),
		)
	})

	// Redis expires records itself; the other backends need a sweep.
	if purger, ok := store.(worker.IdlePurger); ok {
		sweeper := worker.NewSessionSweeper(purger, cfg.Session.TTL(), time.Minute, logger)
		go sweeper.Run(ctx)
	}

	cookies := auth.NewCookieCodec(cfg.Session)
	guard := auth.NewGuard()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks),
		Auth:        handlers.NewAuthHandler(sessions, cookies, metrics, logger),
		Admin:       handlers.NewAdminHandler(api),
		Company:     handlers.NewCompanyHandler(api, sessions),
		SessionLoad: auth.LoadSession(sessions, cookies),
		Guard:       guard,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// buildStore selects the token store backend and readiness checks.
func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (token.Store, map[string]handlers.DependencyCheck, func(), error) {
	checks := map[string]handlers.DependencyCheck{}

	switch cfg.Session.Backend {
	case "redis":
		redis := persistence.NewRedis(cfg.Redis, logger)
		checks["redis"] = redis.Ping
		return token.NewRedisStore(redis.Client, cfg.Session.TTL()), checks, redis.Close, nil

	case "postgres":
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, func() {}, err
		}
		store := token.NewPostgresStore(pg.PoolHandle())
		if err := store.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, func() {}, err
		}
		checks["postgres"] = pg.Ping
		return store, checks, pg.Close, nil

	default:
		logger.Info("using in-memory session store")
		return token.NewMemoryStore(), checks, func() {}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
