package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/article-service/internal/api/http"
	"github.com/spec-kit/article-service/internal/api/http/handlers"
	"github.com/spec-kit/article-service/internal/auth"
	"github.com/spec-kit/article-service/internal/config"
	"github.com/spec-kit/article-service/internal/events"
	"github.com/spec-kit/article-service/internal/mail"
	"github.com/spec-kit/article-service/internal/observability"
	"github.com/spec-kit/article-service/internal/persistence"
	"github.com/spec-kit/article-service/internal/service"
	"github.com/spec-kit/article-service/internal/worker"
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

	codecs, err := auth.NewCodecs(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		logger.Fatal("invalid token configuration", zap.Error(err))
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if cfg.Postgres.LoadFixtures {
		if err := persistence.LoadFixtures(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to load fixtures", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	accountService := service.NewAccountService(service.AccountDependencies{
		Codes:      redis,
		Mailer:     mail.NewSender(cfg.Mail, logger),
		Hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Codecs:     codecs,
		Dispatcher: dispatcher,
		Logger:     logger,
	}, cfg.Auth.VerifyCodeTTLSeconds)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics,
			handlers.Dependency{Name: "postgres", Check: pg.Ping},
			handlers.Dependency{Name: "redis", Check: redis.Ping},
		),
		Accounts:       handlers.NewAccountsHandler(accountService),
		Categories:     handlers.NewCategoriesHandler(),
		Articles:       handlers.NewArticlesHandler(),
		AuthMiddleware: auth.NewAuthMiddleware(codecs),
		Pool:           pg.PoolHandle(),
		Logger:         logger,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
