package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/article-service/internal/api/http/handlers"
	"github.com/spec-kit/article-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Accounts       *handlers.AccountsHandler
	Categories     *handlers.CategoriesHandler
	Articles       *handlers.ArticlesHandler
	AuthMiddleware *auth.AuthMiddleware
	Pool           *pgxpool.Pool
	Logger         *zap.Logger
	// UnitOfWork binds repositories to each /api/v1 request. Defaults to
	// one scope per request acquired from Pool.
	UnitOfWork fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	unitOfWork := cfg.UnitOfWork
	if unitOfWork == nil {
		unitOfWork = unitOfWorkMiddleware(cfg.Pool, cfg.Logger)
	}

	api := app.Group("/api/v1", unitOfWork)
	api.Post("/signup", cfg.Accounts.Signup)
	api.Post("/verify", cfg.Accounts.Verify)
	api.Post("/login", cfg.Accounts.Login)

	api.Get("/categories", cfg.Categories.List)
	api.Get("/categories/:id", cfg.Categories.Get)
	api.Get("/articles", cfg.Articles.List)
	api.Get("/articles/:id", cfg.Articles.Get)

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequirePrincipal()}
	api.Get("/me", chain(authenticated, cfg.Accounts.Me)...)

	verified := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireVerified()}
	api.Post("/categories", chain(verified, cfg.Categories.Create)...)
	api.Patch("/categories/:id", chain(verified, cfg.Categories.Patch)...)
	api.Delete("/categories/:id", chain(verified, cfg.Categories.Delete)...)
	api.Post("/articles", chain(verified, cfg.Articles.Create)...)
	api.Patch("/articles/:id", chain(verified, cfg.Articles.Patch)...)
	api.Delete("/articles/:id", chain(verified, cfg.Articles.Delete)...)
}

// chain attaches middlewares to a single route. Group middlewares would also
// run for unmatched paths under the prefix.
func chain(middlewares []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(middlewares)+1)
	out = append(out, middlewares...)
	return append(out, handler)
}
