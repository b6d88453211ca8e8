package tasktracker

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-документа для /docs.
	_ "github.com/magabrotheeeer/task-tracker/docs"
	"github.com/magabrotheeeer/task-tracker/internal/config"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/task/create"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/task/list"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/task/read"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/task/remove"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/task/update"
	"github.com/magabrotheeeer/task-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/task-tracker/internal/http/response"
	"github.com/magabrotheeeer/task-tracker/internal/services/auth"
	"github.com/magabrotheeeer/task-tracker/internal/services/task"
)

// Services — зависимости, из которых собираются маршруты.
type Services struct {
	Auth     *auth.AuthService
	Tasks    *task.TaskService
	Sessions middlewarectx.SessionVerifier
	Health   http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)
	if cfg.Env == config.EnvProd {
		r.Use(response.HideInternalErrors)
	}

	// Открытые конечные точки с ограничением частоты
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth, login.Options{
			CookieName:    cfg.CookieName,
			CookieSecure:  cfg.CookieSecure,
			GenericErrors: cfg.GenericLoginErrors,
		}).ServeHTTP)
	})

	// Группа с проверкой сессии
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.SessionMiddleware(svc.Sessions, cfg.CookieName, logger))
		r.Post("/logout", logout.New(logger, svc.Auth, cfg.CookieName, cfg.CookieSecure).ServeHTTP)
		r.Get("/tasks", list.New(logger, svc.Tasks).ServeHTTP)
		r.Post("/tasks", create.New(logger, svc.Tasks).ServeHTTP)
		r.Get("/tasks/{id}", read.New(logger, svc.Tasks).ServeHTTP)
		r.Put("/tasks/{id}", update.New(logger, svc.Tasks).ServeHTTP)
		r.Delete("/tasks/{id}", remove.New(logger, svc.Tasks).ServeHTTP)
	})

	r.Get("/health", svc.Health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
