// Package tasktracker собирает HTTP-приложение трекера задач: хранилище,
// сервисы, маршруты и сервер.
package tasktracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/task-tracker/internal/cache"
	"github.com/magabrotheeeer/task-tracker/internal/config"
	"github.com/magabrotheeeer/task-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/task-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/task-tracker/internal/lib/password"
	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/task-tracker/internal/migrations"
	"github.com/magabrotheeeer/task-tracker/internal/rabbitmq"
	"github.com/magabrotheeeer/task-tracker/internal/services/auth"
	"github.com/magabrotheeeer/task-tracker/internal/services/session"
	"github.com/magabrotheeeer/task-tracker/internal/services/task"
	"github.com/magabrotheeeer/task-tracker/internal/storage/memory"
	"github.com/magabrotheeeer/task-tracker/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// Store объединяет операции хранилища, нужные сервисам.
type Store interface {
	auth.UserRepository
	task.TaskRepository
	Ping(ctx context.Context) error
}

type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []io.Closer
}

// New поднимает зависимости по конфигу. Redis и RabbitMQ необязательны:
// пустой адрес отключает отзыв сессий и публикацию событий соответственно.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "tasktracker.New"
	app := &App{logger: logger}

	store, err := app.openStore(cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pingers := map[string]health.Pinger{"storage": store}

	var denylist session.Denylist
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, cacheRedis)
		denylist = cacheRedis
		pingers["redis"] = cacheRedis
	} else {
		logger.Warn("redis address is empty, session revocation disabled")
	}

	var events task.EventPublisher = task.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		publisher, err := app.openPublisher(cfg.RabbitMQ)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = publisher
	} else {
		logger.Warn("rabbitmq url is empty, task events disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	verifier := session.NewVerifier(jwtMaker, denylist)
	authService := auth.NewAuthService(store, password.NewHasher(cfg.PasswordCost), jwtMaker, verifier, logger)
	taskService := task.NewTaskService(store, events, logger, cfg.DefaultLimit, cfg.MaxLimit)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Services{
		Auth:     authService,
		Tasks:    taskService,
		Sessions: verifier,
		Health:   health.New(logger, pingers),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) openStore(cfg *config.Config) (Store, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		a.logger.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	return db, nil
}

func (a *App) openPublisher(cfg config.RabbitMQ) (*rabbitmq.Publisher, error) {
	conn, err := rabbitmq.Connect(cfg.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn)
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.TaskTopology(cfg.Exchange, cfg.AuditQueue))
	if err != nil {
		return nil, err
	}
	go a.watchConnection(conn)
	return rabbitmq.NewPublisher(ch, cfg.Exchange), nil
}

// watchConnection пишет в лог обрыв соединения с брокером. Публикация
// после обрыва возвращает ошибку, которую сервис задач только логирует.
func (a *App) watchConnection(conn *amqp.Connection) {
	if err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1)); ok && err != nil {
		a.logger.Error("rabbitmq connection closed", slog.String("reason", err.Reason))
	}
}

// Handler возвращает корневой обработчик приложения.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает HTTP-сервер и блокируется до ошибки сервера или отмены ctx.
// При отмене сервер останавливается с таймаутом, затем закрываются зависимости.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

// Close освобождает зависимости без запуска сервера.
func (a *App) Close() {
	a.close()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
