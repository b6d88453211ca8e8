// Package audit собирает потребителя очереди аудита задач.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/task-tracker/internal/config"
	"github.com/magabrotheeeer/task-tracker/internal/rabbitmq"
	auditservice "github.com/magabrotheeeer/task-tracker/internal/services/audit"
)

type App struct {
	logger *slog.Logger
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
}

// New подключается к брокеру и объявляет топологию событий задач.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "audit.New"
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("rabbitmq url is empty"))
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("connected to RabbitMQ")

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.TaskTopology(cfg.Exchange, cfg.AuditQueue))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		logger: logger,
		conn:   conn,
		ch:     ch,
		queue:  cfg.AuditQueue,
	}, nil
}

// Run читает очередь аудита до отмены ctx или закрытия соединения.
func (a *App) Run(ctx context.Context) error {
	const op = "audit.Run"
	defer func() {
		_ = a.ch.Close()
		_ = a.conn.Close()
	}()

	wait, err := rabbitmq.ConsumerMessage(ctx, a.ch, a.queue, a.logger, auditservice.New(a.logger).Handle)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.logger.Info("consuming task events", slog.String("queue", a.queue))

	closed := a.conn.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		a.logger.Info("audit consumer shutting down gracefully")
		wait()
		return nil
	case amqpErr, ok := <-closed:
		wait()
		if ok && amqpErr != nil {
			return fmt.Errorf("%s: connection closed: %w", op, amqpErr)
		}
		return nil
	}
}
