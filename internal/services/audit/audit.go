// Package audit пишет журнал изменений задач по событиям из очереди.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/task-tracker/internal/models"
	"github.com/magabrotheeeer/task-tracker/internal/rabbitmq"
)

// Service превращает сообщения очереди аудита в структурированные записи лога.
type Service struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Service {
	return &Service{log: log}
}

// Handle разбирает событие и пишет одну запись журнала.
// Некорректное сообщение возвращает rabbitmq.ErrUnprocessable и в очередь не возвращается.
func (s *Service) Handle(body []byte) error {
	const op = "audit.Handle"
	var event models.TaskEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%s: %w: %s", op, rabbitmq.ErrUnprocessable, err.Error())
	}
	if event.Type == "" || event.TaskID == "" || event.OwnerID == "" {
		return fmt.Errorf("%s: %w: incomplete event", op, rabbitmq.ErrUnprocessable)
	}

	attrs := []any{
		slog.String("type", string(event.Type)),
		slog.String("task_id", event.TaskID),
		slog.String("owner_id", event.OwnerID),
		slog.Time("occurred_at", event.OccurredAt),
	}
	if event.Task != nil {
		attrs = append(attrs,
			slog.String("status", string(event.Task.Status)),
			slog.String("title", event.Task.Title),
		)
	}
	s.log.Info("task event", attrs...)
	return nil
}
