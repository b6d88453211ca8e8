package models

import "time"

// TaskEventType — тип события изменения задачи, он же routing key в RabbitMQ.
type TaskEventType string

const (
	TaskCreated TaskEventType = "task.created"
	TaskUpdated TaskEventType = "task.updated"
	TaskDeleted TaskEventType = "task.deleted"
)

// TaskEvent публикуется после успешного изменения задачи.
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	TaskID     string        `json:"task_id"`
	OwnerID    string        `json:"owner_id"`
	OccurredAt time.Time     `json:"occurred_at"`
	Task       *Task         `json:"task,omitempty"` // nil для удаления
}
