package rabbitmq

import "github.com/magabrotheeeer/task-tracker/internal/models"

const prefetchCount = 10

type QueueConfig struct {
	QueueName   string
	RoutingKeys []string
}

// Topology описывает exchange и привязанные к нему очереди.
type Topology struct {
	Exchange string
	Queues   []QueueConfig
}

// TaskTopology возвращает топологию событий задач: очередь аудита
// получает все три типа событий.
func TaskTopology(exchange, auditQueue string) Topology {
	return Topology{
		Exchange: exchange,
		Queues: []QueueConfig{
			{
				QueueName: auditQueue,
				RoutingKeys: []string{
					string(models.TaskCreated),
					string(models.TaskUpdated),
					string(models.TaskDeleted),
				},
			},
		},
	}
}
