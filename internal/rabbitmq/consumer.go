package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/task-tracker/internal/lib/sl"
)

// Consumer — часть amqp.Channel, через которую читается очередь.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ErrUnprocessable помечает сообщение, которое не имеет смысла обрабатывать повторно.
// Такие сообщения отклоняются без возврата в очередь.
var ErrUnprocessable = errors.New("unprocessable message")

// ConsumerMessage читает очередь и передаёт тела сообщений в handler,
// обрабатывая не больше prefetchCount сообщений одновременно.
// Успешно обработанные сообщения подтверждаются, ошибки с ErrUnprocessable
// отбрасываются, остальные возвращаются в очередь.
//
// Возвращённая функция wait блокируется, пока чтение не остановится
// (отмена ctx или закрытие канала) и не завершатся начатые обработчики.
func ConsumerMessage(ctx context.Context, ch Consumer, queueName string, log *slog.Logger,
	handler func([]byte) error) (wait func(), err error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(sl.Op(op), slog.String("queue", queueName))

	var (
		wg   sync.WaitGroup
		done = make(chan struct{})
	)
	sem := make(chan struct{}, prefetchCount)
	go func() {
		defer close(done)
		defer wg.Wait()
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer wg.Done()
					defer func() { <-sem }()
					err := handler(d.Body)
					if errors.Is(err, ErrUnprocessable) {
						log.Warn("dropping unprocessable message", sl.Err(err))
						if nackErr := d.Nack(false, false); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if err != nil {
						log.Warn("handler failed, requeueing message", sl.Err(err))
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() { <-done }, nil
}
