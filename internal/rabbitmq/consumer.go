package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// ErrBadMessage сигнализирует о необрабатываемом сообщении. Потребитель
// отбрасывает такое сообщение вместо возврата в очередь, иначе битая
// полезная нагрузка крутилась бы в очереди бесконечно.
var ErrBadMessage = errors.New("bad message")

// ConsumerMessage создает потребителя сообщений из очереди RabbitMQ.
// Ошибка обработчика приводит к nack с возвратом сообщения в очередь,
// кроме ErrBadMessage: такие сообщения отбрасываются.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
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
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, 10)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(delivery amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(delivery.Body); err != nil {
						requeue := !errors.Is(err, ErrBadMessage)
						if nackErr := delivery.Nack(false, requeue); nackErr != nil {
							log.Printf("failed to nack message: %v", nackErr)
						}
						return
					}
					if ackErr := delivery.Ack(false); ackErr != nil {
						log.Printf("failed to ack message: %v", ackErr)
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
