package queue

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends one message body to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type RabbitMQConsumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

type RabbitMQProducer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

// NewRabbitMQConsumer declares a durable queue and limits unacknowledged
// deliveries to one.
func NewRabbitMQConsumer(amqpURL, queueName string) (*RabbitMQConsumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open channel: %w", err), conn.Close())
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, errors.Join(fmt.Errorf("declare queue %s: %w", queueName, err), conn.Close())
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return nil, errors.Join(fmt.Errorf("set qos: %w", err), conn.Close())
	}

	return &RabbitMQConsumer{conn: conn, ch: ch, queue: queueName}, nil
}

// StartConsuming returns deliveries that must be acknowledged by the caller.
func (r *RabbitMQConsumer) StartConsuming() (<-chan amqp.Delivery, error) {
	msgs, err := r.ch.Consume(r.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", r.queue, err)
	}
	return msgs, nil
}

func (r *RabbitMQConsumer) Close() error {
	var errs []error
	if r.ch != nil {
		errs = append(errs, r.ch.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}

func NewRabbitMQProducer(url string) (*RabbitMQProducer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open channel: %w", err), conn.Close())
	}

	return &RabbitMQProducer{conn: conn, ch: ch, declared: make(map[string]bool)}, nil
}

// Publish declares the durable queue on first use and sends a persistent
// JSON message to it through the default exchange.
func (p *RabbitMQProducer) Publish(ctx context.Context, queueName string, body []byte) error {
	if !p.declared[queueName] {
		if _, err := p.ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", queueName, err)
		}
		p.declared[queueName] = true
	}

	err := p.ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queueName, err)
	}
	return nil
}

func (p *RabbitMQProducer) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
