package broker

import (
	"aishop/internal/app/model"
	"context"
	"encoding/json"
	"fmt"
	amqp "github.com/rabbitmq/amqp091-go"
	"time"
)

type RabbitMQ struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
	URL        string
}

func NewRabbitMQ(url string) *RabbitMQ {
	return &RabbitMQ{URL: url}
}

func (r *RabbitMQ) Connect() error {
	conn, err := amqp.Dial(r.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	r.Connection = conn
	r.Channel = ch

	return nil
}

// DeclareExchange declares a durable topic exchange.
func (r *RabbitMQ) DeclareExchange(name string) error {
	if err := r.Channel.ExchangeDeclare(name, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		_ = r.Channel.Close()
	}
	if r.Connection != nil {
		_ = r.Connection.Close()
	}
}

// AMQPChannel is the subset of *amqp.Channel used for publishing.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQPublisher struct {
	channel  AMQPChannel
	exchange string
}

func NewRabbitMQPublisher(ch AMQPChannel, exchange string) *RabbitMQPublisher {
	return &RabbitMQPublisher{channel: ch, exchange: exchange}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, n *model.DepositNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		n.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    n.EventID,
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"event_type":     n.Type,
				"transaction_id": n.TransactionID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish event %s: %w", n.EventID, err)
	}

	return nil
}
