package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher публикует доменные события (начало сессии, выбор, концовка,
// готовность ассета). Публикация fire-and-forget: ошибки логируются, но не
// влияют на основной поток запроса.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event interface{})
	Close() error
}

// Compile-time check to ensure implementation satisfies the interface.
var _ EventPublisher = (*rabbitPublisher)(nil)

type rabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewRabbitPublisher подключается к RabbitMQ и объявляет topic exchange.
func NewRabbitPublisher(url, exchange string, logger *zap.Logger) (EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка открытия канала RabbitMQ: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("ошибка объявления exchange %s: %w", exchange, err)
	}

	return &rabbitPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger.Named("RabbitPublisher"),
	}, nil
}

// Publish sends one event; failures are logged and swallowed.
func (p *rabbitPublisher) Publish(ctx context.Context, routingKey string, event interface{}) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("routingKey", routingKey), zap.Error(err))
		return
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		p.logger.Error("Failed to publish event", zap.String("routingKey", routingKey), zap.Error(err))
		return
	}
	p.logger.Debug("Event published", zap.String("routingKey", routingKey))
}

// Close releases the channel and connection.
func (p *rabbitPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NoopPublisher используется, когда брокер не сконфигурирован.
type NoopPublisher struct{}

var _ EventPublisher = (*NoopPublisher)(nil)

func (NoopPublisher) Publish(ctx context.Context, routingKey string, event interface{}) {}
func (NoopPublisher) Close() error                                                      { return nil }
