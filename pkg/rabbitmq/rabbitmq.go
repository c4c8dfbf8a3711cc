package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultExchange = "pharmacy.events"
	DefaultQueue    = "order_queue"
	orderBinding    = "order.#"
)

// ErrMalformed marks a message that can never be processed. Such messages
// are dropped instead of requeued.
var ErrMalformed = errors.New("malformed message")

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
	Queue    string
}

// NewClient connects to RabbitMQ, declares the topic exchange domain events
// are published to and binds the order queue to order events.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", cfg.Queue, err)
	}
	if err := ch.QueueBind(cfg.Queue, orderBinding, cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind %s: %w", cfg.Queue, err)
	}

	zap.L().Info("rabbitmq connected",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue))

	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
	}, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.channel.Publish(exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// PublishEvent marshals payload and publishes it to the client's exchange.
func (c *Client) PublishEvent(routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}
	if err := c.Publish(c.exchange, routingKey, body); err != nil {
		return err
	}
	zap.L().Debug("event published", zap.String("routing_key", routingKey))
	return nil
}

// ConsumeOrderEvents starts a goroutine delivering order events to handler.
// A message is acked when handler succeeds, dropped when it fails with
// ErrMalformed and requeued otherwise.
func (c *Client) ConsumeOrderEvents(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	zap.L().Info("waiting for order events", zap.String("queue", c.queue))

	go func() {
		for msg := range msgs {
			err := handler(msg)
			switch {
			case err == nil:
				if ackErr := msg.Ack(false); ackErr != nil {
					zap.L().Error("ack failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(ackErr))
				}
			case errors.Is(err, ErrMalformed):
				zap.L().Warn("dropping malformed message", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
				if nackErr := msg.Nack(false, false); nackErr != nil {
					zap.L().Error("nack failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
				}
			default:
				zap.L().Error("processing message failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(err))
				if nackErr := msg.Nack(false, true); nackErr != nil {
					zap.L().Error("nack failed", zap.Uint64("tag", msg.DeliveryTag), zap.Error(nackErr))
				}
			}
		}
	}()

	return nil
}

// HandleOrderMessage records an order event in the log.
func HandleOrderMessage(msg amqp.Delivery) error {
	var event map[string]any
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, ok := event["orderId"]; !ok {
		return fmt.Errorf("%w: missing orderId", ErrMalformed)
	}
	zap.L().Info("order event",
		zap.String("routing_key", msg.RoutingKey),
		zap.Any("order_id", event["orderId"]),
		zap.Any("status", event["status"]))
	return nil
}
