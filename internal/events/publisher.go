// Package events forwards in-process domain events to a RabbitMQ topic
// exchange so other services can react to level changes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"lexiq-backend/pkg/logging"
	"lexiq-backend/utilities"
)

// Publisher sends one event under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
}

// NewAMQPPublisher dials uri and declares a durable topic exchange. An
// empty uri returns a disabled publisher that drops every event.
func NewAMQPPublisher(uri, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = "english_test"
	}
	if uri == "" {
		logger.Warn("AMQP URL is empty, event publishing is disabled")
		return &AMQPPublisher{exchange: exchange}, nil
	}

	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("event publisher initialized with exchange: %s", exchange)
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange, enabled: true}, nil
}

func (p *AMQPPublisher) Enabled() bool {
	return p.enabled
}

func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	if !p.enabled {
		logger.Debug("event publishing disabled, skipping event: %s", routingKey)
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			Headers:      amqp091.Table{"event_type": routingKey},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	logger.Debug("published event: %s", routingKey)
	return nil
}

func (p *AMQPPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			logger.Warn("error closing RabbitMQ channel: %v", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}

// Routing keys used on the exchange.
const (
	KeyLevelChanged   = "english_test.level_changed"
	KeySessionCreated = "english_test.session_created"
	KeyUserRegistered = "user.registered"
)

var routes = map[string]string{
	utilities.EventLevelChanged:   KeyLevelChanged,
	utilities.EventSessionCreated: KeySessionCreated,
	utilities.EventUserRegistered: KeyUserRegistered,
}

// Forward subscribes pub to every domain event on bus. Failures are logged
// and never reach the request that raised the event.
func Forward(bus *utilities.EventBus, pub Publisher, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	for event, key := range routes {
		key := key
		bus.Subscribe(event, func(data interface{}) {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := pub.Publish(ctx, key, data); err != nil {
				logger.Error("publish %s: %v", key, err)
			}
		})
	}
}

// Message is an event captured by MemoryPublisher.
type Message struct {
	RoutingKey string
	Body       []byte
}

// MemoryPublisher records events instead of sending them.
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []Message
}

func (m *MemoryPublisher) Publish(_ context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{RoutingKey: routingKey, Body: body})
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

func (m *MemoryPublisher) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}
