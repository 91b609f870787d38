// Package events forwards session events to other services.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
)

// RoutingKeyPrefix prefixes the routing key of every published event.
const RoutingKeyPrefix = "relminer."

// Connect dials RabbitMQ.
func Connect(url string) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// Channel is the part of *amqp091.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPPublisher publishes session events to a topic exchange. The routing key
// is "relminer.<event type>", so consumers can bind to e.g. "relminer.graph".
//
// An AMQPPublisher should be created using NewAMQPPublisher.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
}

// NewAMQPPublisher declares the exchange and returns a publisher on it.
func NewAMQPPublisher(ch Channel, exchange string) (*AMQPPublisher, error) {
	err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

// RoutingKey returns the routing key of an event type.
func RoutingKey(eventType string) string {
	return RoutingKeyPrefix + eventType
}

func (p *AMQPPublisher) Publish(ctx context.Context, e session.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    ts,
		Type:         e.Type,
		Headers:      amqp091.Table{"session_id": e.SessionID},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(e.Type), false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", e.Type, err)
	}
	return nil
}

// Multi publishes every event to all publishers and joins their errors.
type Multi []session.Publisher

func (m Multi) Publish(ctx context.Context, e session.Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
