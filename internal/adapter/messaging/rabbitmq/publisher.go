// Package rabbitmq publishes committed domain events to a RabbitMQ topic
// exchange for external consumers. Delivery is best-effort: a failed publish
// is logged and dropped, and the ledger never waits on the broker.
package rabbitmq

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"wallet-ledger-service/config"
	"wallet-ledger-service/internal/core/domain"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const dialTimeout = 10 * time.Second

// amqpChannel is the slice of *amqp091.Channel the publisher needs, factored
// out so publish paths can be exercised without a live broker.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	Close() error
}

// Publisher forwards domain events to a durable topic exchange. Routing keys
// derive from the event kind: MONEY_DEPOSITED -> money.deposited.
//
// Event dispatch runs one goroutine per committed operation, so HandleEvent
// is called concurrently; mu guards the channel across the whole
// publish-fail-reopen-retry sequence.
type Publisher struct {
	conn     *amqp091.Connection
	exchange string
	log      zerolog.Logger

	mu          sync.Mutex
	channel     amqpChannel
	openChannel func() (amqpChannel, error)
}

// NewPublisher connects to RabbitMQ and declares the exchange.
func NewPublisher(cfg config.AMQPConfig, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp091.DialConfig(cfg.URL, amqp091.Config{
		Dial: amqp091.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // type
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("exchange", cfg.Exchange).Msg("RabbitMQ publisher connected")

	return &Publisher{
		conn:        conn,
		exchange:    cfg.Exchange,
		log:         log,
		channel:     ch,
		openChannel: func() (amqpChannel, error) { return conn.Channel() },
	}, nil
}

// HandleEvent implements ports.EventHandler. It is registered as a global
// handler so every event kind reaches the exchange.
func (p *Publisher) HandleEvent(ctx context.Context, event domain.Event) {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("kind", string(event.Kind())).Msg("amqp: marshal event failed")
		return
	}

	key := routingKey(event.Kind())
	msg := amqp091.Publishing{
		ContentType: "application/json",
		Timestamp:   event.OccurredAt(),
		Body:        body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		// One-shot retry on a fresh channel; the broker may have closed ours.
		if retryErr := p.reopenAndPublish(ctx, key, msg); retryErr != nil {
			p.log.Warn().Err(retryErr).Str("routing_key", key).Msg("amqp: publish failed")
		}
		return
	}

	p.log.Debug().Str("routing_key", key).Msg("event published")
}

// reopenAndPublish swaps in a fresh channel and retries once. Caller holds
// p.mu; the replaced channel is closed so reopens do not leak.
func (p *Publisher) reopenAndPublish(ctx context.Context, key string, msg amqp091.Publishing) error {
	ch, err := p.openChannel()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return err
	}

	p.channel.Close()
	p.channel = ch

	return ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

// Close gracefully closes the channel and connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.channel != nil {
		p.channel.Close()
	}
	p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
	}
}

func routingKey(kind domain.EventKind) string {
	return strings.ToLower(strings.ReplaceAll(string(kind), "_", "."))
}
