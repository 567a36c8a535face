// Package queue republishes push-channel events to a RabbitMQ fanout
// exchange so dashboards outside this process can follow along. The relay
// is optional and best-effort, like the push channel itself.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/BRAITOU555/reservationvtc6/internal/common/bus"
)

type Relay struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// Dial connects and declares the fanout exchange.
func Dial(url, exchange string, logger *slog.Logger) (*Relay, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Relay{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Run forwards every push-channel event to the exchange until the context
// is cancelled. Publish failures are logged and skipped.
func (r *Relay) Run(ctx context.Context, b *bus.Bus) error {
	sub := b.Subscribe()
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			body, err := json.Marshal(event)
			if err != nil {
				r.logger.Warn("relay_marshal_fail", "action", "relay_publish", "error", err.Error())
				continue
			}
			err = r.ch.PublishWithContext(ctx,
				r.exchange,
				"", // fanout ignores the routing key
				false,
				false,
				amqp.Publishing{
					ContentType: "application/json",
					Body:        body,
				},
			)
			if err != nil {
				r.logger.Warn("relay_publish_fail", "action", "relay_publish", "error", err.Error())
			}
		}
	}
}

func (r *Relay) Close() {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
