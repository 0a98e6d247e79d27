// Package service publishes domain events to RabbitMQ.  Publishing never
// interrupts the request flow: errors are logged and returned so callers can
// ignore them.
package service

import (
    "context"
    "fmt"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/pickflix/internal/logging"
    "github.com/iliyamo/pickflix/internal/metrics"
    "github.com/iliyamo/pickflix/internal/queue"
)

// EventPublisher is what handlers depend on.
type EventPublisher interface {
    PublishWatchlist(ctx context.Context, ev queue.WatchlistEvent) error
}

// Publisher sends watchlist activity to the watchlist.activity queue.  A
// disabled Publisher accepts every event and sends nothing.
type Publisher struct {
    Enabled bool
    URL     string
}

var _ EventPublisher = Publisher{}

// PublishWatchlist delivers ev as a persistent JSON message.  OccurredAt is
// stamped when empty.
func (p Publisher) PublishWatchlist(ctx context.Context, ev queue.WatchlistEvent) error {
    if !p.Enabled {
        return nil
    }
    log := logging.WithComponent("publisher")
    if ev.OccurredAt == "" {
        ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
    }
    if err := p.publish(ctx, ev); err != nil {
        metrics.EventsPublished.WithLabelValues("error").Inc()
        log.Warn().Err(err).Str("action", ev.Action).Msg("publish failed")
        return err
    }
    metrics.EventsPublished.WithLabelValues("ok").Inc()
    return nil
}

func (p Publisher) publish(ctx context.Context, ev queue.WatchlistEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Idempotent; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        queue.ActivityQueue, // name
        true,                // durable
        false,               // autoDelete
        false,               // exclusive
        false,               // noWait
        nil,                 // args
    ); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    return ch.PublishWithContext(ctx,
        "",                  // default exchange
        queue.ActivityQueue, // routing key = queue name
        false,               // mandatory
        false,               // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        },
    )
}
