package queue

import (
    "context"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/pickflix/internal/logging"
)

// StartActivityConsumer connects to RabbitMQ, declares the watchlist.activity
// queue (durable) and appends one line per message to logPath.  It keeps
// reconnecting with exponential backoff and returns only when ctx is done.
// Malformed messages are rejected without requeue so they cannot loop.
func StartActivityConsumer(ctx context.Context, url, logPath string) error {
    log := logging.WithComponent("activity-consumer")
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", filepath.Dir(logPath), err)
    }

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, logPath)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Msg("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string) error {
    log := logging.WithComponent("activity-consumer")
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn().Err(err).Msg("set QoS failed")
    }
    if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(ActivityQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(d.Body, f); err != nil {
                log.Error().Err(err).Msg("handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(body []byte, w io.Writer) error {
    var ev WatchlistEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Action == "" || ev.Username == "" {
        return errors.New("event missing action or username")
    }
    if _, err := io.WriteString(w, formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatLine renders one human-friendly log line for ev.
func formatLine(ev WatchlistEvent) string {
    if ev.Action == ActionRegistered {
        return fmt.Sprintf("[%s] Account registered | user=%q\n", ev.OccurredAt, ev.Username)
    }
    return fmt.Sprintf("[%s] Watchlist %s | user=%q | movie_id=%d | title=%q | year=%q\n",
        ev.OccurredAt, ev.Action, ev.Username, ev.MovieID, ev.Title, ev.Year)
}
