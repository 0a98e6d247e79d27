package handler

import (
    "context"
    "time"

    "github.com/iliyamo/pickflix/internal/queue"
    "github.com/iliyamo/pickflix/internal/service"
)

// publish hands ev to p without holding up the response.  Failures are
// logged by the publisher.
func publish(p service.EventPublisher, ev queue.WatchlistEvent) {
    if p == nil {
        return
    }
    if ev.OccurredAt == "" {
        ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = p.PublishWatchlist(ctx, ev)
    }()
}
