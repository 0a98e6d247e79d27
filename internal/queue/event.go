// Package queue defines message payloads exchanged over the message broker.
package queue

// ActivityQueue is the durable queue carrying WatchlistEvent messages.
const ActivityQueue = "watchlist.activity"

// Activity kinds carried in WatchlistEvent.Action.
const (
    ActionRegistered = "registered" // an account was created
    ActionAdded      = "added"      // a movie was saved to a watchlist
    ActionRemoved    = "removed"    // a movie was removed from a watchlist
)

// WatchlistEvent is published after a successful account or watchlist
// change.  It carries enough for downstream consumers to log or run
// analytics without querying the primary database.  Movie fields are empty
// for ActionRegistered.
type WatchlistEvent struct {
    Action     string `json:"action"`
    Username   string `json:"username"`
    MovieID    int64  `json:"movie_id,omitempty"`
    Title      string `json:"title,omitempty"`
    Year       string `json:"year,omitempty"`
    OccurredAt string `json:"occurred_at"`
}
