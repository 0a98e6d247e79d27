package model

import "time"

// WatchlistEntry models a row in the `watchlist` table: a movie saved by a
// user for later viewing.  The pair (Username, MovieID) is unique.  Entries
// are created and deleted but never mutated in place.
//
// Fields:
//  ID        – auto-increment surrogate; larger means added more recently.
//  Username  – owner, references users.username.
//  MovieID   – catalog identifier of the movie.
//  Title     – display title captured when the entry was added.
//  Year      – release year as a display string, empty when unknown.
//  PosterURL – absolute poster URL, empty when the catalog had none.
//  CreatedAt – when the entry was added.
type WatchlistEntry struct {
    ID        uint64    `json:"-"`
    Username  string    `json:"-"`
    MovieID   int64     `json:"movie_id"`
    Title     string    `json:"title"`
    Year      string    `json:"year,omitempty"`
    PosterURL string    `json:"poster_url,omitempty"`
    CreatedAt time.Time `json:"added_at"`
}
