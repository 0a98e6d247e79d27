package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/pickflix/internal/model"
)

// WatchlistRepo is the watchlist store over the 'watchlist' table.  A
// (username, movie_id) pair is either ABSENT or PRESENT; Add and Remove are
// the only transitions and each reports whether it changed anything.
type WatchlistRepo struct{ DB *sql.DB }

func NewWatchlistRepo(db *sql.DB) *WatchlistRepo { return &WatchlistRepo{DB: db} }

// Add saves e for e.Username.  It returns false without modifying state when
// the movie is already on that user's list.  The unique key on
// (username, movie_id) decides races between parallel adds.
func (r *WatchlistRepo) Add(ctx context.Context, e model.WatchlistEntry) (bool, error) {
	username, err := normalizeUsername(e.Username)
	if err != nil {
		return false, err
	}
	if e.MovieID <= 0 || e.Title == "" {
		return false, ErrInvalidEntry
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO watchlist (username, movie_id, title, year, poster_url)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE id = id`,
		username, e.MovieID, e.Title, nullString(e.Year), nullString(e.PosterURL))
	if err != nil {
		if isMySQLError(err, mysqlErrFKNoParent) {
			return false, ErrUnknownUser
		}
		return false, fmt.Errorf("insert watchlist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert watchlist entry: %w", err)
	}
	return n == 1, nil
}

// Remove deletes the entry and reports whether a row was actually deleted.
func (r *WatchlistRepo) Remove(ctx context.Context, username string, movieID int64) (bool, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return false, err
	}
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM watchlist WHERE username = ? AND movie_id = ?",
		username, movieID)
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	return n > 0, nil
}

const watchlistColumns = "id, username, movie_id, title, year, poster_url, created_at"

// List returns the user's entries, most recently added first.  A user with
// no entries gets an empty, non-nil slice.
func (r *WatchlistRepo) List(ctx context.Context, username string) ([]model.WatchlistEntry, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+watchlistColumns+" FROM watchlist WHERE username = ? ORDER BY id DESC",
		username)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	entries := []model.WatchlistEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	return entries, nil
}

// Find returns one entry, or ErrEntryNotFound.
func (r *WatchlistRepo) Find(ctx context.Context, username string, movieID int64) (model.WatchlistEntry, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return model.WatchlistEntry{}, err
	}
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+watchlistColumns+" FROM watchlist WHERE username = ? AND movie_id = ? LIMIT 1",
		username, movieID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WatchlistEntry{}, ErrEntryNotFound
	}
	if err != nil {
		return model.WatchlistEntry{}, fmt.Errorf("find watchlist entry: %w", err)
	}
	return e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (model.WatchlistEntry, error) {
	var (
		e         model.WatchlistEntry
		year      sql.NullString
		posterURL sql.NullString
		createdAt time.Time
	)
	if err := s.Scan(&e.ID, &e.Username, &e.MovieID, &e.Title, &year, &posterURL, &createdAt); err != nil {
		return model.WatchlistEntry{}, err
	}
	e.Year = year.String
	e.PosterURL = posterURL.String
	e.CreatedAt = createdAt
	return e, nil
}

// nullString maps "" to SQL NULL for the nullable display columns.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
