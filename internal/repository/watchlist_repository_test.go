package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pickflix/internal/model"
)

var (
	insertEntrySQL = regexp.QuoteMeta("INSERT INTO watchlist (username, movie_id, title, year, poster_url)")
	deleteEntrySQL = regexp.QuoteMeta("DELETE FROM watchlist WHERE username = ? AND movie_id = ?")
	listEntrySQL   = regexp.QuoteMeta("FROM watchlist WHERE username = ? ORDER BY id DESC")
	findEntrySQL   = regexp.QuoteMeta("FROM watchlist WHERE username = ? AND movie_id = ? LIMIT 1")
	entryColumns   = []string{"id", "username", "movie_id", "title", "year", "poster_url", "created_at"}
)

func newWatchlistRepo(t *testing.T) (*WatchlistRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWatchlistRepo(db), mock
}

func fightClub() model.WatchlistEntry {
	return model.WatchlistEntry{
		Username:  "alice",
		MovieID:   550,
		Title:     "Fight Club",
		Year:      "1999",
		PosterURL: "https://image.tmdb.org/t/p/w500/fc.jpg",
	}
}

func TestAddSameMovieTwice(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	ctx := context.Background()
	e := fightClub()

	mock.ExpectExec(insertEntrySQL).
		WithArgs("alice", int64(550), "Fight Club", "1999", e.PosterURL).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertEntrySQL).
		WithArgs("alice", int64(550), "Fight Club", "1999", e.PosterURL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(listEntrySQL).WithArgs("alice").WillReturnRows(
		sqlmock.NewRows(entryColumns).AddRow(1, "alice", 550, "Fight Club", "1999", e.PosterURL, time.Now()))

	first, err := repo.Add(ctx, e)
	require.NoError(t, err)
	second, err := repo.Add(ctx, e)
	require.NoError(t, err)
	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	require.Len(t, list, 1)
	assert.Equal(t, int64(550), list[0].MovieID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStoresNullsForMissingDisplayFields(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	mock.ExpectExec(insertEntrySQL).
		WithArgs("alice", int64(7), "Untitled", nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ok, err := repo.Add(context.Background(), model.WatchlistEntry{Username: "alice", MovieID: 7, Title: "Untitled"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddValidation(t *testing.T) {
	testCases := []struct {
		name    string
		entry   model.WatchlistEntry
		wantErr error
	}{
		{name: "no user", entry: model.WatchlistEntry{MovieID: 1, Title: "A"}, wantErr: ErrEmptyUsername},
		{name: "zero movie", entry: model.WatchlistEntry{Username: "alice", Title: "A"}, wantErr: ErrInvalidEntry},
		{name: "negative movie", entry: model.WatchlistEntry{Username: "alice", MovieID: -3, Title: "A"}, wantErr: ErrInvalidEntry},
		{name: "no title", entry: model.WatchlistEntry{Username: "alice", MovieID: 3}, wantErr: ErrInvalidEntry},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newWatchlistRepo(t)
			ok, err := repo.Add(context.Background(), tc.entry)
			assert.False(t, ok)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAddUnknownUser(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	mock.ExpectExec(insertEntrySQL).WillReturnError(&mysql.MySQLError{Number: 1452, Message: "foreign key"})

	ok, err := repo.Add(context.Background(), fightClub())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestRemoveTwice(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	ctx := context.Background()

	mock.ExpectExec(deleteEntrySQL).WithArgs("alice", int64(550)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteEntrySQL).WithArgs("alice", int64(550)).WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.Remove(ctx, "alice", 550)
	require.NoError(t, err)
	second, err := repo.Remove(ctx, "alice", 550)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveNeverAddedLeavesListUnchanged(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	ctx := context.Background()

	mock.ExpectExec(deleteEntrySQL).WithArgs("alice", int64(999)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(listEntrySQL).WithArgs("alice").WillReturnRows(
		sqlmock.NewRows(entryColumns).AddRow(1, "alice", 550, "Fight Club", nil, nil, time.Now()))

	ok, err := repo.Remove(ctx, "alice", 999)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(550), list[0].MovieID)
	assert.Empty(t, list[0].Year)
	assert.Empty(t, list[0].PosterURL)
}

func TestListEmpty(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	mock.ExpectQuery(listEntrySQL).WithArgs("nobody").WillReturnRows(sqlmock.NewRows(entryColumns))

	list, err := repo.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestListMostRecentFirst(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	now := time.Now()
	// Rows arrive in id DESC order from the query.
	mock.ExpectQuery(listEntrySQL).WithArgs("alice").WillReturnRows(
		sqlmock.NewRows(entryColumns).
			AddRow(3, "alice", 3, "Three", "2003", nil, now).
			AddRow(2, "alice", 2, "Two", "2002", nil, now).
			AddRow(1, "alice", 1, "One", "2001", nil, now))

	list, err := repo.List(context.Background(), "alice")
	require.NoError(t, err)

	ids := make([]int64, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.MovieID)
	}
	assert.Equal(t, []int64{3, 2, 1}, ids)
}

func TestListQueryError(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	mock.ExpectQuery(listEntrySQL).WillReturnError(errors.New("gone"))

	list, err := repo.List(context.Background(), "alice")
	assert.Nil(t, list)
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	repo, mock := newWatchlistRepo(t)
	mock.ExpectQuery(findEntrySQL).WithArgs("alice", int64(550)).WillReturnRows(
		sqlmock.NewRows(entryColumns).AddRow(4, "alice", 550, "Fight Club", "1999", nil, time.Now()))
	mock.ExpectQuery(findEntrySQL).WithArgs("alice", int64(1)).WillReturnRows(sqlmock.NewRows(entryColumns))

	e, err := repo.Find(context.Background(), "alice", 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", e.Title)
	assert.Equal(t, uint64(4), e.ID)

	_, err = repo.Find(context.Background(), "alice", 1)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}
