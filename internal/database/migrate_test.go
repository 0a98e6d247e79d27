package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAppliesSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS watchlist")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaKeepsUniqueKeys(t *testing.T) {
	assert.Contains(t, schema[0], "PRIMARY KEY (username)")
	assert.Contains(t, schema[1], "UNIQUE KEY uq_watchlist_user_movie (username, movie_id)")
}

func TestUsernamesCompareExactly(t *testing.T) {
	col := regexp.MustCompile(`(?m)^\s*username\s+VARCHAR\(64\)\s+CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,`)
	for i, stmt := range schema {
		assert.Regexp(t, col, stmt, "statement %d", i)
	}
}
