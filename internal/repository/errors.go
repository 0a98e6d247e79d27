// Package repository holds the SQL-backed stores.  Ordinary outcomes such
// as "username taken" or "movie not on the list" are reported through
// boolean results; the sentinel errors below cover invalid input and
// broken references, and any other error is an infrastructure failure.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrEmptyUsername is returned when a username is blank after trimming.
var ErrEmptyUsername = errors.New("username is required")

// ErrUsernameTooLong is returned for usernames that do not fit the column.
var ErrUsernameTooLong = errors.New("username longer than 64 characters")

// ErrEmptyPassword is returned when registering without a password.
var ErrEmptyPassword = errors.New("password is required")

// ErrInvalidEntry is returned when a watchlist entry lacks a positive
// movie id or a title.
var ErrInvalidEntry = errors.New("invalid watchlist entry")

// ErrUnknownUser is returned when a watchlist row would reference a user
// that does not exist.
var ErrUnknownUser = errors.New("unknown user")

// ErrEntryNotFound is returned by lookups of a single watchlist entry.
var ErrEntryNotFound = errors.New("watchlist entry not found")

const maxUsernameLen = 64

// mysqlErrFKNoParent is raised when a child row references a missing parent.
const mysqlErrFKNoParent = 1452

func isMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}
