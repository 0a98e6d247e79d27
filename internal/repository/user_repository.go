package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/pickflix/internal/model"
	"github.com/iliyamo/pickflix/internal/utils"
)

// UserRepo is the credential store over the 'users' table.
type UserRepo struct {
	DB   *sql.DB
	Cost int // bcrypt cost
}

func NewUserRepo(db *sql.DB, cost int) *UserRepo { return &UserRepo{DB: db, Cost: cost} }

// normalizeUsername trims surrounding whitespace and checks length.
// Usernames are otherwise case-sensitive and stored verbatim.
func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrEmptyUsername
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return username, nil
}

// Register creates a user and reports whether it was created.  A taken
// username yields (false, nil).  The check and the insert are one statement
// against the primary key, so two concurrent registrations of the same name
// cannot both succeed.
func (r *UserRepo) Register(ctx context.Context, username, password string) (bool, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return false, err
	}
	if password == "" {
		return false, ErrEmptyPassword
	}
	hash, err := utils.HashPassword(password, r.Cost)
	if err != nil {
		return false, err
	}
	// The no-op update leaves an existing row untouched and reports 0 rows.
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?) ON DUPLICATE KEY UPDATE username = username",
		username, hash)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	return n == 1, nil
}

// Authenticate reports whether username exists and password matches its
// stored hash.  Unknown users and wrong passwords both yield (false, nil)
// after the same amount of hashing work.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (bool, error) {
	u, err := r.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, ErrEmptyUsername), errors.Is(err, ErrUsernameTooLong):
		utils.BurnPasswordCheck(password, r.Cost)
		return false, nil
	case err != nil:
		return false, err
	}
	return utils.VerifyPassword(u.PasswordHash, password), nil
}

// Exists reports whether a user record is present.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, ErrEmptyUsername), errors.Is(err, ErrUsernameTooLong):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// GetByUsername fetches a user; sql.ErrNoRows when absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	err = r.DB.QueryRowContext(ctx,
		"SELECT username, password_hash, created_at FROM users WHERE username = ? LIMIT 1",
		username).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, err
}
