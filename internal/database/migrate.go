package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the two relations the stores rely on.  Uniqueness of
// users.username and of (watchlist.username, watchlist.movie_id) is what
// makes concurrent registrations and adds safe; never drop those keys.
// Usernames compare byte for byte (utf8mb4_bin); the server default
// collation would fold case and accents.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		username      VARCHAR(64)  CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS watchlist (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username   VARCHAR(64)     CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		movie_id   BIGINT          NOT NULL,
		title      VARCHAR(255)    NOT NULL,
		year       VARCHAR(16)     NULL,
		poster_url VARCHAR(512)    NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_watchlist_user_movie (username, movie_id),
		CONSTRAINT fk_watchlist_user FOREIGN KEY (username) REFERENCES users (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  Every statement is idempotent so it runs on
// each startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
