// Package sqlite implements the repository interfaces on SQLite via the
// pure-Go modernc.org/sqlite driver, so the server builds without CGo.
//
// The DB wraps a database/sql pool, runs the schema bootstrap at open time,
// and implements every repository interface. Tests open ":memory:".
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for tests), configures WAL
// and foreign keys, and creates the schema.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	stmts := []string{
		// The email column is NOCASE so lookups are case-insensitive and
		// the unique constraint rejects "A@b.com" next to "a@b.com".
		`CREATE TABLE IF NOT EXISTS users (
			id                     TEXT PRIMARY KEY,
			email                  TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash          TEXT NOT NULL DEFAULT '',
			role                   TEXT NOT NULL DEFAULT 'user',
			google_id              TEXT NOT NULL DEFAULT '',
			first_name             TEXT NOT NULL DEFAULT '',
			last_name              TEXT NOT NULL DEFAULT '',
			avatar_url             TEXT NOT NULL DEFAULT '',
			password_reset_token   TEXT,
			password_reset_expires TIMESTAMP,
			created_at             TIMESTAMP NOT NULL,
			updated_at             TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_reset_token
			ON users(password_reset_token)
			WHERE password_reset_token IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS posts (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS post_categories (
			post_id     TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			PRIMARY KEY (post_id, category_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite: creating schema: %w", err)
		}
	}

	return nil
}
