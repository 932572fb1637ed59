// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without a C
// toolchain and the tests can use an in-memory database (":memory:").
//
// CONCURRENCY:
// Each repository method is a single statement or a single transaction.
// Uniqueness (users.email, blog_posts.title) is enforced by UNIQUE indexes, so
// two concurrent requests inserting the same value cannot both succeed: the
// loser gets a constraint error, which is translated to a typed apperror.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// memoryPath is the DSN for a private in-memory database.
const memoryPath = ":memory:"

// DB wraps a sql.DB connection pool and implements every repository interface
// in internal/repository.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/blog.db" → file-based database
//   - ":memory:"     → in-memory database, lost on Close
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a brand new, empty database.
	// Pin the pool to a single connection so all queries see the same tables.
	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(4)
		conn.SetMaxIdleConns(4)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// connPragmas are applied by the driver to every connection it opens, not
// just the first one. busy_timeout makes a writer wait for the lock instead
// of failing with SQLITE_BUSY; foreign_keys is off by default in SQLite.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
}

// dsn adds the per-connection pragmas to dbPath. File databases also get WAL,
// so readers proceed while a write is in progress, and IMMEDIATE
// transactions, so a transaction takes the write lock at BEGIN and waits on
// busy_timeout there rather than failing on a later lock upgrade.
func dsn(dbPath string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	if dbPath != memoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Set("_txlock", "immediate")
	}
	return dbPath + "?" + q.Encode()
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// INTEGER PRIMARY KEY AUTOINCREMENT guarantees ids are never reused, so the
// first account ever registered keeps id 1 (the administrator) forever.
// Session timestamps are unix seconds so expiry can be compared in SQL.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS blog_posts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			author_id INTEGER NOT NULL REFERENCES users(id),
			title     TEXT NOT NULL UNIQUE,
			subtitle  TEXT NOT NULL,
			date      TEXT NOT NULL,
			body      TEXT NOT NULL,
			img_url   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_blog_posts_author_id ON blog_posts(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating blog_posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			text         TEXT NOT NULL,
			author_id    INTEGER NOT NULL REFERENCES users(id),
			blog_post_id INTEGER NOT NULL REFERENCES blog_posts(id) ON DELETE CASCADE,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_blog_post_id ON comments(blog_post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a write because
// of a UNIQUE index.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		// Without extended result codes only the primary code is reported.
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return strings.Contains(sqliteErr.Error(), "UNIQUE")
		}
		return false
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation reports whether err is SQLite rejecting a write that
// references a missing row.
func isForeignKeyViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		if code&0xff == sqlite3.SQLITE_CONSTRAINT {
			return strings.Contains(sqliteErr.Error(), "FOREIGN KEY")
		}
		return false
	}
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
