// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C
// compiler installed and cross-compilation becomes painful. modernc.org/sqlite
// is a pure Go translation of the SQLite C code — no C compiler needed, works
// everywhere Go works.
//
// CONSISTENCY MODEL:
// Every repository method is a single-statement operation. There is no
// multi-row transaction here on purpose: the one cross-entity sequence in
// the system (ensure the user exists, then create the article) is two
// independent operations, and the only race that matters — two first logins
// inserting the same user — is resolved by the UNIQUE(external_id)
// constraint, not by locking. Per-row consistency comes from SQLite itself:
// the last write on an id wins and subsequent reads observe it.
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The underscore import is "side-effect only". The sqlite package's
	// init() registers itself with database/sql as a driver named "sqlite",
	// after which sql.Open("sqlite", ...) knows how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements repository.ArticleRepository; its Users() view implements
// repository.UserRepository.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/pressroom.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (great for tests, lost on close)
//
// sql.Open() does NOT actually open a connection — it just creates a pool
// manager. We call Ping() to force an immediate connection and surface a bad
// path or permissions problem here instead of on the first query.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// PRAGMAs are per-connection, and a ":memory:" DSN gives every pooled
	// connection its own private database. Pinning the pool to a single
	// connection keeps the pragmas below in force for every query and keeps
	// SQLite's single-writer nature from surfacing as SQLITE_BUSY errors.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// required for a web server where list renders overlap with creates.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Concurrent writers briefly contend for the write lock even in WAL
	// mode. A busy timeout makes the loser wait instead of failing with
	// SQLITE_BUSY — so the only error a racing insert can surface is the
	// constraint violation we actually care about.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We need them ON: articles reference users, comments/likes reference
	// articles.
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

// UserDB is the user-repository view of the same connection pool. It is a
// separate named type because repository.ArticleRepository and
// repository.UserRepository both declare a Create method with different
// signatures, and a single Go type cannot carry both.
type UserDB DB

// Users returns the user-repository view sharing this connection pool.
func (db *DB) Users() *UserDB {
	return (*UserDB)(db)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to
// run on every start; a real deployment with evolving schema would move to
// golang-migrate.
func (db *DB) migrate() error {
	// users — external_id is UNIQUE: each provider subject maps to exactly
	// one local account. The identity reconciler depends on this constraint
	// to collapse concurrent first-login inserts into a single row.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id          TEXT PRIMARY KEY,
			external_id TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			email       TEXT NOT NULL DEFAULT '',
			avatar_url  TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// articles — author_id references users; deleting an article never
	// touches the user.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id             TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			content        TEXT NOT NULL,
			category       TEXT NOT NULL,
			featured_image TEXT NOT NULL DEFAULT '',
			author_id      TEXT NOT NULL REFERENCES users(id),
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);
		CREATE INDEX IF NOT EXISTS idx_articles_author_id ON articles(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating articles table: %w", err)
	}

	// comments and likes are owned by their own subsystems — this core only
	// COUNTs them in read projections. The tables live here because the
	// schema is shared, and ON DELETE CASCADE keeps counts from dangling
	// when those subsystems react to an article deletion.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         TEXT PRIMARY KEY,
			article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			author_id  TEXT NOT NULL REFERENCES users(id),
			body       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_article_id ON comments(article_id);

		CREATE TABLE IF NOT EXISTS likes (
			id         TEXT PRIMARY KEY,
			article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(article_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_article_id ON likes(article_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments/likes tables: %w", err)
	}

	return nil
}
