// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// WHY sqlx ON TOP OF database/sql?
// sqlx keeps the database/sql connection pool and context methods, and adds
// struct scanning through `db:"..."` tags (GetContext/SelectContext) plus
// sqlx.In for expanding `IN (?)` lists. The queries stay hand-written SQL.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	// BLANK IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"
)

// DB wraps an sqlx connection pool and provides repository methods.
// It implements every interface in the repository package.
type DB struct {
	conn *sqlx.DB
}

// New opens a SQLite database and runs migrations.
//
// dbPath examples:
//   - "data/gamelist.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
//
// The pool is limited to a single connection. SQLite serialises writers
// anyway, and an in-memory database exists per connection, so a second
// connection would silently see an empty schema.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight. For ":memory:"
	// SQLite answers "memory" and carries on.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The DSN pragma covers any
	// connection the pool reopens; this covers the one we already hold.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	// sqlx picks its bindvar style from the driver name; modernc registers as
	// "sqlite", which sqlx files under the same '?' style as "sqlite3".
	db := &DB{conn: sqlx.NewDb(conn, "sqlite3")}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// dsn appends connection pragmas so every connection the pool opens gets
// them, not only the first one.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent, so it runs on
// every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT NOT NULL UNIQUE CHECK (length(email) BETWEEN 6 AND 35),
			username   TEXT NOT NULL UNIQUE COLLATE BINARY CHECK (length(username) BETWEEN 4 AND 25),
			password   TEXT NOT NULL,
			is_admin   BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Organizations and the three tag namespaces share one shape.
	for _, table := range []string{"developers", "publishers", "genres", "models", "platforms"} {
		_, err = db.conn.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id   INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE
			);
		`, table))
		if err != nil {
			return fmt.Errorf("creating %s table: %w", table, err)
		}
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			release_date TEXT NOT NULL,
			developer_id INTEGER REFERENCES developers(id) ON DELETE SET NULL,
			publisher_id INTEGER REFERENCES publishers(id) ON DELETE SET NULL
		);
		CREATE INDEX IF NOT EXISTS idx_games_release_date ON games(release_date);
		CREATE INDEX IF NOT EXISTS idx_games_title ON games(title);
	`)
	if err != nil {
		return fmt.Errorf("creating games table: %w", err)
	}

	for _, kind := range []string{"genres", "models", "platforms"} {
		_, err = db.conn.Exec(fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS game_%[1]s (
				game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				tag_id  INTEGER NOT NULL REFERENCES %[1]s(id) ON DELETE CASCADE,
				PRIMARY KEY (game_id, tag_id)
			);
		`, kind))
		if err != nil {
			return fmt.Errorf("creating game_%s table: %w", kind, err)
		}
	}

	// The saved list keeps its rowid: feed order is insertion order.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_games (
			user_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			game_id  INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, game_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_games table: %w", err)
	}

	return nil
}

// quoteIdent double-quotes an SQL identifier. Identifiers only ever come from
// the admin registry, but quoting keeps reserved words like "models" safe.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}
