// Package sqlite implements the repository interfaces on an embedded
// SQLite database.
//
// We use modernc.org/sqlite (a pure Go translation of SQLite) rather than
// mattn/go-sqlite3 so the binary builds without CGo and cross-compiles
// cleanly. The driver registers itself under the name "sqlite" via the
// blank import below.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. The server owns it and closes it on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath, configures it, and runs
// migrations. Use ":memory:" in tests for a throwaway database.
//
// The pragmas ride on the DSN rather than a one-off Exec because sql.DB
// is a pool: an Exec'd PRAGMA configures one connection, the DSN
// configures every connection the pool opens. WAL allows concurrent reads
// while a write is in flight; foreign keys are off by default in SQLite
// and entry_competencies depends on them.
func New(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbPath)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own empty
	// database, so pin the pool to a single connection there.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Force an immediate connection so a bad path or permissions problem
	// surfaces here rather than on the first query.
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

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema and seeds the competency catalog. Every
// statement is idempotent, so this is safe to run on existing databases.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			github_id     INTEGER UNIQUE,
			login         TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS competencies (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			skill       TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating competencies table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL REFERENCES users(id),
			text       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_entries_user_id ON entries(user_id);
		CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS entry_competencies (
			entry_id      INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			competency_id INTEGER NOT NULL REFERENCES competencies(id),
			PRIMARY KEY (entry_id, competency_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating entry_competencies table: %w", err)
	}

	return db.seedCompetencies()
}

// seedCompetencies installs the default skill catalog. The application
// treats the catalog as immutable, so ids are pinned explicitly and
// INSERT OR IGNORE keeps re-runs (and operator-edited catalogs) intact.
func (db *DB) seedCompetencies() error {
	_, err := db.conn.Exec(`
		INSERT OR IGNORE INTO competencies (id, skill, description) VALUES
			(1, 'Communication',     'Expressing ideas clearly in writing and conversation'),
			(2, 'Teamwork',          'Collaborating and sharing credit with others'),
			(3, 'Problem Solving',   'Breaking down and working through hard problems'),
			(4, 'Leadership',        'Guiding people and owning outcomes'),
			(5, 'Adaptability',      'Staying effective when plans change'),
			(6, 'Creativity',        'Finding original angles and approaches'),
			(7, 'Time Management',   'Prioritising and protecting focus'),
			(8, 'Critical Thinking', 'Questioning assumptions and weighing evidence');
	`)
	if err != nil {
		return fmt.Errorf("seeding competencies: %w", err)
	}
	return nil
}
