package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migration upgrades a database whose user_version is below version.
type migration struct {
	version int
	name    string
	apply   func(db *sql.DB) error
}

// migrations are applied in order. schema.sql always describes the latest
// version, so every migration must be a no-op on a fresh database.
var migrations = []migration{
	{version: 1, name: "actor index", apply: addActorIndex},
}

// Store persists finalized history entries in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures Open.
type Option func(*Store)

// WithLogger sets the logger that reports applied migrations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open creates or opens the history database at path and brings its schema
// up to date. ":memory:" opens a private in-memory database.
//
// The connection pool is limited to one connection: SQLite allows a single
// writer, and an in-memory database lives only as long as its connection.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	s.db = db

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SchemaVersion returns the user_version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

func (s *Store) migrate() error {
	version, err := s.SchemaVersion(context.Background())
	if err != nil {
		return err
	}

	latest := version
	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := m.apply(s.db); err != nil {
			return fmt.Errorf("migrate to v%d (%s): %w", m.version, m.name, err)
		}
		s.logger.Debug("schema migrated",
			"version", m.version,
			"migration", m.name,
			"event", "store_migrated",
		)
		latest = m.version
	}

	if latest == version {
		return nil
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", latest)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func addActorIndex(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_history_entries_actor
		ON history_entries(actor)
	`)
	return err
}

// pragma returns the current value of a pragma as text.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return value, nil
}
