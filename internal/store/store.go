package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements every repository over a single SQLite connection.
// Grounded on the teacher's NewSQLiteStore (storage.go), with the connection
// string hardened to WAL mode and a single open connection
// (justinlyon12-AnCLI/internal/storage/sqlite.go NewDB does the same for the
// same reason: SQLite serializes writers regardless, and a pool only invites
// SQLITE_BUSY).
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or attaches to the SQLite file at path, running any pending
// migrations before returning.
func Open(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Tx wraps a *sql.Tx so repository methods can run either against the store
// directly or inside a caller-managed transaction (answer_card's atomic
// card-update-plus-review-insert, spec.md §5).
type Tx struct {
	tx *sql.Tx
}

func (s *SQLiteStore) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// execer is satisfied by both *sql.DB and *sql.Tx, letting every repository
// method below run standalone or inside a Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (s *SQLiteStore) conn() execer { return s.db }
func (t *Tx) conn() execer         { return t.tx }
