package store

import (
	"database/sql"
	"fmt"
)

// migrate brings the schema up to the latest version, tracked in the
// migrations table (spec.md §6). Grounded on the teacher's versioned
// migrate()/runMigrationNNN_ pattern (migrations.go), generalized from a
// single metadata key to a proper migrations(version, applied_at) table as
// spec.md §6 names it directly.
func (s *SQLiteStore) migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return err
	}

	applied, err := s.appliedVersions()
	if err != nil {
		return err
	}

	migrations := []struct {
		version int
		name    string
		fn      func(*sql.Tx) error
	}{
		{1, "initial_schema", migration001InitialSchema},
		{2, "card_flags_and_marks", migration002CardFlagsAndMarks},
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := m.fn(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO migrations (version, applied_at) VALUES (?, strftime('%s','now'))`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): recording version: %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): commit: %w", m.version, m.name, err)
		}
	}

	return nil
}

func (s *SQLiteStore) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version    INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`)
	return err
}

func (s *SQLiteStore) appliedVersions() (map[int]bool, error) {
	rows, err := s.db.Query(`SELECT version FROM migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// migration001InitialSchema creates every table and index spec.md §6 names.
func migration001InitialSchema(tx *sql.Tx) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS decks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		parent_id   INTEGER REFERENCES decks(id),
		config_json TEXT NOT NULL DEFAULT '{}',
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notes (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		deck_id     INTEGER NOT NULL REFERENCES decks(id),
		model       TEXT NOT NULL,
		fields_json TEXT NOT NULL,
		tags        TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cards (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		note_id        INTEGER NOT NULL REFERENCES notes(id),
		template       TEXT NOT NULL,
		state          TEXT NOT NULL,
		due            INTEGER NOT NULL,
		ivl            INTEGER NOT NULL DEFAULT 0,
		ease           REAL NOT NULL DEFAULT 2.5,
		reps           INTEGER NOT NULL DEFAULT 0,
		lapses         INTEGER NOT NULL DEFAULT 0,
		queue_position INTEGER,
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		card_id      INTEGER NOT NULL REFERENCES cards(id),
		ts           INTEGER NOT NULL,
		rating       INTEGER NOT NULL,
		ivl_before   INTEGER NOT NULL,
		ivl_after    INTEGER NOT NULL,
		ease_before  REAL NOT NULL,
		ease_after   REAL NOT NULL,
		state_before TEXT NOT NULL,
		state_after  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS media (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		hash       TEXT NOT NULL UNIQUE,
		path       TEXT NOT NULL,
		mime       TEXT NOT NULL,
		size       INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cards_state_due ON cards(state, due);
	CREATE INDEX IF NOT EXISTS idx_cards_state      ON cards(state);
	CREATE INDEX IF NOT EXISTS idx_cards_due        ON cards(due);
	CREATE INDEX IF NOT EXISTS idx_cards_note        ON cards(note_id);
	CREATE INDEX IF NOT EXISTS idx_notes_deck        ON notes(deck_id);
	CREATE INDEX IF NOT EXISTS idx_notes_tags        ON notes(tags);
	CREATE INDEX IF NOT EXISTS idx_reviews_card       ON reviews(card_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_ts         ON reviews(ts);
	CREATE INDEX IF NOT EXISTS idx_decks_name         ON decks(name);
	CREATE INDEX IF NOT EXISTS idx_decks_parent       ON decks(parent_id);
	CREATE INDEX IF NOT EXISTS idx_media_hash         ON media(hash);
	`
	_, err := tx.Exec(schema)
	return err
}

// migration002CardFlagsAndMarks adds the teacher's colour-flag and
// marked-card metadata (SPEC_FULL.md §3 "Card flags and marks"), exercised
// by the flag_cards/mark_cards bulk tools (§4.9).
func migration002CardFlagsAndMarks(tx *sql.Tx) error {
	const schema = `
	ALTER TABLE cards ADD COLUMN card_flag INTEGER NOT NULL DEFAULT 0;
	ALTER TABLE cards ADD COLUMN card_marked INTEGER NOT NULL DEFAULT 0;
	`
	_, err := tx.Exec(schema)
	return err
}
