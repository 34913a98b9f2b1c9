package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

// CreateNote inserts a note. Fields and tags are serialized at this
// boundary only (spec.md DESIGN NOTES "Dynamic JSON field maps"); everything
// above this package works with map[string]string and []string.
func (s *SQLiteStore) CreateNote(n *Note) error {
	fieldsJSON, err := marshalFields(n.Fields)
	if err != nil {
		return &domain.StorageError{Op: "CreateNote", Err: err}
	}
	now := time.Now().UTC()
	res, err := s.conn().Exec(
		`INSERT INTO notes (deck_id, model, fields_json, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.DeckID, n.Model, fieldsJSON, joinTags(n.Tags), now.Unix(), now.Unix(),
	)
	if err != nil {
		return &domain.StorageError{Op: "CreateNote", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &domain.StorageError{Op: "CreateNote", Err: err}
	}
	n.ID = id
	n.CreatedAt, n.UpdatedAt = now, now
	return nil
}

func (s *SQLiteStore) GetNote(id int64) (*Note, error) {
	return scanNote(s.conn().QueryRow(`SELECT id, deck_id, model, fields_json, tags, created_at, updated_at FROM notes WHERE id = ?`, id))
}

func scanNote(row *sql.Row) (*Note, error) {
	var n Note
	var fieldsJSON, tags string
	var createdAt, updatedAt int64

	err := row.Scan(&n.ID, &n.DeckID, &n.Model, &fieldsJSON, &tags, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "note"}
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "GetNote", Err: err}
	}
	fields, err := unmarshalFields(fieldsJSON)
	if err != nil {
		return nil, &domain.StorageError{Op: "GetNote", Err: err}
	}
	n.Fields = fields
	n.Tags = splitTags(tags)
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	n.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &n, nil
}

// NotesByDeck returns every note directly filed under deckID, for import
// dedupe and the search compiler's note: field scans.
func (s *SQLiteStore) NotesByDeck(deckID int64) ([]*Note, error) {
	rows, err := s.conn().Query(`SELECT id, deck_id, model, fields_json, tags, created_at, updated_at FROM notes WHERE deck_id = ?`, deckID)
	if err != nil {
		return nil, &domain.StorageError{Op: "NotesByDeck", Err: err}
	}
	defer rows.Close()

	var out []*Note
	for rows.Next() {
		var n Note
		var fieldsJSON, tags string
		var createdAt, updatedAt int64
		if err := rows.Scan(&n.ID, &n.DeckID, &n.Model, &fieldsJSON, &tags, &createdAt, &updatedAt); err != nil {
			return nil, &domain.StorageError{Op: "NotesByDeck", Err: err}
		}
		fields, err := unmarshalFields(fieldsJSON)
		if err != nil {
			return nil, &domain.StorageError{Op: "NotesByDeck", Err: err}
		}
		n.Fields = fields
		n.Tags = splitTags(tags)
		n.CreatedAt = time.Unix(createdAt, 0).UTC()
		n.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, &n)
	}
	return out, rows.Err()
}

// AllNotes returns every note in the collection, for the search compiler's
// full-text and tag scans.
func (s *SQLiteStore) AllNotes() ([]*Note, error) {
	rows, err := s.conn().Query(`SELECT id, deck_id, model, fields_json, tags, created_at, updated_at FROM notes`)
	if err != nil {
		return nil, &domain.StorageError{Op: "AllNotes", Err: err}
	}
	defer rows.Close()

	var out []*Note
	for rows.Next() {
		var n Note
		var fieldsJSON, tags string
		var createdAt, updatedAt int64
		if err := rows.Scan(&n.ID, &n.DeckID, &n.Model, &fieldsJSON, &tags, &createdAt, &updatedAt); err != nil {
			return nil, &domain.StorageError{Op: "AllNotes", Err: err}
		}
		fields, err := unmarshalFields(fieldsJSON)
		if err != nil {
			return nil, &domain.StorageError{Op: "AllNotes", Err: err}
		}
		n.Fields = fields
		n.Tags = splitTags(tags)
		n.CreatedAt = time.Unix(createdAt, 0).UTC()
		n.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, &n)
	}
	return out, rows.Err()
}

// AddNoteTag appends tag if the note doesn't already carry it (used by the
// leech-tag side channel, spec.md DESIGN NOTES "Leech tag action").
func (s *SQLiteStore) AddNoteTag(noteID int64, tag string) error {
	n, err := s.GetNote(noteID)
	if err != nil {
		return err
	}
	for _, t := range n.Tags {
		if t == tag {
			return nil
		}
	}
	n.Tags = append(n.Tags, tag)
	now := time.Now().UTC()
	_, err = s.conn().Exec(`UPDATE notes SET tags = ?, updated_at = ? WHERE id = ?`, joinTags(n.Tags), now.Unix(), noteID)
	if err != nil {
		return &domain.StorageError{Op: "AddNoteTag", Err: err}
	}
	return nil
}

func marshalFields(f map[string]string) (string, error) {
	return jsonMarshalMap(f)
}

func unmarshalFields(s string) (map[string]string, error) {
	return jsonUnmarshalMap(s)
}

// joinTags/splitTags store tags as a space-joined string (Anki's own
// convention: a leading and trailing space so "tag:foo" substring search
// can't false-match "foobar").
func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}

func splitTags(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
