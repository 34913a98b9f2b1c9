package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

// CreateCard inserts a new card in state "new" (spec.md §4.6 card
// generation).
func (s *SQLiteStore) CreateCard(c *Card) error {
	now := time.Now().UTC()
	res, err := s.conn().Exec(
		`INSERT INTO cards (note_id, template, state, due, ivl, ease, reps, lapses, queue_position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.NoteID, c.Template, c.State, c.Due, c.Ivl, c.Ease, c.Reps, c.Lapses, c.QueuePosition, now.Unix(), now.Unix(),
	)
	if err != nil {
		return &domain.StorageError{Op: "CreateCard", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &domain.StorageError{Op: "CreateCard", Err: err}
	}
	c.ID = id
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (s *SQLiteStore) GetCard(id int64) (*Card, error) {
	return scanCard(s.conn().QueryRow(cardSelect+` WHERE id = ?`, id))
}

const cardSelect = `SELECT id, note_id, template, state, due, ivl, ease, reps, lapses, queue_position, card_flag, card_marked, created_at, updated_at FROM cards`

func scanCard(row *sql.Row) (*Card, error) {
	var c Card
	var queuePos sql.NullInt64
	var marked int
	var createdAt, updatedAt int64

	err := row.Scan(&c.ID, &c.NoteID, &c.Template, &c.State, &c.Due, &c.Ivl, &c.Ease, &c.Reps, &c.Lapses, &queuePos, &c.CardFlag, &marked, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "card"}
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "GetCard", Err: err}
	}
	if queuePos.Valid {
		p := queuePos.Int64
		c.QueuePosition = &p
	}
	c.CardMarked = marked != 0
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &c, nil
}

func scanCards(rows *sql.Rows) ([]*Card, error) {
	defer rows.Close()
	var out []*Card
	for rows.Next() {
		var c Card
		var queuePos sql.NullInt64
		var marked int
		var createdAt, updatedAt int64
		if err := rows.Scan(&c.ID, &c.NoteID, &c.Template, &c.State, &c.Due, &c.Ivl, &c.Ease, &c.Reps, &c.Lapses, &queuePos, &c.CardFlag, &marked, &createdAt, &updatedAt); err != nil {
			return nil, &domain.StorageError{Op: "scanCards", Err: err}
		}
		if queuePos.Valid {
			p := queuePos.Int64
			c.QueuePosition = &p
		}
		c.CardMarked = marked != 0
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, &c)
	}
	return out, rows.Err()
}

// CardsByNote returns every card generated from a note, for sibling burial
// and cloze-ordinal uniqueness checks.
func (s *SQLiteStore) CardsByNote(noteID int64) ([]*Card, error) {
	return cardsByNote(s.conn(), noteID)
}

// cardsByNote is the execer-generic core of CardsByNote, shared with
// AnswerCard so sibling burial can run against the same open transaction
// instead of a separate connection (spec.md §5 "Sibling burial ... must be
// part of the same transaction as the review commit").
func cardsByNote(c execer, noteID int64) ([]*Card, error) {
	rows, err := c.Query(cardSelect+` WHERE note_id = ? ORDER BY id`, noteID)
	if err != nil {
		return nil, &domain.StorageError{Op: "CardsByNote", Err: err}
	}
	return scanCards(rows)
}

// SetCardState is a direct state transition used by suspend/unsuspend/
// bury/unbury/reset (spec.md §4.2 admin transitions, which bypass the
// scheduler).
func (s *SQLiteStore) SetCardState(id int64, state string) error {
	now := time.Now().UTC()
	res, err := s.conn().Exec(`UPDATE cards SET state = ?, updated_at = ? WHERE id = ?`, state, now.Unix(), id)
	if err != nil {
		return &domain.StorageError{Op: "SetCardState", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.StorageError{Op: "SetCardState", Err: err}
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "card", ID: id}
	}
	return nil
}

// ResetCard returns a card to its freshly-generated new state, clearing all
// scheduling progress (spec.md §4.2 reset_cards).
func (s *SQLiteStore) ResetCard(id int64) error {
	now := time.Now().UTC()
	_, err := s.conn().Exec(
		`UPDATE cards SET state = ?, due = 0, ivl = 0, ease = 2.5, reps = 0, lapses = 0, queue_position = NULL, updated_at = ? WHERE id = ?`,
		domain.StateNew, now.Unix(), id,
	)
	if err != nil {
		return &domain.StorageError{Op: "ResetCard", Err: err}
	}
	return nil
}

// DeleteCard removes a card and its review log (spec.md §4.2 delete_cards).
func (s *SQLiteStore) DeleteCard(id int64) error {
	if _, err := s.conn().Exec(`DELETE FROM reviews WHERE card_id = ?`, id); err != nil {
		return &domain.StorageError{Op: "DeleteCard", Err: err}
	}
	if _, err := s.conn().Exec(`DELETE FROM cards WHERE id = ?`, id); err != nil {
		return &domain.StorageError{Op: "DeleteCard", Err: err}
	}
	return nil
}

// SetCardFlag sets the colour flag (0-7) on a card, returning NotFound if
// the card does not exist (SPEC_FULL.md §4.9 flag_cards).
func (s *SQLiteStore) SetCardFlag(id int64, flag int) error {
	now := time.Now().UTC()
	res, err := s.conn().Exec(`UPDATE cards SET card_flag = ?, updated_at = ? WHERE id = ?`, flag, now.Unix(), id)
	if err != nil {
		return &domain.StorageError{Op: "SetCardFlag", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.StorageError{Op: "SetCardFlag", Err: err}
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "card", ID: id}
	}
	return nil
}

// SetCardMarked sets the marked flag on a card (SPEC_FULL.md §4.9
// mark_cards).
func (s *SQLiteStore) SetCardMarked(id int64, marked bool) error {
	now := time.Now().UTC()
	val := 0
	if marked {
		val = 1
	}
	res, err := s.conn().Exec(`UPDATE cards SET card_marked = ?, updated_at = ? WHERE id = ?`, val, now.Unix(), id)
	if err != nil {
		return &domain.StorageError{Op: "SetCardMarked", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.StorageError{Op: "SetCardMarked", Err: err}
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "card", ID: id}
	}
	return nil
}

// CardsInDecks returns every card whose note belongs to one of deckIDs, for
// the queue builder and search compiler.
func (s *SQLiteStore) CardsInDecks(deckIDs []int64) ([]*Card, error) {
	if len(deckIDs) == 0 {
		return nil, nil
	}
	placeholders, args := intInClause(deckIDs)
	query := `SELECT c.id, c.note_id, c.template, c.state, c.due, c.ivl, c.ease, c.reps, c.lapses, c.queue_position, c.card_flag, c.card_marked, c.created_at, c.updated_at
	          FROM cards c JOIN notes n ON n.id = c.note_id WHERE n.deck_id IN (` + placeholders + `)`
	rows, err := s.conn().Query(query, args...)
	if err != nil {
		return nil, &domain.StorageError{Op: "CardsInDecks", Err: err}
	}
	return scanCards(rows)
}

func intInClause(ids []int64) (string, []any) {
	placeholders := ""
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = id
	}
	return placeholders, args
}
