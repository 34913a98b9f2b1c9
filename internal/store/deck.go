package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

// CreateDeck inserts a deck, rejecting a ParentID that names no existing deck
// with NotFound. A newly inserted deck has no descendants, so it cannot close
// a cycle; reparenting is checked by MoveDeck.
func (s *SQLiteStore) CreateDeck(d *Deck) error {
	if d.ParentID != nil {
		ok, err := deckExists(s.conn(), *d.ParentID)
		if err != nil {
			return &domain.StorageError{Op: "CreateDeck", Err: err}
		}
		if !ok {
			return &domain.NotFoundError{Kind: "deck", ID: *d.ParentID}
		}
	}

	now := time.Now().UTC()
	res, err := s.conn().Exec(
		`INSERT INTO decks (name, parent_id, config_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		d.Name, d.ParentID, d.ConfigJSON, now.Unix(), now.Unix(),
	)
	if err != nil {
		return &domain.StorageError{Op: "CreateDeck", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &domain.StorageError{Op: "CreateDeck", Err: err}
	}
	d.ID = id
	d.CreatedAt, d.UpdatedAt = now, now
	return nil
}

func deckExists(c execer, id int64) (bool, error) {
	var n int
	err := c.QueryRow(`SELECT COUNT(*) FROM decks WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

func (s *SQLiteStore) GetDeck(id int64) (*Deck, error) {
	return scanDeck(s.conn().QueryRow(`SELECT id, name, parent_id, config_json, created_at, updated_at FROM decks WHERE id = ?`, id))
}

func (s *SQLiteStore) GetDeckByName(name string) (*Deck, error) {
	return scanDeck(s.conn().QueryRow(`SELECT id, name, parent_id, config_json, created_at, updated_at FROM decks WHERE name = ?`, name))
}

func scanDeck(row *sql.Row) (*Deck, error) {
	var d Deck
	var parentID sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&d.ID, &d.Name, &parentID, &d.ConfigJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "deck"}
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "GetDeck", Err: err}
	}
	if parentID.Valid {
		pid := parentID.Int64
		d.ParentID = &pid
	}
	d.CreatedAt = time.Unix(createdAt, 0).UTC()
	d.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &d, nil
}

// ListDecks returns every deck ordered by name. When flat is false the
// caller is expected to use ParentID to reconstruct the tree; the store
// itself does not nest results (spec.md §4.5 list_decks).
func (s *SQLiteStore) ListDecks() ([]*Deck, error) {
	rows, err := s.conn().Query(`SELECT id, name, parent_id, config_json, created_at, updated_at FROM decks ORDER BY name`)
	if err != nil {
		return nil, &domain.StorageError{Op: "ListDecks", Err: err}
	}
	defer rows.Close()

	var decks []*Deck
	for rows.Next() {
		var d Deck
		var parentID sql.NullInt64
		var createdAt, updatedAt int64
		if err := rows.Scan(&d.ID, &d.Name, &parentID, &d.ConfigJSON, &createdAt, &updatedAt); err != nil {
			return nil, &domain.StorageError{Op: "ListDecks", Err: err}
		}
		if parentID.Valid {
			pid := parentID.Int64
			d.ParentID = &pid
		}
		d.CreatedAt = time.Unix(createdAt, 0).UTC()
		d.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		decks = append(decks, &d)
	}
	return decks, rows.Err()
}

// UpdateDeckConfig persists a deck's config_json, rejecting unknown decks.
func (s *SQLiteStore) UpdateDeckConfig(id int64, configJSON string) error {
	now := time.Now().UTC()
	res, err := s.conn().Exec(`UPDATE decks SET config_json = ?, updated_at = ? WHERE id = ?`, configJSON, now.Unix(), id)
	if err != nil {
		return &domain.StorageError{Op: "UpdateDeckConfig", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &domain.StorageError{Op: "UpdateDeckConfig", Err: err}
	}
	if n == 0 {
		return &domain.NotFoundError{Kind: "deck", ID: id}
	}
	return nil
}

// DeckCycleCheck reports whether making child's parent equal candidate would
// introduce a cycle: true if candidate is child or a descendant of child.
func (s *SQLiteStore) DeckCycleCheck(child, candidate int64) (bool, error) {
	if child == candidate {
		return true, nil
	}
	decks, err := s.ListDecks()
	if err != nil {
		return false, err
	}
	childrenOf := make(map[int64][]int64)
	for _, d := range decks {
		if d.ParentID != nil {
			childrenOf[*d.ParentID] = append(childrenOf[*d.ParentID], d.ID)
		}
	}
	var walk func(int64) bool
	visited := make(map[int64]bool)
	walk = func(id int64) bool {
		if id == candidate {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, c := range childrenOf[id] {
			if walk(c) {
				return true
			}
		}
		return false
	}
	return walk(child), nil
}

// DescendantDeckIDs returns id and every deck transitively parented under it
// (spec.md §4.3 get_next_card includeSubdecks, §4.4 search_cards deck: scope).
func (s *SQLiteStore) DescendantDeckIDs(id int64) ([]int64, error) {
	decks, err := s.ListDecks()
	if err != nil {
		return nil, err
	}
	childrenOf := make(map[int64][]int64)
	for _, d := range decks {
		if d.ParentID != nil {
			childrenOf[*d.ParentID] = append(childrenOf[*d.ParentID], d.ID)
		}
	}

	var out []int64
	visited := make(map[int64]bool)
	var walk func(int64)
	walk = func(cur int64) {
		if visited[cur] {
			return
		}
		visited[cur] = true
		out = append(out, cur)
		for _, c := range childrenOf[cur] {
			walk(c)
		}
	}
	walk(id)
	return out, nil
}

func newDeckCycleError(deckID int64) *domain.ValidationError {
	verr := domain.NewValidationError()
	verr.Add("newParentId", fmt.Sprintf("would make deck %d an ancestor of itself", deckID))
	return verr
}

// MoveDeck reparents id under newParent (nil promotes it to a root deck),
// rejecting unknown decks and any reparent that DeckCycleCheck flags as
// cyclic.
func (s *SQLiteStore) MoveDeck(id int64, newParent *int64) error {
	ok, err := deckExists(s.conn(), id)
	if err != nil {
		return &domain.StorageError{Op: "MoveDeck", Err: err}
	}
	if !ok {
		return &domain.NotFoundError{Kind: "deck", ID: id}
	}

	if newParent != nil {
		ok, err := deckExists(s.conn(), *newParent)
		if err != nil {
			return &domain.StorageError{Op: "MoveDeck", Err: err}
		}
		if !ok {
			return &domain.NotFoundError{Kind: "deck", ID: *newParent}
		}
		cyclic, err := s.DeckCycleCheck(id, *newParent)
		if err != nil {
			return &domain.StorageError{Op: "MoveDeck", Err: err}
		}
		if cyclic {
			return newDeckCycleError(id)
		}
	}

	now := time.Now().UTC()
	_, err = s.conn().Exec(`UPDATE decks SET parent_id = ?, updated_at = ? WHERE id = ?`, newParent, now.Unix(), id)
	if err != nil {
		return &domain.StorageError{Op: "MoveDeck", Err: err}
	}
	return nil
}
