package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

// CreateMedia registers a content-addressed blob. A duplicate hash is not an
// error: the existing row's id is returned instead (spec.md §3, media is
// immutable once staged).
func (s *SQLiteStore) CreateMedia(m *Media) error {
	if existing, err := s.GetMediaByHash(m.Hash); err == nil {
		*m = *existing
		return nil
	}

	now := time.Now().UTC()
	res, err := s.conn().Exec(
		`INSERT INTO media (hash, path, mime, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.Hash, m.Path, m.Mime, m.Size, now.Unix(),
	)
	if err != nil {
		return &domain.StorageError{Op: "CreateMedia", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &domain.StorageError{Op: "CreateMedia", Err: err}
	}
	m.ID = id
	m.CreatedAt = now
	return nil
}

func (s *SQLiteStore) GetMediaByHash(hash string) (*Media, error) {
	row := s.conn().QueryRow(`SELECT id, hash, path, mime, size, created_at FROM media WHERE hash = ?`, hash)
	var m Media
	var createdAt int64
	err := row.Scan(&m.ID, &m.Hash, &m.Path, &m.Mime, &m.Size, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "media", ID: hash}
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "GetMediaByHash", Err: err}
	}
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &m, nil
}
