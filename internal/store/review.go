package store

import (
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

// AnswerCardResult is what AnswerCard returns to the caller (toolserver):
// the card's persisted post-review state and the review-log row, matching
// spec.md §8's pre-image/post-image invariant.
type AnswerCardResult struct {
	Card   *Card
	Review *Review
}

// AnswerCard applies a scheduling transition, appends the review log row,
// and (when requested) buries the note's sibling cards, all in one
// transaction: either every mutation lands, or none does (spec.md §5 "Card
// update + review-log insert are atomic" and "sibling burial ... must be
// part of the same transaction as the review commit").
//
// before is the SchedulingState as read prior to the call; after is the
// value the scheduler computed. The caller (toolserver) is responsible for
// running the scheduler itself — this method only persists its result,
// keeping the scheduler a pure function with no storage dependency.
func (s *SQLiteStore) AnswerCard(cardID, noteID int64, rating domain.Rating, before, after domain.SchedulingState, newState string, burySiblings bool, now time.Time) (*AnswerCardResult, error) {
	tx, err := s.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.tx.Exec(
		`UPDATE cards SET state = ?, due = ?, ivl = ?, ease = ?, reps = ?, lapses = ?, updated_at = ? WHERE id = ?`,
		newState, after.Due, after.Ivl, after.Ease, after.Reps, after.Lapses, now.Unix(), cardID,
	); err != nil {
		return nil, &domain.StorageError{Op: "AnswerCard.updateCard", Err: err}
	}

	res, err := tx.tx.Exec(
		`INSERT INTO reviews (card_id, ts, rating, ivl_before, ivl_after, ease_before, ease_after, state_before, state_after)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cardID, now.Unix(), int(rating), before.Ivl, after.Ivl, before.Ease, after.Ease, string(before.State), newState,
	)
	if err != nil {
		return nil, &domain.StorageError{Op: "AnswerCard.insertReview", Err: err}
	}
	reviewID, err := res.LastInsertId()
	if err != nil {
		return nil, &domain.StorageError{Op: "AnswerCard.insertReview", Err: err}
	}

	if burySiblings {
		if err := burySiblingsTx(tx.tx, noteID, cardID, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &domain.StorageError{Op: "AnswerCard.commit", Err: err}
	}

	card, err := s.GetCard(cardID)
	if err != nil {
		return nil, err
	}
	return &AnswerCardResult{
		Card: card,
		Review: &Review{
			ID:          reviewID,
			CardID:      cardID,
			Ts:          now,
			Rating:      int(rating),
			IvlBefore:   before.Ivl,
			IvlAfter:    after.Ivl,
			EaseBefore:  before.Ease,
			EaseAfter:   after.Ease,
			StateBefore: string(before.State),
			StateAfter:  newState,
		},
	}, nil
}

// BurySiblings transitions every other card sharing noteID to "buried",
// skipping any already suspended (spec.md §8 "Sibling burial law"). Exposed
// standalone for callers outside the answer_card path; AnswerCard runs the
// same logic (burySiblingsTx) inside its own transaction instead.
func (s *SQLiteStore) BurySiblings(noteID, exceptCardID int64) error {
	return burySiblingsTx(s.conn(), noteID, exceptCardID, time.Now().UTC())
}

func burySiblingsTx(c execer, noteID, exceptCardID int64, now time.Time) error {
	cards, err := cardsByNote(c, noteID)
	if err != nil {
		return err
	}
	for _, card := range cards {
		if card.ID == exceptCardID || card.State == string(domain.StateSuspended) {
			continue
		}
		if _, err := c.Exec(`UPDATE cards SET state = ?, updated_at = ? WHERE id = ?`, domain.StateBuried, now.Unix(), card.ID); err != nil {
			return &domain.StorageError{Op: "BurySiblings", Err: err}
		}
	}
	return nil
}

// ReviewsForCard returns a card's review log ordered oldest-first (card_info,
// spec.md §4.5).
func (s *SQLiteStore) ReviewsForCard(cardID int64) ([]*Review, error) {
	rows, err := s.conn().Query(
		`SELECT id, card_id, ts, rating, ivl_before, ivl_after, ease_before, ease_after, state_before, state_after
		 FROM reviews WHERE card_id = ? ORDER BY ts`, cardID)
	if err != nil {
		return nil, &domain.StorageError{Op: "ReviewsForCard", Err: err}
	}
	defer rows.Close()

	var out []*Review
	for rows.Next() {
		var r Review
		var ts int64
		if err := rows.Scan(&r.ID, &r.CardID, &ts, &r.Rating, &r.IvlBefore, &r.IvlAfter, &r.EaseBefore, &r.EaseAfter, &r.StateBefore, &r.StateAfter); err != nil {
			return nil, &domain.StorageError{Op: "ReviewsForCard", Err: err}
		}
		r.Ts = time.Unix(ts, 0).UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// ReviewsInRange returns the distinct IDs of cards reviewed between
// daysAgoStart and daysAgoEnd days before now, inclusive (daysAgoStart <=
// daysAgoEnd, both measured in days ago, so the earlier wall-clock bound is
// now minus daysAgoEnd). DeckStatsFor uses it for the 30-day review window.
func (s *SQLiteStore) ReviewsInRange(now time.Time, daysAgoStart, daysAgoEnd int) ([]int64, error) {
	end := now.AddDate(0, 0, -daysAgoStart)
	start := now.AddDate(0, 0, -daysAgoEnd)
	rows, err := s.conn().Query(`SELECT DISTINCT card_id FROM reviews WHERE ts >= ? AND ts <= ?`, start.Unix(), end.Unix())
	if err != nil {
		return nil, &domain.StorageError{Op: "ReviewsInRange", Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &domain.StorageError{Op: "ReviewsInRange", Err: err}
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
