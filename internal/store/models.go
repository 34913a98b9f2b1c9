// Package store is the persistence layer (spec.md §6): schema, migrations,
// and repositories over a single SQLite file. Business logic above this
// package never touches *sql.DB directly.
//
// Grounded on the teacher's storage.go Store interface and SQLiteStore, with
// the table shape replaced by spec.md §6's exact schema and the FSRS-typed
// fsrs_data column dropped in favour of the SM-2 fields the scheduler
// actually produces. The teacher's flag and marked fields are kept as the
// card_flag and card_marked columns (migration002CardFlagsAndMarks).
package store

import "time"

// Deck is a node in the deck hierarchy (spec.md §3).
type Deck struct {
	ID         int64
	Name       string
	ParentID   *int64
	ConfigJSON string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Note is a single fact with an open-keyed field map (spec.md §3, DESIGN
// NOTES "Dynamic JSON field maps").
type Note struct {
	ID        int64
	DeckID    int64
	Model     string
	Fields    map[string]string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Card is one schedulable unit generated from a Note (spec.md §3, §4.6).
type Card struct {
	ID            int64
	NoteID        int64
	Template      string
	State         string
	Due           int
	Ivl           int
	Ease          float64
	Reps          int
	Lapses        int
	QueuePosition *int64
	CardFlag      int
	CardMarked    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Review is one append-only review-log row (spec.md §3, §5).
type Review struct {
	ID          int64
	CardID      int64
	Ts          time.Time
	Rating      int
	IvlBefore   int
	IvlAfter    int
	EaseBefore  float64
	EaseAfter   float64
	StateBefore string
	StateAfter  string
}

// Media is a content-addressed binary blob referenced by card HTML
// (spec.md §3).
type Media struct {
	ID        int64
	Hash      string
	Path      string
	Mime      string
	Size      int64
	CreatedAt time.Time
}

// DeckStats summarizes a deck's card states for the stats tool (spec.md §4.8,
// supplemented from the teacher's GetDeckStats/DeckStats).
type DeckStats struct {
	DeckID     int64 `json:"deckId"`
	TotalCards int   `json:"totalCards"`
	New        int   `json:"newCards"`
	Learning   int   `json:"learning"`
	Relearning int   `json:"relearning"`
	Review     int   `json:"review"`
	Suspended  int   `json:"suspended"`
	Buried     int   `json:"buried"`
	DueToday   int   `json:"dueToday"`

	// ReviewsLast30d and AverageEase supplement the teacher's DeckStats with
	// reviews-table aggregation (SPEC_FULL.md §4.8).
	ReviewsLast30d int     `json:"reviewsLast30d"`
	AverageEase    float64 `json:"averageEase"`
	LeechCount     int     `json:"leechCount"`
}
