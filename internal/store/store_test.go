package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "anki.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetDeck(t *testing.T) {
	s := setupTestStore(t)

	d := &Deck{Name: "Spanish::Basics", ConfigJSON: "{}"}
	if err := s.CreateDeck(d); err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}
	if d.ID != 1 {
		t.Fatalf("want deckId=1, got %d", d.ID)
	}

	got, err := s.GetDeck(d.ID)
	if err != nil {
		t.Fatalf("GetDeck: %v", err)
	}
	if got.Name != "Spanish::Basics" {
		t.Fatalf("want name=Spanish::Basics, got %q", got.Name)
	}
	if got.ParentID != nil {
		t.Fatalf("want parentId=nil, got %v", *got.ParentID)
	}
}

func TestCreateDeck_UnknownParentRejected(t *testing.T) {
	s := setupTestStore(t)

	bogus := int64(999)
	d := &Deck{Name: "Orphan", ParentID: &bogus, ConfigJSON: "{}"}
	err := s.CreateDeck(d)
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("want *domain.NotFoundError, got %v", err)
	}
}

func TestDeckCycleCheck(t *testing.T) {
	s := setupTestStore(t)

	root := &Deck{Name: "Root", ConfigJSON: "{}"}
	if err := s.CreateDeck(root); err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}
	child := &Deck{Name: "Root::Child", ParentID: &root.ID, ConfigJSON: "{}"}
	if err := s.CreateDeck(child); err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}

	cyclic, err := s.DeckCycleCheck(root.ID, child.ID)
	if err != nil {
		t.Fatalf("DeckCycleCheck: %v", err)
	}
	if !cyclic {
		t.Fatalf("want making root's parent = child to be flagged as a cycle")
	}
}

func TestMoveDeck_RejectsCycleAndReparents(t *testing.T) {
	s := setupTestStore(t)

	root := &Deck{Name: "Root", ConfigJSON: "{}"}
	s.CreateDeck(root)
	child := &Deck{Name: "Root::Child", ParentID: &root.ID, ConfigJSON: "{}"}
	s.CreateDeck(child)

	if err := s.MoveDeck(root.ID, &child.ID); err == nil {
		t.Fatalf("want making root's parent = child to be rejected as a cycle")
	}

	other := &Deck{Name: "Other", ConfigJSON: "{}"}
	s.CreateDeck(other)
	if err := s.MoveDeck(child.ID, &other.ID); err != nil {
		t.Fatalf("MoveDeck: %v", err)
	}
	got, err := s.GetDeck(child.ID)
	if err != nil {
		t.Fatalf("GetDeck: %v", err)
	}
	if got.ParentID == nil || *got.ParentID != other.ID {
		t.Fatalf("want child reparented under other, got parentId=%v", got.ParentID)
	}
}

func TestAddNoteAndGenerateCards_ScenarioOne(t *testing.T) {
	s := setupTestStore(t)

	deck := &Deck{Name: "Spanish::Basics", ConfigJSON: "{}"}
	if err := s.CreateDeck(deck); err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}

	note := &Note{
		DeckID: deck.ID,
		Model:  string(domain.ModelBasic),
		Fields: map[string]string{"front": "¿Hola?", "back": "Hello"},
		Tags:   []string{"greeting"},
	}
	if err := s.CreateNote(note); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if note.ID != 1 {
		t.Fatalf("want noteId=1, got %d", note.ID)
	}

	card := &Card{NoteID: note.ID, Template: "forward", State: string(domain.StateNew), Due: 0, Ease: 2.5}
	if err := s.CreateCard(card); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	got, err := s.CardsByNote(note.ID)
	if err != nil {
		t.Fatalf("CardsByNote: %v", err)
	}
	if len(got) != 1 || got[0].Template != "forward" || got[0].State != string(domain.StateNew) || got[0].Due != 0 {
		t.Fatalf("unexpected cards: %+v", got)
	}
}

func TestAnswerCard_ScenarioThree(t *testing.T) {
	s := setupTestStore(t)

	deck := &Deck{Name: "D", ConfigJSON: "{}"}
	s.CreateDeck(deck)
	note := &Note{DeckID: deck.ID, Model: string(domain.ModelBasic), Fields: map[string]string{"front": "q", "back": "a"}}
	s.CreateNote(note)
	card := &Card{NoteID: note.ID, Template: "forward", State: string(domain.StateNew), Due: 0, Ease: 2.5}
	if err := s.CreateCard(card); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	before := domain.SchedulingState{State: domain.StateNew}
	after := domain.SchedulingState{State: domain.StateReview, Due: 2, Ivl: 2, Ease: 2.65, Reps: 1}

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	res, err := s.AnswerCard(card.ID, note.ID, domain.Easy, before, after, string(domain.StateReview), false, now)
	if err != nil {
		t.Fatalf("AnswerCard: %v", err)
	}
	if res.Card.State != string(domain.StateReview) || res.Card.Ivl != 2 || res.Card.Ease != 2.65 {
		t.Fatalf("unexpected post-review card: %+v", res.Card)
	}

	reviews, err := s.ReviewsForCard(card.ID)
	if err != nil {
		t.Fatalf("ReviewsForCard: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("want exactly one review-log row, got %d", len(reviews))
	}
	if reviews[0].StateBefore != string(domain.StateNew) || reviews[0].StateAfter != string(domain.StateReview) {
		t.Fatalf("pre/post image mismatch: %+v", reviews[0])
	}
}

func TestBurySiblings(t *testing.T) {
	s := setupTestStore(t)

	deck := &Deck{Name: "D", ConfigJSON: "{}"}
	s.CreateDeck(deck)
	note := &Note{DeckID: deck.ID, Model: string(domain.ModelCloze), Fields: map[string]string{"text": "x"}}
	s.CreateNote(note)

	c1 := &Card{NoteID: note.ID, Template: "cloze-1", State: string(domain.StateNew), Ease: 2.5}
	c2 := &Card{NoteID: note.ID, Template: "cloze-2", State: string(domain.StateNew), Ease: 2.5}
	s.CreateCard(c1)
	s.CreateCard(c2)

	if err := s.BurySiblings(note.ID, c1.ID); err != nil {
		t.Fatalf("BurySiblings: %v", err)
	}

	got, err := s.GetCard(c2.ID)
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if got.State != string(domain.StateBuried) {
		t.Fatalf("want sibling buried, got state=%s", got.State)
	}
}

func TestAnswerCard_BuriesSiblingsInSameTransaction(t *testing.T) {
	s := setupTestStore(t)

	deck := &Deck{Name: "D", ConfigJSON: "{}"}
	s.CreateDeck(deck)
	note := &Note{DeckID: deck.ID, Model: string(domain.ModelCloze), Fields: map[string]string{"text": "x"}}
	s.CreateNote(note)

	c1 := &Card{NoteID: note.ID, Template: "cloze-1", State: string(domain.StateNew), Ease: 2.5}
	c2 := &Card{NoteID: note.ID, Template: "cloze-2", State: string(domain.StateNew), Ease: 2.5}
	s.CreateCard(c1)
	s.CreateCard(c2)

	before := domain.SchedulingState{State: domain.StateNew}
	after := domain.SchedulingState{State: domain.StateReview, Due: 2, Ivl: 2, Ease: 2.65, Reps: 1}
	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	if _, err := s.AnswerCard(c1.ID, note.ID, domain.Easy, before, after, string(domain.StateReview), true, now); err != nil {
		t.Fatalf("AnswerCard: %v", err)
	}

	sibling, err := s.GetCard(c2.ID)
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if sibling.State != string(domain.StateBuried) {
		t.Fatalf("want sibling buried by AnswerCard itself, got state=%s", sibling.State)
	}
}
