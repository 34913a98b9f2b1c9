package toolserver

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/deckconfig"
	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/Gxrco/Anki-MCP/internal/scheduler"
	"github.com/Gxrco/Anki-MCP/internal/store"
)

func setupTestService(t *testing.T) *Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "anki.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fixedNow := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return &Service{
		Store: st,
		Rand:  scheduler.Fixed(0.5),
		Clock: func() time.Time { return fixedNow },
	}
}

func TestCreateDeck_RejectsEmptyName(t *testing.T) {
	svc := setupTestService(t)
	_, err := svc.CreateDeck(CreateDeckParams{Name: ""})
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Fatalf("want *domain.ValidationError, got %v", err)
	}
}

func TestMoveDeck_RejectsCycle(t *testing.T) {
	svc := setupTestService(t)

	root, err := svc.CreateDeck(CreateDeckParams{Name: "Root"})
	if err != nil {
		t.Fatalf("CreateDeck root: %v", err)
	}
	child, err := svc.CreateDeck(CreateDeckParams{Name: "Root::Child", ParentID: &root.DeckID})
	if err != nil {
		t.Fatalf("CreateDeck child: %v", err)
	}

	_, err = svc.MoveDeck(MoveDeckParams{DeckID: root.DeckID, NewParentID: &child.DeckID})
	if err == nil {
		t.Fatalf("want making root's parent = child to be rejected as a cycle")
	}
}

func TestMoveDeck_ReparentsDeck(t *testing.T) {
	svc := setupTestService(t)

	a, err := svc.CreateDeck(CreateDeckParams{Name: "A"})
	if err != nil {
		t.Fatalf("CreateDeck a: %v", err)
	}
	b, err := svc.CreateDeck(CreateDeckParams{Name: "B"})
	if err != nil {
		t.Fatalf("CreateDeck b: %v", err)
	}

	if _, err := svc.MoveDeck(MoveDeckParams{DeckID: b.DeckID, NewParentID: &a.DeckID}); err != nil {
		t.Fatalf("MoveDeck: %v", err)
	}

	got, err := svc.ListDecks(ListDecksParams{})
	if err != nil {
		t.Fatalf("ListDecks: %v", err)
	}
	if len(got.Decks) != 1 || len(got.Decks[0].Children) != 1 {
		t.Fatalf("want B nested under A after move, got %+v", got.Decks)
	}
}

func TestListDecks_NestsChildrenByDefault(t *testing.T) {
	svc := setupTestService(t)

	root, err := svc.CreateDeck(CreateDeckParams{Name: "Spanish"})
	if err != nil {
		t.Fatalf("CreateDeck root: %v", err)
	}
	_, err = svc.CreateDeck(CreateDeckParams{Name: "Spanish::Verbs", ParentID: &root.DeckID})
	if err != nil {
		t.Fatalf("CreateDeck child: %v", err)
	}

	got, err := svc.ListDecks(ListDecksParams{})
	if err != nil {
		t.Fatalf("ListDecks: %v", err)
	}
	if len(got.Decks) != 1 {
		t.Fatalf("want 1 root deck, got %d", len(got.Decks))
	}
	if len(got.Decks[0].Children) != 1 {
		t.Fatalf("want 1 nested child, got %d", len(got.Decks[0].Children))
	}
	if got.Decks[0].Children[0].Name != "Spanish::Verbs" {
		t.Fatalf("want child name Spanish::Verbs, got %q", got.Decks[0].Children[0].Name)
	}

	flat, err := svc.ListDecks(ListDecksParams{Flat: true})
	if err != nil {
		t.Fatalf("ListDecks flat: %v", err)
	}
	if len(flat.Decks) != 2 {
		t.Fatalf("want 2 decks in flat list, got %d", len(flat.Decks))
	}
}

// TestEndToEndReviewCycle walks create_deck -> add_note ->
// generate_cards_for_note -> get_next_card -> answer_card, matching
// spec.md's scenario 1 end-to-end through the tool surface's Go types.
func TestEndToEndReviewCycle(t *testing.T) {
	svc := setupTestService(t)

	deck, err := svc.CreateDeck(CreateDeckParams{Name: "Capitals"})
	if err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}

	note, err := svc.AddNote(AddNoteParams{
		DeckID: deck.DeckID,
		Model:  string(domain.ModelBasic),
		Fields: map[string]string{"front": "Capital of France?", "back": "Paris"},
		Tags:   []string{"geography"},
	})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}

	gen, err := svc.GenerateCardsForNote(GenerateCardsForNoteParams{NoteID: note.NoteID})
	if err != nil {
		t.Fatalf("GenerateCardsForNote: %v", err)
	}
	if len(gen.Cards) != 1 {
		t.Fatalf("want 1 generated card for a basic note, got %d", len(gen.Cards))
	}
	if gen.Cards[0].State != string(domain.StateNew) {
		t.Fatalf("want new card, got state %q", gen.Cards[0].State)
	}

	next, err := svc.GetNextCard(GetNextCardParams{DeckID: &deck.DeckID})
	if err != nil {
		t.Fatalf("GetNextCard: %v", err)
	}
	if next.Card == nil {
		t.Fatalf("want a due card, got none")
	}
	if next.NewRemaining < 1 {
		t.Fatalf("want newRemaining >= 1, got %d", next.NewRemaining)
	}

	answer, err := svc.AnswerCard(AnswerCardParams{CardID: next.Card.CardID, Rating: int(domain.Good)})
	if err != nil {
		t.Fatalf("AnswerCard: %v", err)
	}
	if answer.Card.State != string(domain.StateLearning) && answer.Card.State != string(domain.StateReview) {
		t.Fatalf("want learning or review after a Good rating from new, got %q", answer.Card.State)
	}

	info, err := svc.CardInfo(CardInfoParams{CardID: next.Card.CardID})
	if err != nil {
		t.Fatalf("CardInfo: %v", err)
	}
	if len(info.Reviews) != 1 {
		t.Fatalf("want 1 logged review, got %d", len(info.Reviews))
	}
	if info.Question == "" || info.Answer == "" {
		t.Fatalf("want rendered question/answer, got empty")
	}
}

func TestGenerateCardsForNote_ClozeMintsOnePerOrdinal(t *testing.T) {
	svc := setupTestService(t)

	deck, err := svc.CreateDeck(CreateDeckParams{Name: "Cloze"})
	if err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}
	note, err := svc.AddNote(AddNoteParams{
		DeckID: deck.DeckID,
		Model:  string(domain.ModelCloze),
		Fields: map[string]string{"text": "The mitochondria is the {{c1::powerhouse}} of the {{c2::cell}}"},
	})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}

	gen, err := svc.GenerateCardsForNote(GenerateCardsForNoteParams{NoteID: note.NoteID})
	if err != nil {
		t.Fatalf("GenerateCardsForNote: %v", err)
	}
	if len(gen.Cards) != 2 {
		t.Fatalf("want 2 cloze cards (c1, c2), got %d", len(gen.Cards))
	}

	// Regenerating is idempotent: no new cards for ordinals already minted.
	again, err := svc.GenerateCardsForNote(GenerateCardsForNoteParams{NoteID: note.NoteID})
	if err != nil {
		t.Fatalf("GenerateCardsForNote (again): %v", err)
	}
	if len(again.Cards) != 0 {
		t.Fatalf("want 0 new cards on regeneration, got %d", len(again.Cards))
	}
}

func TestSearchCards_FiltersByDeckAndTag(t *testing.T) {
	svc := setupTestService(t)

	deck, err := svc.CreateDeck(CreateDeckParams{Name: "Animals"})
	if err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}
	note, err := svc.AddNote(AddNoteParams{
		DeckID: deck.DeckID,
		Model:  string(domain.ModelBasic),
		Fields: map[string]string{"front": "Dog sound?", "back": "Bark"},
		Tags:   []string{"sounds"},
	})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if _, err := svc.GenerateCardsForNote(GenerateCardsForNoteParams{NoteID: note.NoteID}); err != nil {
		t.Fatalf("GenerateCardsForNote: %v", err)
	}

	found, err := svc.SearchCards(SearchCardsParams{Query: "deck:Animals tag:sounds"})
	if err != nil {
		t.Fatalf("SearchCards: %v", err)
	}
	if len(found.Cards) != 1 {
		t.Fatalf("want 1 matching card, got %d", len(found.Cards))
	}

	none, err := svc.SearchCards(SearchCardsParams{Query: "tag:nonexistent"})
	if err != nil {
		t.Fatalf("SearchCards: %v", err)
	}
	if len(none.Cards) != 0 {
		t.Fatalf("want 0 matching cards, got %d", len(none.Cards))
	}
}

func TestFlagAndMarkCards(t *testing.T) {
	svc := setupTestService(t)

	deck, err := svc.CreateDeck(CreateDeckParams{Name: "Flags"})
	if err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}
	note, err := svc.AddNote(AddNoteParams{
		DeckID: deck.DeckID, Model: string(domain.ModelBasic),
		Fields: map[string]string{"front": "Q", "back": "A"},
	})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	gen, err := svc.GenerateCardsForNote(GenerateCardsForNoteParams{NoteID: note.NoteID})
	if err != nil {
		t.Fatalf("GenerateCardsForNote: %v", err)
	}
	cardID := gen.Cards[0].CardID

	if _, err := svc.FlagCards(FlagCardsParams{CardIDs: []int64{cardID}, Flag: 3}); err != nil {
		t.Fatalf("FlagCards: %v", err)
	}
	if _, err := svc.MarkCards(MarkCardsParams{CardIDs: []int64{cardID}, Marked: true}); err != nil {
		t.Fatalf("MarkCards: %v", err)
	}

	_, err = svc.FlagCards(FlagCardsParams{CardIDs: []int64{cardID}, Flag: 8})
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Fatalf("want *domain.ValidationError for out-of-range flag, got %v", err)
	}
}

func TestSuspendAndUnsuspendCards_RestoresByRepsHistory(t *testing.T) {
	svc := setupTestService(t)

	deck, err := svc.CreateDeck(CreateDeckParams{Name: "Suspend"})
	if err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}
	note, err := svc.AddNote(AddNoteParams{
		DeckID: deck.DeckID, Model: string(domain.ModelBasic),
		Fields: map[string]string{"front": "Q", "back": "A"},
	})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	gen, err := svc.GenerateCardsForNote(GenerateCardsForNoteParams{NoteID: note.NoteID})
	if err != nil {
		t.Fatalf("GenerateCardsForNote: %v", err)
	}
	cardID := gen.Cards[0].CardID

	if _, err := svc.SuspendCards(CardIDsParams{CardIDs: []int64{cardID}}); err != nil {
		t.Fatalf("SuspendCards: %v", err)
	}
	after, err := svc.UnsuspendCards(CardIDsParams{CardIDs: []int64{cardID}})
	if err != nil {
		t.Fatalf("UnsuspendCards: %v", err)
	}
	if after.Updated != 1 {
		t.Fatalf("want 1 updated, got %d", after.Updated)
	}

	info, err := svc.CardInfo(CardInfoParams{CardID: cardID})
	if err != nil {
		t.Fatalf("CardInfo: %v", err)
	}
	if info.Card.State != string(domain.StateNew) {
		t.Fatalf("want restored to new (never reviewed), got %q", info.Card.State)
	}
}

func TestStats_ReportsLeechCount(t *testing.T) {
	svc := setupTestService(t)

	deck, err := svc.CreateDeck(CreateDeckParams{Name: "Leeches"})
	if err != nil {
		t.Fatalf("CreateDeck: %v", err)
	}
	threshold := 1
	if _, err := svc.ConfigSet(ConfigSetParams{DeckID: deck.DeckID, Patch: deckconfig.Patch{LeechThreshold: &threshold}}); err != nil {
		t.Fatalf("ConfigSet: %v", err)
	}
	note, err := svc.AddNote(AddNoteParams{
		DeckID: deck.DeckID, Model: string(domain.ModelBasic),
		Fields: map[string]string{"front": "Q", "back": "A"},
	})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	gen, err := svc.GenerateCardsForNote(GenerateCardsForNoteParams{NoteID: note.NoteID})
	if err != nil {
		t.Fatalf("GenerateCardsForNote: %v", err)
	}
	cardID := gen.Cards[0].CardID

	// Graduate the card into review (new -> learning -> review), then fail
	// it once; with leechThreshold=1 that single lapse crosses the threshold.
	if _, err := svc.AnswerCard(AnswerCardParams{CardID: cardID, Rating: int(domain.Good)}); err != nil {
		t.Fatalf("AnswerCard (1): %v", err)
	}
	if _, err := svc.AnswerCard(AnswerCardParams{CardID: cardID, Rating: int(domain.Good)}); err != nil {
		t.Fatalf("AnswerCard (2): %v", err)
	}
	if _, err := svc.AnswerCard(AnswerCardParams{CardID: cardID, Rating: int(domain.Again)}); err != nil {
		t.Fatalf("AnswerCard (3): %v", err)
	}

	stats, err := svc.Stats(StatsParams{DeckID: &deck.DeckID})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.LeechCount != 1 {
		t.Fatalf("want leechCount=1 with threshold 1 and a lapse, got %d", stats.LeechCount)
	}
}
