// Package toolserver is the tool-dispatch layer (spec.md §6): it assembles
// the repositories, scheduler, queue builder, search compiler, and codecs
// built in the packages below it into the named tool surface, gates
// mutating tools behind --readonly, and exposes the registry to both the
// stdio transport and the httpmirror debugging surface.
//
// Grounded on the teacher's APIHandler (server.go): a thin struct wrapping
// the store plus whatever in-memory collaborators a handler needs, with one
// method per operation. Here the transport is tool calls instead of HTTP
// routes, so Service methods take and return plain Go values instead of
// (http.ResponseWriter, *http.Request).
package toolserver

import (
	"fmt"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/cardgen"
	"github.com/Gxrco/Anki-MCP/internal/codec"
	"github.com/Gxrco/Anki-MCP/internal/codec/csvcodec"
	"github.com/Gxrco/Anki-MCP/internal/codec/jsoncodec"
	"github.com/Gxrco/Anki-MCP/internal/codec/markdown"
	"github.com/Gxrco/Anki-MCP/internal/deckconfig"
	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/Gxrco/Anki-MCP/internal/epochday"
	"github.com/Gxrco/Anki-MCP/internal/queue"
	"github.com/Gxrco/Anki-MCP/internal/scheduler"
	"github.com/Gxrco/Anki-MCP/internal/search"
	"github.com/Gxrco/Anki-MCP/internal/store"
)

// Service holds every collaborator a tool handler needs. It has no
// transport dependency: both the stdio loop and httpmirror call the same
// methods.
type Service struct {
	Store *store.SQLiteStore
	Rand  scheduler.Rand
	Clock func() time.Time
}

// New builds a Service with production defaults: a real RNG and the system
// clock.
func New(st *store.SQLiteStore) *Service {
	return &Service{
		Store: st,
		Rand:  scheduler.SystemRand{},
		Clock: func() time.Time { return time.Now() },
	}
}

func (s *Service) now() time.Time { return s.Clock() }

// deckConfigFor resolves the scheduling configuration in effect for a card
// by walking card → note → deck.
func (s *Service) deckConfigFor(noteID int64) (deckconfig.Config, error) {
	note, err := s.Store.GetNote(noteID)
	if err != nil {
		return deckconfig.Config{}, err
	}
	deck, err := s.Store.GetDeck(note.DeckID)
	if err != nil {
		return deckconfig.Config{}, err
	}
	return deckconfig.Unmarshal(deck.ConfigJSON)
}

// --- create_deck ---------------------------------------------------------

type CreateDeckParams struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parentId,omitempty"`
}

type CreateDeckResult struct {
	DeckID int64 `json:"deckId"`
}

func (s *Service) CreateDeck(p CreateDeckParams) (*CreateDeckResult, error) {
	if p.Name == "" {
		verr := domain.NewValidationError()
		verr.Add("name", "must be non-empty")
		return nil, verr
	}
	configJSON, err := deckconfig.Marshal(deckconfig.Defaults())
	if err != nil {
		return nil, fmt.Errorf("marshal default deck config: %w", err)
	}
	d := &store.Deck{Name: p.Name, ParentID: p.ParentID, ConfigJSON: configJSON}
	if err := s.Store.CreateDeck(d); err != nil {
		return nil, err
	}
	return &CreateDeckResult{DeckID: d.ID}, nil
}

// --- move_deck -------------------------------------------------------------

type MoveDeckParams struct {
	DeckID      int64  `json:"deckId"`
	NewParentID *int64 `json:"newParentId,omitempty"`
}

type MoveDeckResult struct {
	DeckID int64 `json:"deckId"`
}

// MoveDeck reparents a deck, rejecting a move that would make it its own
// ancestor (store.DeckCycleCheck).
func (s *Service) MoveDeck(p MoveDeckParams) (*MoveDeckResult, error) {
	if p.NewParentID != nil && *p.NewParentID == p.DeckID {
		verr := domain.NewValidationError()
		verr.Add("newParentId", "a deck cannot be its own parent")
		return nil, verr
	}
	if err := s.Store.MoveDeck(p.DeckID, p.NewParentID); err != nil {
		return nil, err
	}
	return &MoveDeckResult{DeckID: p.DeckID}, nil
}

// --- list_decks ------------------------------------------------------------

type ListDecksParams struct {
	Flat bool `json:"flat"`
}

type DeckView struct {
	DeckID   int64      `json:"deckId"`
	Name     string     `json:"name"`
	ParentID *int64     `json:"parentId"`
	Children []DeckView `json:"children,omitempty"`
}

type ListDecksResult struct {
	Decks []DeckView `json:"decks"`
}

func (s *Service) ListDecks(p ListDecksParams) (*ListDecksResult, error) {
	decks, err := s.Store.ListDecks()
	if err != nil {
		return nil, err
	}
	views := make([]DeckView, 0, len(decks))
	byID := make(map[int64]*DeckView, len(decks))
	for _, d := range decks {
		v := DeckView{DeckID: d.ID, Name: d.Name, ParentID: d.ParentID}
		views = append(views, v)
	}
	if p.Flat {
		return &ListDecksResult{Decks: views}, nil
	}

	for i := range views {
		byID[views[i].DeckID] = &views[i]
	}
	var roots []DeckView
	for _, v := range views {
		if v.ParentID == nil {
			roots = append(roots, v)
		}
	}
	// second pass nests children under their resolved parent view, reading
	// from byID so edits to a child don't race the outer range copy.
	var attach func(v *DeckView)
	attach = func(v *DeckView) {
		for _, child := range views {
			if child.ParentID != nil && *child.ParentID == v.DeckID {
				c := *byID[child.DeckID]
				attach(&c)
				v.Children = append(v.Children, c)
			}
		}
	}
	for i := range roots {
		attach(&roots[i])
	}
	return &ListDecksResult{Decks: roots}, nil
}

// --- config_get / config_set / config_reset -------------------------------

type ConfigGetParams struct {
	DeckID int64 `json:"deckId"`
}

func (s *Service) ConfigGet(p ConfigGetParams) (*deckconfig.Config, error) {
	deck, err := s.Store.GetDeck(p.DeckID)
	if err != nil {
		return nil, err
	}
	cfg, err := deckconfig.Unmarshal(deck.ConfigJSON)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type ConfigSetParams struct {
	DeckID int64             `json:"deckId"`
	Patch  deckconfig.Patch  `json:"patch"`
}

func (s *Service) ConfigSet(p ConfigSetParams) (*deckconfig.Config, error) {
	deck, err := s.Store.GetDeck(p.DeckID)
	if err != nil {
		return nil, err
	}
	base, err := deckconfig.Unmarshal(deck.ConfigJSON)
	if err != nil {
		return nil, err
	}
	merged := deckconfig.Merge(base, p.Patch)
	if err := deckconfig.Validate(merged); err != nil {
		return nil, err
	}
	configJSON, err := deckconfig.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("marshal deck config: %w", err)
	}
	if err := s.Store.UpdateDeckConfig(p.DeckID, configJSON); err != nil {
		return nil, err
	}
	return &merged, nil
}

type ConfigResetParams struct {
	DeckID int64 `json:"deckId"`
}

func (s *Service) ConfigReset(p ConfigResetParams) (*deckconfig.Config, error) {
	defaults := deckconfig.Defaults()
	configJSON, err := deckconfig.Marshal(defaults)
	if err != nil {
		return nil, fmt.Errorf("marshal default deck config: %w", err)
	}
	if err := s.Store.UpdateDeckConfig(p.DeckID, configJSON); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// --- add_note / generate_cards_for_note -----------------------------------

type AddNoteParams struct {
	DeckID int64             `json:"deckId"`
	Model  string            `json:"model"`
	Fields map[string]string `json:"fields"`
	Tags   []string          `json:"tags"`
}

type AddNoteResult struct {
	NoteID int64 `json:"noteId"`
}

func (s *Service) AddNote(p AddNoteParams) (*AddNoteResult, error) {
	if !domain.Model(p.Model).Valid() {
		verr := domain.NewValidationError()
		verr.Add("model", "unknown model: "+p.Model)
		return nil, verr
	}
	// Field text is stored as-written; RenderQuestion/RenderAnswer sanitize
	// it at render time (cardgen.sanitizer), so cloze markup in raw fields
	// survives storage untouched.
	n := &store.Note{DeckID: p.DeckID, Model: p.Model, Fields: p.Fields, Tags: p.Tags}
	if err := s.Store.CreateNote(n); err != nil {
		return nil, err
	}
	return &AddNoteResult{NoteID: n.ID}, nil
}

type GenerateCardsForNoteParams struct {
	NoteID int64 `json:"noteId"`
}

type GeneratedCardView struct {
	CardID   int64  `json:"cardId"`
	Template string `json:"template"`
	State    string `json:"state"`
	Due      int    `json:"due"`
}

type GenerateCardsForNoteResult struct {
	Cards []GeneratedCardView `json:"cards"`
}

// GenerateCardsForNote mints cards from a note's model and field map
// (spec.md §4.6), skipping templates the note already has a card for so a
// second call after editing a cloze note only adds the new ordinals.
func (s *Service) GenerateCardsForNote(p GenerateCardsForNoteParams) (*GenerateCardsForNoteResult, error) {
	note, err := s.Store.GetNote(p.NoteID)
	if err != nil {
		return nil, err
	}
	generated, err := cardgen.Generate(domain.Model(note.Model), note.Fields)
	if err != nil {
		return nil, err
	}
	existing, err := s.Store.CardsByNote(p.NoteID)
	if err != nil {
		return nil, err
	}
	haveTemplate := make(map[string]bool, len(existing))
	for _, c := range existing {
		haveTemplate[c.Template] = true
	}

	var out []GeneratedCardView
	for _, g := range generated {
		if haveTemplate[g.Template] {
			continue
		}
		c := &store.Card{
			NoteID:   p.NoteID,
			Template: g.Template,
			State:    string(domain.StateNew),
			Due:      0,
			Ivl:      0,
			Ease:     2.5,
		}
		if err := s.Store.CreateCard(c); err != nil {
			return nil, err
		}
		out = append(out, GeneratedCardView{CardID: c.ID, Template: c.Template, State: c.State, Due: c.Due})
	}
	return &GenerateCardsForNoteResult{Cards: out}, nil
}

// --- get_next_card -----------------------------------------------------

type GetNextCardParams struct {
	DeckID          *int64 `json:"deckId,omitempty"`
	IncludeSubdecks bool   `json:"includeSubdecks"`
}

type CardView struct {
	CardID   int64   `json:"cardId"`
	NoteID   int64   `json:"noteId"`
	Template string  `json:"template"`
	State    string  `json:"state"`
	Due      int     `json:"due"`
	Ivl      int      `json:"ivl"`
	Ease     float64 `json:"ease"`
	Reps     int     `json:"reps"`
	Lapses   int     `json:"lapses"`
}

type GetNextCardResult struct {
	Card          *CardView    `json:"card"`
	Question      string       `json:"question,omitempty"`
	NewRemaining  int          `json:"newRemaining"`
	ReviewRemain  int          `json:"reviewsRemaining"`
}

func (s *Service) scopeDeckIDs(deckID *int64, includeSubdecks bool) ([]int64, error) {
	if deckID == nil {
		decks, err := s.Store.ListDecks()
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(decks))
		for _, d := range decks {
			ids = append(ids, d.ID)
		}
		return ids, nil
	}
	if includeSubdecks {
		return s.Store.DescendantDeckIDs(*deckID)
	}
	return []int64{*deckID}, nil
}

func (s *Service) GetNextCard(p GetNextCardParams) (*GetNextCardResult, error) {
	deckIDs, err := s.scopeDeckIDs(p.DeckID, p.IncludeSubdecks)
	if err != nil {
		return nil, err
	}
	cards, err := s.Store.CardsInDecks(deckIDs)
	if err != nil {
		return nil, err
	}
	today := epochday.Today(s.now())
	next, counts := queue.Next(cards, today)

	result := &GetNextCardResult{NewRemaining: counts.NewRemaining, ReviewRemain: counts.ReviewsRemaining}
	if next == nil {
		return result, nil
	}
	note, err := s.Store.GetNote(next.NoteID)
	if err != nil {
		return nil, err
	}
	question := cardgen.RenderQuestion(domain.Model(note.Model), next.Template, note.Fields)
	result.Card = cardViewOf(next)
	result.Question = question
	return result, nil
}

func cardViewOf(c *store.Card) *CardView {
	return &CardView{
		CardID: c.ID, NoteID: c.NoteID, Template: c.Template, State: c.State,
		Due: c.Due, Ivl: c.Ivl, Ease: c.Ease, Reps: c.Reps, Lapses: c.Lapses,
	}
}

// --- answer_card -----------------------------------------------------------

type AnswerCardParams struct {
	CardID       int64 `json:"cardId"`
	Rating       int   `json:"rating"`
	BurySiblings *bool `json:"burySiblings,omitempty"`
}

type AnswerCardResult struct {
	Card           *CardView `json:"card"`
	LeechTagged    bool      `json:"leechTagged"`
	SiblingsBuried bool      `json:"siblingsBuried"`
}

// AnswerCard applies one SM-2 scheduling transition and commits it alongside
// a review-log row in a single store transaction (spec.md §5, §8).
func (s *Service) AnswerCard(p AnswerCardParams) (*AnswerCardResult, error) {
	rating := domain.Rating(p.Rating)
	if !rating.Valid() {
		verr := domain.NewValidationError()
		verr.Add("rating", "must be 1-4")
		return nil, verr
	}

	card, err := s.Store.GetCard(p.CardID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.deckConfigFor(card.NoteID)
	if err != nil {
		return nil, err
	}

	before := domain.SchedulingState{
		State: domain.CardState(card.State), Due: card.Due, Ivl: card.Ivl, Ease: card.Ease,
		Reps: card.Reps, Lapses: card.Lapses,
	}
	now := s.now()
	result, err := scheduler.Schedule(before, rating, now, cfg, s.Rand)
	if err != nil {
		return nil, err
	}

	burySiblings := cfg.BurySiblings
	if p.BurySiblings != nil {
		burySiblings = *p.BurySiblings
	}

	// Sibling burial runs inside the same transaction as the card update and
	// review-log insert (spec.md §5), so AnswerCard takes the noteID and the
	// burySiblings decision directly rather than issuing a second store call.
	persisted, err := s.Store.AnswerCard(p.CardID, card.NoteID, rating, before, result.State, string(result.State.State), burySiblings, now)
	if err != nil {
		return nil, err
	}

	leechTagged := false
	if result.LeechTagRequested {
		if err := s.Store.AddNoteTag(card.NoteID, "leech"); err != nil {
			return nil, err
		}
		leechTagged = true
	}

	return &AnswerCardResult{Card: cardViewOf(persisted.Card), LeechTagged: leechTagged, SiblingsBuried: burySiblings}, nil
}

// --- card_info ---------------------------------------------------------

type CardInfoParams struct {
	CardID int64 `json:"cardId"`
}

type ReviewView struct {
	Ts          time.Time `json:"ts"`
	Rating      int       `json:"rating"`
	IvlBefore   int       `json:"ivlBefore"`
	IvlAfter    int       `json:"ivlAfter"`
	EaseBefore  float64   `json:"easeBefore"`
	EaseAfter   float64   `json:"easeAfter"`
	StateBefore string    `json:"stateBefore"`
	StateAfter  string    `json:"stateAfter"`
}

type CardInfoResult struct {
	Card     *CardView    `json:"card"`
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Reviews  []ReviewView `json:"reviews"`
}

func (s *Service) CardInfo(p CardInfoParams) (*CardInfoResult, error) {
	card, err := s.Store.GetCard(p.CardID)
	if err != nil {
		return nil, err
	}
	note, err := s.Store.GetNote(card.NoteID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.Store.ReviewsForCard(p.CardID)
	if err != nil {
		return nil, err
	}
	views := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		views = append(views, ReviewView{
			Ts: r.Ts, Rating: r.Rating, IvlBefore: r.IvlBefore, IvlAfter: r.IvlAfter,
			EaseBefore: r.EaseBefore, EaseAfter: r.EaseAfter, StateBefore: r.StateBefore, StateAfter: r.StateAfter,
		})
	}
	return &CardInfoResult{
		Card:     cardViewOf(card),
		Question: cardgen.RenderQuestion(domain.Model(note.Model), card.Template, note.Fields),
		Answer:   cardgen.RenderAnswer(domain.Model(note.Model), card.Template, note.Fields),
		Reviews:  views,
	}, nil
}

// --- search_cards -----------------------------------------------------

type SearchCardsParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type SearchCardsResult struct {
	Cards []CardView `json:"cards"`
}

// SearchCards compiles the Anki-style query into terms and evaluates the
// predicate against every card, joined with its note and deck (spec.md
// §4.4). The search compiler stays a pure in-memory predicate
// (internal/search) so it is unit-testable without a live database; this
// method is the one place that assembles the rows it needs.
func (s *Service) SearchCards(p SearchCardsParams) (*SearchCardsResult, error) {
	terms := search.Parse(p.Query)

	decks, err := s.Store.ListDecks()
	if err != nil {
		return nil, err
	}
	deckNames := make(map[int64]string, len(decks))
	for _, d := range decks {
		deckNames[d.ID] = d.Name
	}

	notes, err := s.Store.AllNotes()
	if err != nil {
		return nil, err
	}
	noteByID := make(map[int64]*store.Note, len(notes))
	for _, n := range notes {
		noteByID[n.ID] = n
	}

	allDeckIDs := make([]int64, 0, len(decks))
	for _, d := range decks {
		allDeckIDs = append(allDeckIDs, d.ID)
	}
	cards, err := s.Store.CardsInDecks(allDeckIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out []CardView
	for _, c := range cards {
		note, ok := noteByID[c.NoteID]
		if !ok {
			continue
		}
		reviews, err := s.Store.ReviewsForCard(c.ID)
		if err != nil {
			return nil, err
		}
		times := make([]time.Time, 0, len(reviews))
		for _, r := range reviews {
			times = append(times, r.Ts)
		}
		row := search.Row{
			CardID:      c.ID,
			State:       domain.CardState(c.State),
			Due:         c.Due,
			Ivl:         c.Ivl,
			Ease:        c.Ease,
			DeckName:    deckNames[note.DeckID],
			Tags:        note.Tags,
			FieldText:   fieldText(note.Fields),
			ReviewTimes: times,
		}
		if search.Matches(terms, row, now) {
			out = append(out, *cardViewOf(c))
			if p.Limit > 0 && len(out) >= p.Limit {
				break
			}
		}
	}
	return &SearchCardsResult{Cards: out}, nil
}

func fieldText(fields map[string]string) string {
	text := ""
	for _, v := range fields {
		text += v + " "
	}
	return text
}

// --- import / export -------------------------------------------------------

type ImportParams struct {
	Format      string `json:"format"` // csv, tsv, json, markdown
	Data        string `json:"data"`
	DeckDefault string `json:"deckDefault,omitempty"`
	Dedupe      bool   `json:"dedupe"`
	DryRun      bool   `json:"dryRun"`
}

func (s *Service) Import(p ImportParams) (*codec.Result, error) {
	var records []codec.NoteRecord
	var err error
	switch p.Format {
	case "csv":
		records, err = csvcodec.Parse(p.Data)
	case "tsv":
		var asCSV string
		asCSV, err = csvcodec.TSVToCSV(p.Data)
		if err == nil {
			records, err = csvcodec.Parse(asCSV)
		}
	case "json":
		records, err = jsoncodec.Parse([]byte(p.Data))
	case "markdown":
		records, err = markdown.Parse(p.Data)
	default:
		verr := domain.NewValidationError()
		verr.Add("format", "must be one of csv, tsv, json, markdown")
		return nil, verr
	}
	if err != nil {
		return nil, fmt.Errorf("parse import data: %w", err)
	}

	defaultConfigJSON, err := deckconfig.Marshal(deckconfig.Defaults())
	if err != nil {
		return nil, fmt.Errorf("marshal default deck config: %w", err)
	}
	opts := codec.Options{DeckDefault: p.DeckDefault, Dedupe: p.Dedupe, DryRun: p.DryRun}
	return codec.Apply(s.Store, records, opts, defaultConfigJSON, s.now())
}

type ExportParams struct {
	DeckID int64  `json:"deckId"`
	Format string `json:"format"` // json, markdown
}

type ExportResult struct {
	Data string `json:"data"`
}

func (s *Service) Export(p ExportParams) (*ExportResult, error) {
	deck, err := s.Store.GetDeck(p.DeckID)
	if err != nil {
		return nil, err
	}
	notes, err := s.Store.NotesByDeck(p.DeckID)
	if err != nil {
		return nil, err
	}

	records := make([]codec.NoteRecord, 0, len(notes))
	for _, n := range notes {
		records = append(records, codec.NoteRecord{Deck: deck.Name, Model: n.Model, Fields: n.Fields, Tags: n.Tags})
	}

	switch p.Format {
	case "markdown":
		return &ExportResult{Data: markdown.Render(deck.Name, records)}, nil
	case "json":
		stats, err := s.Store.DeckStatsFor([]int64{p.DeckID}, s.now())
		if err != nil {
			return nil, err
		}
		doc := jsoncodec.Document{Version: 1, Deck: deck.Name, Stats: stats}
		for _, n := range notes {
			cards, err := s.Store.CardsByNote(n.ID)
			if err != nil {
				return nil, err
			}
			exportedCards := make([]jsoncodec.ExportedCard, 0, len(cards))
			for _, c := range cards {
				exportedCards = append(exportedCards, jsoncodec.ExportedCard{Template: c.Template, State: c.State, Due: c.Due})
			}
			doc.Notes = append(doc.Notes, jsoncodec.ExportedNote{Model: n.Model, Fields: n.Fields, Tags: n.Tags, Cards: exportedCards})
		}
		b, err := jsoncodec.Marshal(doc)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Data: string(b)}, nil
	default:
		verr := domain.NewValidationError()
		verr.Add("format", "must be json or markdown")
		return nil, verr
	}
}

// --- bulk card-state management ---------------------------------------

type CardIDsParams struct {
	CardIDs []int64 `json:"cardIds"`
}

type BulkResult struct {
	Updated int `json:"updated"`
}

func (s *Service) bulkSetState(cardIDs []int64, state domain.CardState) (*BulkResult, error) {
	n := 0
	for _, id := range cardIDs {
		if err := s.Store.SetCardState(id, string(state)); err != nil {
			return nil, err
		}
		n++
	}
	return &BulkResult{Updated: n}, nil
}

func (s *Service) SuspendCards(p CardIDsParams) (*BulkResult, error)   { return s.bulkSetState(p.CardIDs, domain.StateSuspended) }
func (s *Service) BuryCards(p CardIDsParams) (*BulkResult, error)     { return s.bulkSetState(p.CardIDs, domain.StateBuried) }

// UnsuspendCards and UnburyCards both return a card to "new" if it never
// had a review, or "review" if it has lapsed/graduated before; since the
// store doesn't retain a "pre-suspend" state, restoring to the state implied
// by the card's own reps counter matches spec.md §4.2's admin-transition
// intent without inventing a hidden field.
func (s *Service) UnsuspendCards(p CardIDsParams) (*BulkResult, error) {
	return s.restoreCards(p.CardIDs)
}

func (s *Service) UnburyCards(p CardIDsParams) (*BulkResult, error) {
	return s.restoreCards(p.CardIDs)
}

func (s *Service) restoreCards(cardIDs []int64) (*BulkResult, error) {
	n := 0
	for _, id := range cardIDs {
		card, err := s.Store.GetCard(id)
		if err != nil {
			return nil, err
		}
		target := domain.StateReview
		if card.Reps == 0 {
			target = domain.StateNew
		}
		if err := s.Store.SetCardState(id, string(target)); err != nil {
			return nil, err
		}
		n++
	}
	return &BulkResult{Updated: n}, nil
}

func (s *Service) ResetCards(p CardIDsParams) (*BulkResult, error) {
	n := 0
	for _, id := range p.CardIDs {
		if err := s.Store.ResetCard(id); err != nil {
			return nil, err
		}
		n++
	}
	return &BulkResult{Updated: n}, nil
}

func (s *Service) DeleteCards(p CardIDsParams) (*BulkResult, error) {
	n := 0
	for _, id := range p.CardIDs {
		if err := s.Store.DeleteCard(id); err != nil {
			return nil, err
		}
		n++
	}
	return &BulkResult{Updated: n}, nil
}

type FlagCardsParams struct {
	CardIDs []int64 `json:"cardIds"`
	Flag    int     `json:"flag"`
}

// FlagCards sets the teacher's colour-flag metadata in bulk
// (SPEC_FULL.md §4.9).
func (s *Service) FlagCards(p FlagCardsParams) (*BulkResult, error) {
	if p.Flag < 0 || p.Flag > 7 {
		verr := domain.NewValidationError()
		verr.Add("flag", "must be 0-7")
		return nil, verr
	}
	n := 0
	for _, id := range p.CardIDs {
		if err := s.Store.SetCardFlag(id, p.Flag); err != nil {
			return nil, err
		}
		n++
	}
	return &BulkResult{Updated: n}, nil
}

type MarkCardsParams struct {
	CardIDs []int64 `json:"cardIds"`
	Marked  bool    `json:"marked"`
}

// MarkCards sets the teacher's marked-card metadata in bulk
// (SPEC_FULL.md §4.9).
func (s *Service) MarkCards(p MarkCardsParams) (*BulkResult, error) {
	n := 0
	for _, id := range p.CardIDs {
		if err := s.Store.SetCardMarked(id, p.Marked); err != nil {
			return nil, err
		}
		n++
	}
	return &BulkResult{Updated: n}, nil
}

// --- stats ---------------------------------------------------------------

type StatsParams struct {
	DeckID          *int64 `json:"deckId,omitempty"`
	IncludeSubdecks bool   `json:"includeSubdecks"`
}

// Stats reports deck-scoped counters (SPEC_FULL.md §4.8). LeechCount is
// computed here rather than in the store layer because it depends on each
// note's deck's leechThreshold, and the store is intentionally unaware of
// deckconfig.
func (s *Service) Stats(p StatsParams) (*store.DeckStats, error) {
	deckIDs, err := s.scopeDeckIDs(p.DeckID, p.IncludeSubdecks)
	if err != nil {
		return nil, err
	}
	stats, err := s.Store.DeckStatsFor(deckIDs, s.now())
	if err != nil {
		return nil, err
	}

	cards, err := s.Store.CardsInDecks(deckIDs)
	if err != nil {
		return nil, err
	}
	thresholdByDeck := make(map[int64]int, len(deckIDs))
	for _, c := range cards {
		note, err := s.Store.GetNote(c.NoteID)
		if err != nil {
			return nil, err
		}
		threshold, ok := thresholdByDeck[note.DeckID]
		if !ok {
			cfg, err := s.deckConfigFor(c.NoteID)
			if err != nil {
				return nil, err
			}
			threshold = cfg.LeechThreshold
			thresholdByDeck[note.DeckID] = threshold
		}
		if c.Lapses >= threshold {
			stats.LeechCount++
		}
	}
	return stats, nil
}
