// Package codec defines the shared import/export record shapes that every
// format-specific codec (csvcodec, jsoncodec, markdown) produces and
// consumes, and the apply step they all share (spec.md §4.7's three-phase
// parse → validate → apply contract).
package codec

import (
	"fmt"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/cardgen"
	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/Gxrco/Anki-MCP/internal/store"
)

// NoteRecord is one parsed import record, before validation.
type NoteRecord struct {
	Deck   string
	Model  string
	Fields map[string]string
	Tags   []string
}

// RecordError is one failed record; the batch continues past it (spec.md
// §4.7 "one bad record does not abort the batch").
type RecordError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Result is what every importer returns.
type Result struct {
	InsertedNotes int           `json:"insertedNotes"`
	InsertedCards int           `json:"insertedCards"`
	Errors        []RecordError `json:"errors"`
}

// Options are the shared knobs every importer accepts (spec.md §4.7).
type Options struct {
	DeckDefault string
	Dedupe      bool
	DryRun      bool
}

func (o Options) deckDefault() string {
	if o.DeckDefault == "" {
		return "Inbox"
	}
	return o.DeckDefault
}

// Apply validates and persists parsed records, short-circuiting before
// persistence when opts.DryRun is set. st is the store; defaultConfigJSON is
// the JSON-serialized default deck config used when auto-creating a missing
// deck.
func Apply(st *store.SQLiteStore, records []NoteRecord, opts Options, defaultConfigJSON string, now time.Time) (*Result, error) {
	result := &Result{}
	deckIDs := make(map[string]int64)

	for i, rec := range records {
		deckName := rec.Deck
		if deckName == "" {
			deckName = opts.deckDefault()
		}
		model := rec.Model
		if model == "" {
			model = string(domain.ModelBasic)
		}
		if !domain.Model(model).Valid() {
			result.Errors = append(result.Errors, RecordError{Index: i, Message: fmt.Sprintf("unknown model %q", model), Data: deckName})
			continue
		}

		deckID, err := resolveDeck(st, deckIDs, deckName, defaultConfigJSON)
		if err != nil {
			result.Errors = append(result.Errors, RecordError{Index: i, Message: err.Error(), Data: deckName})
			continue
		}

		if opts.Dedupe {
			dup, err := isDuplicate(st, deckID, rec.Fields["front"], rec.Fields["back"])
			if err != nil {
				result.Errors = append(result.Errors, RecordError{Index: i, Message: err.Error(), Data: rec.Fields["front"]})
				continue
			}
			if dup {
				result.Errors = append(result.Errors, RecordError{Index: i, Message: (&domain.DuplicateSkipError{Front: rec.Fields["front"], Back: rec.Fields["back"]}).Error(), Data: rec.Fields["front"]})
				continue
			}
		}

		cards, err := cardgen.Generate(domain.Model(model), rec.Fields)
		if err != nil {
			result.Errors = append(result.Errors, RecordError{Index: i, Message: err.Error(), Data: rec.Fields["front"]})
			continue
		}

		if opts.DryRun {
			result.InsertedNotes++
			result.InsertedCards += len(cards)
			continue
		}

		note := &store.Note{DeckID: deckID, Model: model, Fields: rec.Fields, Tags: rec.Tags}
		if err := st.CreateNote(note); err != nil {
			result.Errors = append(result.Errors, RecordError{Index: i, Message: err.Error(), Data: rec.Fields["front"]})
			continue
		}
		for _, c := range cards {
			card := &store.Card{NoteID: note.ID, Template: c.Template, State: string(domain.StateNew), Due: 0, Ease: 2.5}
			if err := st.CreateCard(card); err != nil {
				result.Errors = append(result.Errors, RecordError{Index: i, Message: err.Error(), Data: rec.Fields["front"]})
				continue
			}
		}
		result.InsertedNotes++
		result.InsertedCards += len(cards)
	}

	return result, nil
}

func resolveDeck(st *store.SQLiteStore, cache map[string]int64, name, defaultConfigJSON string) (int64, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}
	if d, err := st.GetDeckByName(name); err == nil {
		cache[name] = d.ID
		return d.ID, nil
	}
	d := &store.Deck{Name: name, ConfigJSON: defaultConfigJSON}
	if err := st.CreateDeck(d); err != nil {
		return 0, err
	}
	cache[name] = d.ID
	return d.ID, nil
}

// isDuplicate implements spec.md §4.7's dedupe rule: skip when a note with
// identical front+back already exists in the target deck.
func isDuplicate(st *store.SQLiteStore, deckID int64, front, back string) (bool, error) {
	notes, err := st.NotesByDeck(deckID)
	if err != nil {
		return false, err
	}
	for _, n := range notes {
		if n.Fields["front"] == front && n.Fields["back"] == back {
			return true, nil
		}
	}
	return false, nil
}
