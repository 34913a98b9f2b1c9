package toolserver

import (
	"encoding/json"
	"fmt"

	"github.com/Gxrco/Anki-MCP/internal/domain"
)

// Tool is one entry in the dispatch registry: a name, whether it mutates
// the store (consulted by the readonly gate, spec.md §6/§7), and a handler
// that decodes its JSON params and encodes its result.
type Tool struct {
	Name     string
	Mutating bool
	Handler  func(svc *Service, params json.RawMessage) (any, error)
}

// handlerFor adapts a (params struct) -> (result, error) method into the
// registry's json.RawMessage shape, so every tool below reads as a plain
// function signature instead of repeating decode/encode boilerplate.
func handlerFor[P any, R any](fn func(*Service, P) (R, error)) func(*Service, json.RawMessage) (any, error) {
	return func(svc *Service, raw json.RawMessage) (any, error) {
		var params P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &params); err != nil {
				verr := domain.NewValidationError()
				verr.Add("params", fmt.Sprintf("invalid JSON: %v", err))
				return nil, verr
			}
		}
		return fn(svc, params)
	}
}

// Registry builds the full spec.md §6 tool surface plus the supplemented
// flag_cards/mark_cards (SPEC_FULL.md §4.9) and move_deck (§4.10) tools.
func Registry() map[string]Tool {
	tools := []Tool{
		{"create_deck", true, handlerFor((*Service).CreateDeck)},
		{"move_deck", true, handlerFor((*Service).MoveDeck)},
		{"list_decks", false, handlerFor((*Service).ListDecks)},
		{"config_get", false, handlerFor((*Service).ConfigGet)},
		{"config_set", true, handlerFor((*Service).ConfigSet)},
		{"config_reset", true, handlerFor((*Service).ConfigReset)},
		{"add_note", true, handlerFor((*Service).AddNote)},
		{"generate_cards_for_note", true, handlerFor((*Service).GenerateCardsForNote)},
		{"get_next_card", false, handlerFor((*Service).GetNextCard)},
		{"answer_card", true, handlerFor((*Service).AnswerCard)},
		{"card_info", false, handlerFor((*Service).CardInfo)},
		{"search_cards", false, handlerFor((*Service).SearchCards)},
		{"import", true, handlerFor((*Service).Import)},
		{"export", false, handlerFor((*Service).Export)},
		{"suspend_cards", true, handlerFor((*Service).SuspendCards)},
		{"unsuspend_cards", true, handlerFor((*Service).UnsuspendCards)},
		{"bury_cards", true, handlerFor((*Service).BuryCards)},
		{"unbury_cards", true, handlerFor((*Service).UnburyCards)},
		{"reset_cards", true, handlerFor((*Service).ResetCards)},
		{"delete_cards", true, handlerFor((*Service).DeleteCards)},
		{"flag_cards", true, handlerFor((*Service).FlagCards)},
		{"mark_cards", true, handlerFor((*Service).MarkCards)},
		{"stats", false, handlerFor((*Service).Stats)},
	}

	reg := make(map[string]Tool, len(tools))
	for _, t := range tools {
		reg[t.Name] = t
	}
	return reg
}
