// Package cardgen mints cards from a note's (model, fields) pair and renders
// a card's question HTML (spec.md §4.6).
//
// Grounded on the teacher's generateCardsFromNote/extractClozeOrdinals/
// renderCloze (collection.go), generalized off the teacher's fsrs.NewCard()
// due-date stamping (cards here start life purely as domain data, with
// scheduling state set by the caller) and off its FieldMap/Template note-type
// shape (here reduced to the four fixed models spec.md §4.6 names, since the
// spec has no note-type registry of its own).
package cardgen

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

// clozeRe matches {{cN::answer}} or {{cN::answer::hint}}.
var clozeRe = regexp.MustCompile(`\{\{c(\d+)::(.*?)(?:::([^}]*))?\}\}`)

// Card is a minted card's static shape, prior to scheduling-state
// assignment (the caller stamps state=new, due=0 and persists via
// internal/store).
type Card struct {
	Template string
}

// sanitizer strips all HTML except a small safe subset, applied to every
// rendered question/answer before it reaches a client (spec.md §4.6 adds no
// explicit sanitization step, but note fields are free-form user text and
// the teacher's own rendering path never escapes it — bluemonday closes
// that gap here, consistent with microcosm-cc/bluemonday's UGCPolicy).
var sanitizer = bluemonday.UGCPolicy()

// Generate mints the cards implied by a note's model, per spec.md §4.6.
// For the cloze model the scanned text is fields["front"], or fields["text"]
// when front is empty (clozeSourceText).
func Generate(model domain.Model, fields map[string]string) ([]Card, error) {
	switch model {
	case domain.ModelBasic:
		if strings.TrimSpace(fields["front"]) == "" || strings.TrimSpace(fields["back"]) == "" {
			return nil, &domain.ValidationError{Fields: map[string]string{
				"fields": "basic model requires non-empty front and back",
			}}
		}
		return []Card{{Template: "forward"}}, nil

	case domain.ModelBasicReverse:
		if strings.TrimSpace(fields["front"]) == "" || strings.TrimSpace(fields["back"]) == "" {
			return nil, &domain.ValidationError{Fields: map[string]string{
				"fields": "basic_reverse model requires non-empty front and back",
			}}
		}
		return []Card{{Template: "forward"}, {Template: "reverse"}}, nil

	case domain.ModelCloze:
		text := clozeSourceText(fields)
		ordinals := extractClozeOrdinals(text)
		cards := make([]Card, 0, len(ordinals))
		for _, ord := range ordinals {
			cards = append(cards, Card{Template: fmt.Sprintf("cloze-%d", ord)})
		}
		return cards, nil

	case domain.ModelCustom:
		if strings.TrimSpace(fields["front"]) == "" {
			return nil, &domain.ValidationError{Fields: map[string]string{
				"fields": "custom model requires non-empty front",
			}}
		}
		return []Card{{Template: "forward"}}, nil
	}

	return nil, &domain.ValidationError{Fields: map[string]string{"model": "unknown model " + string(model)}}
}

// clozeSourceText resolves the field cloze parsing scans: fields.front,
// falling back to fields.text (spec.md §4.6: "fields.front or fields.text").
func clozeSourceText(fields map[string]string) string {
	if v, ok := fields["front"]; ok && v != "" {
		return v
	}
	return fields["text"]
}

// extractClozeOrdinals returns the distinct, ascending cloze numbers found
// in text.
func extractClozeOrdinals(text string) []int {
	seen := make(map[int]bool)
	for _, m := range clozeRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		seen[n] = true
	}
	ordinals := make([]int, 0, len(seen))
	for n := range seen {
		ordinals = append(ordinals, n)
	}
	sort.Ints(ordinals)
	return ordinals
}

// RenderQuestion produces a card's question HTML per spec.md §4.6, then
// sanitizes it.
func RenderQuestion(model domain.Model, template string, fields map[string]string) string {
	var raw string
	switch {
	case model == domain.ModelBasicReverse && template == "reverse":
		raw = fields["back"]
	case model == domain.ModelCloze && strings.HasPrefix(template, "cloze-"):
		ord, _ := strconv.Atoi(strings.TrimPrefix(template, "cloze-"))
		raw = renderCloze(clozeSourceText(fields), ord, false)
	default:
		raw = fields["front"]
	}
	return sanitizer.Sanitize(raw)
}

// RenderAnswer produces a card's answer HTML, matching RenderQuestion's
// side selection but always fully revealed.
func RenderAnswer(model domain.Model, template string, fields map[string]string) string {
	var raw string
	switch {
	case model == domain.ModelBasicReverse && template == "reverse":
		raw = fields["front"]
	case model == domain.ModelCloze && strings.HasPrefix(template, "cloze-"):
		ord, _ := strconv.Atoi(strings.TrimPrefix(template, "cloze-"))
		raw = renderCloze(clozeSourceText(fields), ord, true)
	default:
		raw = fields["back"]
	}
	return sanitizer.Sanitize(raw)
}

// renderCloze replaces the target ordinal's cloze with "[...]" on the
// question side, and reveals every cloze on the answer side.
func renderCloze(text string, targetOrdinal int, reveal bool) string {
	return clozeRe.ReplaceAllStringFunc(text, func(token string) string {
		m := clozeRe.FindStringSubmatch(token)
		ord, _ := strconv.Atoi(m[1])
		answer := m[2]

		if reveal {
			return answer
		}
		if ord == targetOrdinal {
			return "[...]"
		}
		return answer
	})
}
