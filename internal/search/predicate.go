package search

import (
	"strconv"
	"strings"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/Gxrco/Anki-MCP/internal/epochday"
)

// Row is everything a predicate needs to evaluate one card (spec.md §4.4).
// The toolserver assembles one Row per candidate card from the store.
type Row struct {
	CardID       int64
	State        domain.CardState
	Due          int
	Ivl          int
	Ease         float64
	DeckName     string
	Tags         []string
	FieldText    string // concatenation of every note field value
	ReviewTimes  []time.Time
}

// Matches reports whether row satisfies every parsed term, ANDed (spec.md
// DESIGN NOTES "Search term ANDing": no disjunction, no negation). Unknown
// keys are silently true — a term with an unrecognised key never excludes a
// row (spec.md §4.4: "Unknown keys are silently ignored").
func Matches(terms []Term, row Row, now time.Time) bool {
	for _, t := range terms {
		if !matchOne(t, row, now) {
			return false
		}
	}
	return true
}

func matchOne(t Term, row Row, now time.Time) bool {
	if t.Unknown {
		return true
	}
	switch t.Key {
	case "deck":
		return strings.Contains(strings.ToLower(row.DeckName), strings.ToLower(t.Value))
	case "tag":
		for _, tag := range row.Tags {
			if tag == t.Value {
				return true
			}
		}
		return false
	case "is":
		return matchIs(t.Value, row, now)
	case "rated":
		return matchRated(t.Value, row, now)
	case "prop":
		return matchProp(t.Value, row)
	case "note":
		return strings.Contains(row.FieldText, t.Value)
	case "":
		return strings.Contains(row.FieldText, t.Value)
	default:
		// Unreachable: every Term with a non-empty, unrecognised Key is
		// marked Unknown by ParseTerm and handled above.
		return true
	}
}

func matchIs(value string, row Row, now time.Time) bool {
	today := epochday.Today(now)
	switch value {
	case "due":
		return row.Due <= today && (row.State == domain.StateReview || row.State == domain.StateLearning || row.State == domain.StateRelearning)
	case "learning":
		return row.State == domain.StateLearning || row.State == domain.StateRelearning
	case "new", "review", "suspended", "buried":
		return string(row.State) == value
	default:
		return false
	}
}

// matchRated implements spec.md DESIGN NOTES "`rated` endpoint ordering":
// `rated:d` means a review within the last d days; `rated:a..b` (a <= b)
// means a review between b and a days ago, inclusive.
func matchRated(value string, row Row, now time.Time) bool {
	var startDaysAgo, endDaysAgo int
	if idx := strings.Index(value, ".."); idx >= 0 {
		a, errA := strconv.Atoi(value[:idx])
		b, errB := strconv.Atoi(value[idx+2:])
		if errA != nil || errB != nil || a > b {
			return false
		}
		startDaysAgo, endDaysAgo = a, b
	} else {
		d, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		startDaysAgo, endDaysAgo = 0, d
	}

	lower := now.AddDate(0, 0, -endDaysAgo)
	upper := now.AddDate(0, 0, -startDaysAgo)
	for _, ts := range row.ReviewTimes {
		if !ts.Before(lower) && !ts.After(upper) {
			return true
		}
	}
	return false
}

func matchProp(value string, row Row) bool {
	var field string
	var op byte
	var idx int
	for i, r := range value {
		if r == '>' || r == '<' {
			op = byte(r)
			idx = i
			break
		}
	}
	if op == 0 {
		return false
	}
	field = value[:idx]
	n, err := strconv.ParseFloat(value[idx+1:], 64)
	if err != nil {
		return false
	}

	var actual float64
	switch field {
	case "ivl":
		actual = float64(row.Ivl)
	case "ease":
		actual = row.Ease
	default:
		return false
	}

	if op == '>' {
		return actual > n
	}
	return actual < n
}
