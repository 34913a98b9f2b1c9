// Package queue implements get_next_card's candidate selection and ordering
// (spec.md §4.3). It operates on plain store.Card slices so it stays testable
// without a live database.
package queue

import (
	"sort"

	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/Gxrco/Anki-MCP/internal/store"
)

// Counts are the advisory queue sizes returned alongside a selected card
// (spec.md §4.3).
type Counts struct {
	NewRemaining     int
	ReviewsRemaining int
}

// Next selects the single highest-priority due card from candidates, plus
// the queue counts. candidates is expected to already be scoped to the
// caller's deck selection (store.CardsInDecks).
func Next(candidates []*store.Card, today int) (*store.Card, Counts) {
	eligible := eligibleDue(candidates, today)

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		pa, pb := domain.CardState(a.State).QueuePriority(), domain.CardState(b.State).QueuePriority()
		if pa != pb {
			return pa < pb
		}
		if a.Due != b.Due {
			return a.Due < b.Due
		}
		qa, qb := queuePositionOrMax(a), queuePositionOrMax(b)
		if qa != qb {
			return qa < qb
		}
		return a.ID < b.ID
	})

	counts := countQueue(candidates, today)

	if len(eligible) == 0 {
		return nil, counts
	}
	return eligible[0], counts
}

func eligibleDue(candidates []*store.Card, today int) []*store.Card {
	var out []*store.Card
	for _, c := range candidates {
		state := domain.CardState(c.State)
		if state.QueueEligible() && c.Due <= today {
			out = append(out, c)
		}
	}
	return out
}

func countQueue(candidates []*store.Card, today int) Counts {
	var counts Counts
	for _, c := range candidates {
		state := domain.CardState(c.State)
		if !state.QueueEligible() || c.Due > today {
			continue
		}
		if state == domain.StateNew {
			counts.NewRemaining++
		} else {
			counts.ReviewsRemaining++
		}
	}
	return counts
}

func queuePositionOrMax(c *store.Card) int64 {
	if c.QueuePosition == nil {
		return int64(^uint64(0) >> 1) // max int64: NULLS LAST
	}
	return *c.QueuePosition
}
