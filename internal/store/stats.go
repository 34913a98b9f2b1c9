package store

import (
	"time"

	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/Gxrco/Anki-MCP/internal/epochday"
)

// DeckStatsFor aggregates card states across deckIDs for the stats tool
// (spec.md §4.8). Grounded on the teacher's GetDeckStats (storage.go), which
// walks a deck's cards once and tallies by fsrs.State; here generalized to
// the spec's six CardState values and a hierarchy-wide deckIDs scope.
func (s *SQLiteStore) DeckStatsFor(deckIDs []int64, now time.Time) (*DeckStats, error) {
	stats := &DeckStats{}
	if len(deckIDs) == 0 {
		return stats, nil
	}

	cards, err := s.CardsInDecks(deckIDs)
	if err != nil {
		return nil, err
	}
	today := epochday.Today(now)

	var easeSum float64
	var easeCount int
	cardIDs := make([]int64, 0, len(cards))
	for _, c := range cards {
		cardIDs = append(cardIDs, c.ID)
		stats.TotalCards++
		switch domain.CardState(c.State) {
		case domain.StateNew:
			stats.New++
		case domain.StateLearning:
			stats.Learning++
		case domain.StateRelearning:
			stats.Relearning++
		case domain.StateReview:
			stats.Review++
			easeSum += c.Ease
			easeCount++
		case domain.StateSuspended:
			stats.Suspended++
		case domain.StateBuried:
			stats.Buried++
		}
		if domain.CardState(c.State).QueueEligible() && c.Due <= today {
			stats.DueToday++
		}
	}
	if easeCount > 0 {
		stats.AverageEase = easeSum / float64(easeCount)
	}

	reviewed, err := s.ReviewsInRange(now, 0, 30)
	if err != nil {
		return nil, err
	}
	inScope := make(map[int64]bool, len(cardIDs))
	for _, id := range cardIDs {
		inScope[id] = true
	}
	for _, id := range reviewed {
		if inScope[id] {
			stats.ReviewsLast30d++
		}
	}

	return stats, nil
}
