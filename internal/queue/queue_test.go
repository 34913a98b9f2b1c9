package queue

import (
	"testing"

	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/Gxrco/Anki-MCP/internal/store"
)

func TestNext_QueuePriorityLaw(t *testing.T) {
	learning := &store.Card{ID: 1, State: string(domain.StateLearning), Due: 0}
	newCard := &store.Card{ID: 2, State: string(domain.StateNew), Due: 0}

	got, _ := Next([]*store.Card{newCard, learning}, 0)
	if got.ID != learning.ID {
		t.Fatalf("want learning card (id=1) to win over new (id=2), got id=%d", got.ID)
	}
}

func TestNext_ExcludesNotYetDue(t *testing.T) {
	future := &store.Card{ID: 1, State: string(domain.StateReview), Due: 10}
	got, counts := Next([]*store.Card{future}, 0)
	if got != nil {
		t.Fatalf("want no eligible card, got %+v", got)
	}
	if counts.ReviewsRemaining != 0 {
		t.Fatalf("want 0 reviews remaining, got %d", counts.ReviewsRemaining)
	}
}

func TestNext_ExcludesSuspendedAndBuried(t *testing.T) {
	suspended := &store.Card{ID: 1, State: string(domain.StateSuspended), Due: 0}
	buried := &store.Card{ID: 2, State: string(domain.StateBuried), Due: 0}
	got, counts := Next([]*store.Card{suspended, buried}, 0)
	if got != nil {
		t.Fatalf("want no eligible card, got %+v", got)
	}
	if counts.NewRemaining != 0 || counts.ReviewsRemaining != 0 {
		t.Fatalf("want zero counts, got %+v", counts)
	}
}

func TestNext_QueuePositionNullsLast(t *testing.T) {
	pos := int64(1)
	withPos := &store.Card{ID: 1, State: string(domain.StateNew), Due: 0, QueuePosition: &pos}
	withoutPos := &store.Card{ID: 2, State: string(domain.StateNew), Due: 0}

	got, _ := Next([]*store.Card{withoutPos, withPos}, 0)
	if got.ID != withPos.ID {
		t.Fatalf("want card with queue_position to sort before NULL, got id=%d", got.ID)
	}
}

func TestNext_TiebreakByID(t *testing.T) {
	a := &store.Card{ID: 5, State: string(domain.StateReview), Due: 0}
	b := &store.Card{ID: 3, State: string(domain.StateReview), Due: 0}
	got, _ := Next([]*store.Card{a, b}, 0)
	if got.ID != 3 {
		t.Fatalf("want lowest id to win tie, got id=%d", got.ID)
	}
}

func TestCounts_NewAndReviewSplit(t *testing.T) {
	cards := []*store.Card{
		{ID: 1, State: string(domain.StateNew), Due: 0},
		{ID: 2, State: string(domain.StateNew), Due: 0},
		{ID: 3, State: string(domain.StateReview), Due: 0},
		{ID: 4, State: string(domain.StateLearning), Due: 0},
	}
	_, counts := Next(cards, 0)
	if counts.NewRemaining != 2 {
		t.Fatalf("want 2 new remaining, got %d", counts.NewRemaining)
	}
	if counts.ReviewsRemaining != 2 {
		t.Fatalf("want 2 reviews remaining (review+learning), got %d", counts.ReviewsRemaining)
	}
}
