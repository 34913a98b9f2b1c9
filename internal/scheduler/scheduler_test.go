package scheduler

import (
	"testing"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/deckconfig"
	"github.com/Gxrco/Anki-MCP/internal/domain"
)

var fixedNow = time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

func TestSchedule_NewCard_Easy_Graduates(t *testing.T) {
	cfg := deckconfig.Defaults()
	state := domain.SchedulingState{State: domain.StateNew}

	res, err := Schedule(state, domain.Easy, fixedNow, cfg, Fixed(0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State.State != domain.StateReview {
		t.Fatalf("want review, got %s", res.State.State)
	}
	if res.State.Ivl != 2 {
		t.Fatalf("want ivl=2 (ceil(1*1.3)), got %d", res.State.Ivl)
	}
	if res.State.Ease != 2.65 {
		t.Fatalf("want ease=2.65, got %f", res.State.Ease)
	}
}

func TestSchedule_NewCard_Again_EntersLearning(t *testing.T) {
	cfg := deckconfig.Defaults()
	state := domain.SchedulingState{State: domain.StateNew}

	res, err := Schedule(state, domain.Again, fixedNow, cfg, Fixed(0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State.State != domain.StateLearning {
		t.Fatalf("want learning, got %s", res.State.State)
	}
	if res.State.Ivl != 0 {
		t.Fatalf("want ivl=0, got %d", res.State.Ivl)
	}
}

func TestSchedule_Review_Again_CrossesLeechThreshold_Suspends(t *testing.T) {
	cfg := deckconfig.Defaults()
	cfg.LeechThreshold = 8
	cfg.LeechAction = domain.LeechSuspend

	state := domain.SchedulingState{
		State:  domain.StateReview,
		Due:    epochDayOf(fixedNow),
		Ivl:    10,
		Ease:   2.5,
		Reps:   20,
		Lapses: 7,
	}

	res, err := Schedule(state, domain.Again, fixedNow, cfg, Fixed(0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State.Lapses != 8 {
		t.Fatalf("want lapses=8, got %d", res.State.Lapses)
	}
	if res.State.State != domain.StateSuspended {
		t.Fatalf("want suspended, got %s", res.State.State)
	}
	if res.State.Ease != 2.3 {
		t.Fatalf("want ease=2.3, got %f", res.State.Ease)
	}
	if res.State.Ivl != 0 {
		t.Fatalf("want ivl=0, got %d", res.State.Ivl)
	}
}

func TestSchedule_Review_Again_LeechTag_RequestsTagNotSuspend(t *testing.T) {
	cfg := deckconfig.Defaults()
	cfg.LeechThreshold = 3
	cfg.LeechAction = domain.LeechTag

	state := domain.SchedulingState{
		State:  domain.StateReview,
		Ivl:    5,
		Ease:   2.5,
		Lapses: 2,
	}

	res, err := Schedule(state, domain.Again, fixedNow, cfg, Fixed(0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State.State != domain.StateRelearning {
		t.Fatalf("want relearning (not suspended) for tag action, got %s", res.State.State)
	}
	if !res.LeechTagRequested {
		t.Fatalf("want LeechTagRequested=true")
	}
}

func TestSchedule_Review_Good_GrowsIntervalByEase(t *testing.T) {
	cfg := deckconfig.Defaults()
	cfg.FuzzPercent = 0 // disable fuzz for deterministic arithmetic

	state := domain.SchedulingState{
		State: domain.StateReview,
		Ivl:   10,
		Ease:  2.5,
	}

	res, err := Schedule(state, domain.Good, fixedNow, cfg, SystemRand{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State.Ivl != 25 {
		t.Fatalf("want ivl=25 (ceil(10*2.5)), got %d", res.State.Ivl)
	}
}

func TestSchedule_Review_Hard_ShrinksEase(t *testing.T) {
	cfg := deckconfig.Defaults()
	cfg.FuzzPercent = 0

	state := domain.SchedulingState{
		State: domain.StateReview,
		Ivl:   10,
		Ease:  2.5,
	}

	res, err := Schedule(state, domain.Hard, fixedNow, cfg, SystemRand{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State.Ease != 2.35 {
		t.Fatalf("want ease=2.35, got %f", res.State.Ease)
	}
	if res.State.Ivl != 12 {
		t.Fatalf("want ivl=12 (ceil(10*1.2)), got %d", res.State.Ivl)
	}
}

func TestSchedule_Review_MinEaseFloor(t *testing.T) {
	cfg := deckconfig.Defaults()
	cfg.MinEase = 1.3

	state := domain.SchedulingState{
		State: domain.StateReview,
		Ivl:   10,
		Ease:  1.35,
	}

	res, err := Schedule(state, domain.Hard, fixedNow, cfg, Fixed(0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State.Ease != 1.3 {
		t.Fatalf("want ease floored at 1.3, got %f", res.State.Ease)
	}
}

func TestSchedule_SuspendedCard_ReturnsInvalidStateError(t *testing.T) {
	cfg := deckconfig.Defaults()
	state := domain.SchedulingState{State: domain.StateSuspended}

	_, err := Schedule(state, domain.Good, fixedNow, cfg, SystemRand{})
	if err == nil {
		t.Fatalf("expected error for suspended card")
	}
	if _, ok := err.(*domain.InvalidStateError); !ok {
		t.Fatalf("want *domain.InvalidStateError, got %T", err)
	}
}

func TestSchedule_InvalidRating_ReturnsValidationError(t *testing.T) {
	cfg := deckconfig.Defaults()
	state := domain.SchedulingState{State: domain.StateNew}

	_, err := Schedule(state, domain.Rating(9), fixedNow, cfg, SystemRand{})
	if err == nil {
		t.Fatalf("expected error for invalid rating")
	}
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Fatalf("want *domain.ValidationError, got %T", err)
	}
}

func epochDayOf(t time.Time) int {
	u := t.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Unix() / 86400)
}
