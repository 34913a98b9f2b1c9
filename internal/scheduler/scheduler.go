// Package scheduler implements the SM-2-derived scheduling algorithm of
// spec.md §4.1: a pure function from a card's current scheduling state and a
// rating to its next state, invoked exactly once per review. The caller
// persists the result and appends to the review log in the same transaction
// (spec.md §5).
//
// Grounded on justinlyon12-AnCLI's Scheduler wrapper shape
// (internal/scheduler/fsrs.go there: a small struct exposing a
// single Next-like entry point) but not its algorithm — go-fsrs computes
// stability/difficulty, which has no ease/interval/learning-step fields to
// carry the spec's SM-2 semantics. The transition table below is this
// package's own, built directly from spec.md §4.1.
package scheduler

import (
	"math"
	"time"

	"github.com/Gxrco/Anki-MCP/internal/deckconfig"
	"github.com/Gxrco/Anki-MCP/internal/domain"
	"github.com/Gxrco/Anki-MCP/internal/epochday"
)

// Result is the outcome of one Schedule call: the card's new scheduling
// state plus any side effect the caller must apply.
type Result struct {
	State domain.SchedulingState

	// LeechTagRequested is set when the card just crossed the leech
	// threshold under leechAction=tag. The scheduler does not know about
	// notes or tags; the caller is responsible for adding the "leech" tag
	// to the card's parent note (spec.md DESIGN NOTES, "Leech tag action").
	LeechTagRequested bool
}

// Schedule computes a card's next scheduling state for the given rating.
// now is used only to derive "today" (epoch day); fuzz draws come from the
// injected rnd. Schedule never reads the wall clock itself.
func Schedule(state domain.SchedulingState, rating domain.Rating, now time.Time, cfg deckconfig.Config, rnd Rand) (Result, error) {
	if !rating.Valid() {
		return Result{}, &domain.ValidationError{Fields: map[string]string{"rating": "must be 1-4"}}
	}

	today := epochday.Today(now)
	next := state

	switch state.State {
	case domain.StateNew:
		next.Reps++
		if rating == domain.Easy {
			next.State = domain.StateReview
			next.Ivl = ceilInt(float64(cfg.GraduatingIntervalDays) * cfg.EasyBonus)
			next.Due = today + next.Ivl
			next.Ease = 2.65
		} else {
			next.State = domain.StateLearning
			next.Ivl = 0
			next.Due = today
		}
		return Result{State: next}, nil

	case domain.StateLearning, domain.StateRelearning:
		switch rating {
		case domain.Again:
			next.Ivl = 0
			next.Due = today
			// state unchanged
		case domain.Hard, domain.Good:
			next.State = domain.StateReview
			next.Ivl = cfg.GraduatingIntervalDays
			next.Due = today + next.Ivl
			if next.Ease <= 0 {
				next.Ease = 2.5
			}
		case domain.Easy:
			next.State = domain.StateReview
			if next.Ease <= 0 {
				next.Ease = 2.5
			}
			next.Ease += 0.15
			next.Ivl = ceilInt(float64(cfg.GraduatingIntervalDays) * cfg.EasyBonus)
			next.Due = today + next.Ivl
		}
		return Result{State: next}, nil

	case domain.StateReview:
		next.Reps++
		fuzz := fuzzFactor(cfg.FuzzPercent, rnd)

		switch rating {
		case domain.Again:
			next.Lapses++
			next.State = domain.StateRelearning
			next.Ease = math.Max(cfg.MinEase, next.Ease-0.2)
			next.Ivl = 0
			next.Due = today

			result := Result{State: next}
			if next.Lapses >= cfg.LeechThreshold {
				switch cfg.LeechAction {
				case domain.LeechSuspend:
					result.State.State = domain.StateSuspended
				case domain.LeechTag:
					result.LeechTagRequested = true
				}
			}
			return result, nil

		case domain.Hard:
			next.Ease = math.Max(cfg.MinEase, next.Ease-0.15)
			next.Ivl = maxInt(1, ceilInt(float64(state.Ivl)*cfg.HardInterval*fuzz))
			next.Due = today + next.Ivl
			return Result{State: next}, nil

		case domain.Good:
			next.Ivl = maxInt(1, ceilInt(float64(state.Ivl)*next.Ease*fuzz))
			next.Due = today + next.Ivl
			return Result{State: next}, nil

		case domain.Easy:
			next.Ease += 0.15
			next.Ivl = maxInt(1, ceilInt(float64(state.Ivl)*next.Ease*cfg.EasyBonus*fuzz))
			next.Due = today + next.Ivl
			return Result{State: next}, nil
		}
	}

	return Result{}, &domain.InvalidStateError{State: state.State, Reason: "card is not in a schedulable state"}
}

// fuzzFactor returns a value uniformly distributed in
// [1-fuzzPercent, 1+fuzzPercent].
func fuzzFactor(fuzzPercent float64, rnd Rand) float64 {
	if fuzzPercent <= 0 {
		return 1
	}
	return 1 - fuzzPercent + rnd.Float64()*2*fuzzPercent
}

func ceilInt(v float64) int {
	return int(math.Ceil(v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
