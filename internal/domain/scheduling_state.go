package domain

// SchedulingState is the subset of a Card's fields the scheduler reads and
// writes (spec.md §4.1): state, interval in days, ease factor, lifetime
// counters, and the epoch-day due date. It is deliberately detached from the
// storage Card type so the scheduler stays a pure function over plain data.
type SchedulingState struct {
	State  CardState
	Due    int // epoch day
	Ivl    int // days
	Ease   float64
	Reps   int
	Lapses int
}
