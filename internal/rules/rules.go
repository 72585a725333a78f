// Package rules decides whether a proposed multi-card play is legal
// against the current top card and forced-draw state. Validation is
// side-effect free; every caller validates before committing a move.
package rules

import (
	"errors"
	"fmt"

	"kadi/internal/card"
)

// ErrIllegalMove is wrapped by every validation failure.
var ErrIllegalMove = errors.New("illegal move")

// Pending records an owed forced draw and its required count.
type Pending struct {
	Count  int  `json:"count"`
	Active bool `json:"active"`
}

// NextAllowed reports whether next may follow prev in a play sequence.
// first marks the head of the sequence (prev is then the top card),
// forced marks an active forced-draw obligation. The AI search uses
// the same predicate, so generated moves can never diverge from what
// the validator accepts.
func NextAllowed(prev, next card.Card, first, forced bool) bool {
	if forced {
		if first {
			return next.Rank == prev.Rank || next.IsWild()
		}
		// No suit matching and no fresh wilds mid-chain; equal ranks
		// only (wild-after-wild passes because the ranks are equal).
		return next.Rank == prev.Rank
	}
	if first || prev.IsQuestion() {
		return next.Suit == prev.Suit || next.Rank == prev.Rank || next.IsWild()
	}
	return next.Rank == prev.Rank
}

// Validate checks a proposed sequence against the top card and the
// forced-draw state. Acceptance is all-or-nothing: the first failing
// step rejects the whole sequence.
func Validate(top card.Card, seq []card.Card, pending Pending) error {
	if len(seq) == 0 {
		return fmt.Errorf("%w: empty sequence", ErrIllegalMove)
	}
	prev := top
	for i, c := range seq {
		if !NextAllowed(prev, c, i == 0, pending.Active) {
			return fmt.Errorf("%w: %s cannot follow %s", ErrIllegalMove, c, prev)
		}
		prev = c
	}
	return nil
}
