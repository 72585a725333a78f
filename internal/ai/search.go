// Package ai implements the computer opponent's move search: a
// depth-first enumeration of every legal play sequence from a hand,
// scored by what the hand looks like after playing it.
package ai

import (
	"math/rand"

	"kadi/internal/card"
	"kadi/internal/rules"
)

const (
	// winScore dominates every reachable heuristic score.
	winScore = 99999

	// DefaultBluffChance is the probability of holding back a best
	// move that is a lone question card and drawing instead.
	DefaultBluffChance = 0.25
)

// Search picks moves for the computer opponent. The random source is
// injectable so tests can pin the bluff behavior.
type Search struct {
	rng         *rand.Rand
	bluffChance float64
}

// New returns a Search using rng for its bluff roll.
func New(rng *rand.Rand) *Search {
	return &Search{rng: rng, bluffChance: DefaultBluffChance}
}

// NewWithBluff returns a Search with an explicit bluff probability.
// A chance of 0 makes the search fully deterministic.
func NewWithBluff(rng *rand.Rand, chance float64) *Search {
	return &Search{rng: rng, bluffChance: chance}
}

// BestMove returns the highest-scoring legal sequence from hand
// against top, or an empty sequence to signal a draw. Ties resolve to
// the sequence discovered first, so behavior is deterministic for a
// fixed hand order and seeded rng.
func (s *Search) BestMove(top card.Card, hand []card.Card, pending rules.Pending) []card.Card {
	var best []card.Card
	bestScore := -winScore

	path := make([]card.Card, 0, len(hand))

	var walk func(prev card.Card, remaining []card.Card, first bool)
	walk = func(prev card.Card, remaining []card.Card, first bool) {
		if len(path) > 0 {
			if score := scoreMove(path, remaining); score > bestScore {
				bestScore = score
				best = append([]card.Card(nil), path...)
			}
		}
		for i, c := range remaining {
			if !rules.NextAllowed(prev, c, first, pending.Active) {
				continue
			}
			rest := make([]card.Card, 0, len(remaining)-1)
			rest = append(rest, remaining[:i]...)
			rest = append(rest, remaining[i+1:]...)
			path = append(path, c)
			walk(c, rest, false)
			path = path[:len(path)-1]
		}
	}
	walk(top, hand, true)

	// Bluff: occasionally hold a lone question card back and draw
	// instead. Deliberate sub-optimality, not a bug.
	if len(best) == 1 && best[0].IsQuestion() && s.rng.Float64() < s.bluffChance {
		return nil
	}
	return best
}

// scoreMove evaluates the hand left after hypothetically playing seq.
// Fewer cards is better; duplicated ranks kept back retain flexible
// future stacks; emptying the hand on a finisher wins outright.
func scoreMove(seq, remaining []card.Card) int {
	if len(remaining) == 0 && seq[len(seq)-1].IsFinisher() {
		return winScore
	}
	score := -50 * len(remaining)
	counts := make(map[card.Rank]int, len(remaining))
	for _, c := range remaining {
		counts[c.Rank]++
	}
	for _, n := range counts {
		if n > 1 {
			score += (n - 1) * 10
		}
	}
	return score
}
