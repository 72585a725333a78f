// Package local runs a game against the computer opponent in-process.
// It is the core-facing surface for a presentation layer: snapshots
// out, drop/draw submissions in, and a notification for every move the
// opponent makes. It contains no rendering of its own.
package local

import (
	"log"
	"math/rand"
	"sync"

	"kadi/internal/ai"
	"kadi/internal/card"
	"kadi/internal/match"
)

// OpponentID is the computer seat's player ID.
const OpponentID = "computer"

// Move describes an already-validated opponent action for visual
// replay. Cards is set for drops; Count for draws.
type Move struct {
	Type  string // "drop" | "draw"
	Cards []card.Card
	Count int
}

// Game is one human-versus-computer session.
type Game struct {
	mu      sync.Mutex
	m       *match.Match
	search  *ai.Search
	humanID string

	// OnOpponentMove, when set, is called after each computer move so
	// the presentation layer can replay it. Called without the game
	// lock held.
	OnOpponentMove func(Move)

	// Think, when set, is called before each computer move: a purely
	// cosmetic suspension (e.g. a sleep) that never gates state.
	Think func()
}

// New creates a local game for humanID against the computer. rng
// drives the deal, the first-turn pick and the AI's bluff roll. The
// deal may give the computer the opening turn; its moves resolve in
// Start, so wire OnOpponentMove and Think before calling it.
func New(humanID string, rng *rand.Rand) *Game {
	return &Game{
		m:       match.New([2]string{humanID, OpponentID}, rng),
		search:  ai.New(rng),
		humanID: humanID,
	}
}

// Start resolves the computer's opening turn, if it won the first-turn
// pick. Opening moves are replayed through OnOpponentMove like any
// other.
func (g *Game) Start() {
	g.runOpponent()
}

// Snapshot returns the human seat's view.
func (g *Game) Snapshot() match.View {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, _ := g.m.Snapshot(g.humanID)
	return v
}

// SubmitDrop plays seq for the human seat. On acceptance the computer
// responds until the turn comes back or the game ends.
func (g *Game) SubmitDrop(seq []card.Card) error {
	g.mu.Lock()
	err := g.m.Drop(g.humanID, seq)
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.runOpponent()
	return nil
}

// SubmitDraw draws the owed count (the pending obligation, or one) for
// the human seat.
func (g *Game) SubmitDraw() ([]card.Card, error) {
	g.mu.Lock()
	drawn, err := g.m.Draw(g.humanID)
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	g.runOpponent()
	return drawn, nil
}

// Rematch re-deals a finished game. Win tallies carry over.
func (g *Game) Rematch() error {
	g.mu.Lock()
	err := g.m.Rematch()
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.runOpponent()
	return nil
}

// runOpponent lets the computer move for as long as it owns the turn:
// question-card plays keep its turn until it covers them or draws.
func (g *Game) runOpponent() {
	for {
		if g.Think != nil {
			g.Think()
		}
		move, done := g.opponentStep()
		if move != nil && g.OnOpponentMove != nil {
			g.OnOpponentMove(*move)
		}
		if done {
			return
		}
	}
}

// opponentStep performs at most one computer move. done reports that
// the turn left the computer seat or the game cannot continue.
func (g *Game) opponentStep() (*Move, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.m.Status() != match.StatusActive || g.m.TurnOwner() != OpponentID {
		return nil, true
	}
	view, err := g.m.Snapshot(OpponentID)
	if err != nil {
		return nil, true
	}
	if best := g.search.BestMove(view.Top, view.OwnHand, view.Pending); len(best) > 0 {
		if err := g.m.Drop(OpponentID, best); err != nil {
			// The search only generates validator-legal sequences.
			log.Printf("computer drop rejected: %v", err)
			return nil, true
		}
		done := g.m.Status() != match.StatusActive || g.m.TurnOwner() != OpponentID
		return &Move{Type: "drop", Cards: best}, done
	}
	drawn, err := g.m.Draw(OpponentID)
	if err != nil {
		log.Printf("computer draw failed: %v", err)
		return nil, true
	}
	return &Move{Type: "draw", Count: len(drawn)}, true
}
