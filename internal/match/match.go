// Package match owns the authoritative state of one Kadi game between
// two seats: the deck, both hands, the discard pile, the turn and the
// forced-draw obligation. Moves are validated fully before any
// mutation; a rejected move never changes state.
package match

import (
	"errors"
	"fmt"
	"math/rand"

	"kadi/internal/card"
	"kadi/internal/rules"
)

// Status is the session lifecycle.
type Status string

const (
	StatusDealing  Status = "dealing"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

const handSize = 4

// recentTrail bounds the display-only trailing history of played cards.
const recentTrail = 5

var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrFinished      = errors.New("game is finished")
	ErrNotFinished   = errors.New("game is not finished")
	ErrDeckExhausted = errors.New("deck exhausted")
	ErrUnknownPlayer = errors.New("unknown player")
)

type seat struct {
	id   string
	hand []card.Card
	wins int
}

// Match is one game between two fixed seats. All mutation goes through
// Drop, Draw and Rematch; callers serialize access.
type Match struct {
	rng     *rand.Rand
	seats   [2]seat
	deck    []card.Card
	discard []card.Card // settled pile, oldest first; recycled on deck exhaustion
	top     card.Card
	pending rules.Pending
	turn    int
	status  Status
	winner  int // seat index, -1 while unresolved
	moves   int
}

// New creates a match between the two player IDs, deals four cards to
// each hand, flips one top card and picks the first turn uniformly at
// random from rng.
func New(ids [2]string, rng *rand.Rand) *Match {
	m := &Match{
		rng:    rng,
		seats:  [2]seat{{id: ids[0]}, {id: ids[1]}},
		status: StatusDealing,
	}
	m.deal()
	return m
}

func (m *Match) deal() {
	deck := card.NewDeck()
	card.Shuffle(deck, m.rng)

	for i := range m.seats {
		m.seats[i].hand = append([]card.Card(nil), deck[:handSize]...)
		deck = deck[handSize:]
	}
	m.top = deck[0]
	m.deck = deck[1:]
	m.discard = nil
	m.pending = rules.Pending{}
	m.turn = m.rng.Intn(2)
	m.winner = -1
	m.moves = 0
	m.status = StatusActive
}

func (m *Match) seatIndex(playerID string) int {
	for i := range m.seats {
		if m.seats[i].id == playerID {
			return i
		}
	}
	return -1
}

func (m *Match) checkMover(playerID string) (int, error) {
	i := m.seatIndex(playerID)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if m.status == StatusFinished {
		return -1, ErrFinished
	}
	if i != m.turn {
		return -1, ErrNotYourTurn
	}
	return i, nil
}

// Drop plays seq for playerID. The sequence must pass the rule
// validator and every card must come from the player's hand. On
// success the last card becomes the new top card and the turn, the
// forced-draw obligation and the session status transition per the
// card's class.
func (m *Match) Drop(playerID string, seq []card.Card) error {
	mover, err := m.checkMover(playerID)
	if err != nil {
		return err
	}
	if err := rules.Validate(m.top, seq, m.pending); err != nil {
		return err
	}
	rest, ok := card.Remove(m.seats[mover].hand, seq)
	if !ok {
		return fmt.Errorf("%w: card not in hand", rules.ErrIllegalMove)
	}

	// Commit. Previous top and all but the last played card settle
	// onto the discard pile.
	m.discard = append(m.discard, m.top)
	m.discard = append(m.discard, seq[:len(seq)-1]...)
	last := seq[len(seq)-1]
	m.top = last
	m.seats[mover].hand = rest
	m.moves++

	switch {
	case last.IsQuestion():
		// The same player must respond (cover it or draw).
		m.pending = rules.Pending{}
	case last.IsFeeder():
		m.pending = rules.Pending{Count: last.FeedCount(), Active: true}
		m.turn = 1 - m.turn
	default:
		m.pending = rules.Pending{}
		m.turn = 1 - m.turn
	}

	// An empty hand only wins on a finisher; otherwise play goes on
	// and drawing restores cards before the player's next turn.
	if len(rest) == 0 && last.IsFinisher() {
		m.status = StatusFinished
		m.winner = mover
		m.seats[mover].wins++
	}
	return nil
}

// Draw moves the owed number of cards (the pending count, or one) from
// the deck into playerID's hand, clears the obligation and passes the
// turn. When the deck runs short the settled discard pile is shuffled
// back in; if even that cannot cover the owed count the draw fails
// with ErrDeckExhausted and no state changes.
func (m *Match) Draw(playerID string) ([]card.Card, error) {
	mover, err := m.checkMover(playerID)
	if err != nil {
		return nil, err
	}
	n := 1
	if m.pending.Active {
		n = m.pending.Count
	}
	if len(m.deck)+len(m.discard) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrDeckExhausted, n, len(m.deck)+len(m.discard))
	}
	if len(m.deck) < n {
		m.recycleDiscard()
	}

	drawn := append([]card.Card(nil), m.deck[:n]...)
	m.deck = m.deck[n:]
	m.seats[mover].hand = append(m.seats[mover].hand, drawn...)
	m.pending = rules.Pending{}
	m.turn = 1 - m.turn
	m.moves++
	return drawn, nil
}

// recycleDiscard shuffles the settled pile under the remaining deck.
// The top card stays where it is.
func (m *Match) recycleDiscard() {
	card.Shuffle(m.discard, m.rng)
	m.deck = append(m.deck, m.discard...)
	m.discard = nil
}

// Rematch reshuffles and re-deals for the same seats. Only a finished
// game can be restarted; win tallies carry over.
func (m *Match) Rematch() error {
	if m.status != StatusFinished {
		return ErrNotFinished
	}
	m.deal()
	return nil
}

// OwedDraw returns the number of cards the current player would draw.
func (m *Match) OwedDraw() int {
	if m.pending.Active {
		return m.pending.Count
	}
	return 1
}

// Status returns the session status.
func (m *Match) Status() Status { return m.status }

// TurnOwner returns the player ID whose move is accepted next.
func (m *Match) TurnOwner() string { return m.seats[m.turn].id }

// Winner returns the winning player ID, or "" while unresolved.
func (m *Match) Winner() string {
	if m.winner < 0 {
		return ""
	}
	return m.seats[m.winner].id
}

// Opponent returns the other seat's player ID.
func (m *Match) Opponent(playerID string) string {
	i := m.seatIndex(playerID)
	if i < 0 {
		return ""
	}
	return m.seats[1-i].id
}

// HandCount returns the number of cards playerID holds.
func (m *Match) HandCount(playerID string) int {
	i := m.seatIndex(playerID)
	if i < 0 {
		return 0
	}
	return len(m.seats[i].hand)
}

// Moves returns the number of accepted moves this game.
func (m *Match) Moves() int { return m.moves }

// View is the hidden-information projection of a match for one seat:
// the own hand in full, the opponent's hand and the deck as counts
// only. This is the only shape that ever crosses the wire.
type View struct {
	You               string        `json:"you"`
	Top               card.Card     `json:"topCard"`
	OwnHand           []card.Card   `json:"ownHand"`
	OpponentHandCount int           `json:"opponentHandCount"`
	DeckCount         int           `json:"deckCount"`
	Recent            []card.Card   `json:"recent,omitempty"`
	Pending           rules.Pending `json:"pendingDraw"`
	TurnOwner         string        `json:"turnOwner"`
	Status            Status        `json:"status"`
	Winner            string        `json:"winner,omitempty"`
	OwnWins           int           `json:"ownWins"`
	OpponentWins      int           `json:"opponentWins"`
}

// Snapshot projects the match state for playerID.
func (m *Match) Snapshot(playerID string) (View, error) {
	i := m.seatIndex(playerID)
	if i < 0 {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	recent := m.discard
	if len(recent) > recentTrail {
		recent = recent[len(recent)-recentTrail:]
	}
	return View{
		You:               playerID,
		Top:               m.top,
		OwnHand:           append([]card.Card(nil), m.seats[i].hand...),
		OpponentHandCount: len(m.seats[1-i].hand),
		DeckCount:         len(m.deck),
		Recent:            append([]card.Card(nil), recent...),
		Pending:           m.pending,
		TurnOwner:         m.seats[m.turn].id,
		Status:            m.status,
		Winner:            m.Winner(),
		OwnWins:           m.seats[i].wins,
		OpponentWins:      m.seats[1-i].wins,
	}, nil
}
