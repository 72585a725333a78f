package card

import (
	"fmt"
	"math/rand"
)

// Suit is one of the four standard suits.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitNames = [...]string{"clubs", "diamonds", "hearts", "spades"}

func (s Suit) String() string {
	if s < Clubs || s > Spades {
		return fmt.Sprintf("suit(%d)", int(s))
	}
	return suitNames[s]
}

// Rank is the ordinal card rank: 0 = Ace, 1 = Two, ... 12 = King.
type Rank int

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = [...]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

func (r Rank) String() string {
	if r < Ace || r > King {
		return fmt.Sprintf("rank(%d)", int(r))
	}
	return rankNames[r]
}

// Card is an immutable suit/rank value. Equality is suit+rank; there is
// no card identity beyond its value.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return c.Rank.String() + " of " + c.Suit.String()
}

// IsWild reports whether c matches any top card and cancels or
// continues a forced-draw chain. Only aces are wild.
func (c Card) IsWild() bool {
	return c.Rank == Ace
}

// IsFeeder reports whether c forces the next player to draw. A two
// feeds 2 cards, a three feeds 3.
func (c Card) IsFeeder() bool {
	return c.Rank == Two || c.Rank == Three
}

// FeedCount returns how many cards c forces the next player to draw,
// or 0 if c is not a feeder.
func (c Card) FeedCount() int {
	switch c.Rank {
	case Two:
		return 2
	case Three:
		return 3
	}
	return 0
}

// IsQuestion reports whether c keeps the current player's turn until
// covered: eights, jacks, queens and kings.
func (c Card) IsQuestion() bool {
	switch c.Rank {
	case Eight, Jack, Queen, King:
		return true
	}
	return false
}

// IsFinisher reports whether a hand may legally empty on c. Only plain
// ranks with no side effect qualify.
func (c Card) IsFinisher() bool {
	return !c.IsWild() && !c.IsFeeder() && !c.IsQuestion()
}

// NewDeck returns the 52 cards of a standard deck in suit-then-rank
// order. No jokers, no duplicates.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for r := Ace; r <= King; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle permutes cards in place using rng.
func Shuffle(cards []Card, rng *rand.Rand) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Index returns the position of c in cards, or -1.
func Index(cards []Card, c Card) int {
	for i, x := range cards {
		if x == c {
			return i
		}
	}
	return -1
}

// Remove returns cards with the first occurrence of each member of seq
// removed. The second return is false if any member is missing, in
// which case cards is returned unchanged.
func Remove(cards []Card, seq []Card) ([]Card, bool) {
	out := make([]Card, len(cards))
	copy(out, cards)
	for _, c := range seq {
		i := Index(out, c)
		if i < 0 {
			return cards, false
		}
		out = append(out[:i], out[i+1:]...)
	}
	return out, true
}
