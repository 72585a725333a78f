package card

import (
	"math/rand"
	"testing"
)

func TestRankClasses(t *testing.T) {
	tests := []struct {
		rank     Rank
		wild     bool
		feeder   bool
		question bool
		finisher bool
	}{
		{Ace, true, false, false, false},
		{Two, false, true, false, false},
		{Three, false, true, false, false},
		{Four, false, false, false, true},
		{Five, false, false, false, true},
		{Six, false, false, false, true},
		{Seven, false, false, false, true},
		{Eight, false, false, true, false},
		{Nine, false, false, false, true},
		{Ten, false, false, false, true},
		{Jack, false, false, true, false},
		{Queen, false, false, true, false},
		{King, false, false, true, false},
	}
	for _, tt := range tests {
		c := Card{Suit: Hearts, Rank: tt.rank}
		if c.IsWild() != tt.wild {
			t.Errorf("%s: IsWild = %v, want %v", c, c.IsWild(), tt.wild)
		}
		if c.IsFeeder() != tt.feeder {
			t.Errorf("%s: IsFeeder = %v, want %v", c, c.IsFeeder(), tt.feeder)
		}
		if c.IsQuestion() != tt.question {
			t.Errorf("%s: IsQuestion = %v, want %v", c, c.IsQuestion(), tt.question)
		}
		if c.IsFinisher() != tt.finisher {
			t.Errorf("%s: IsFinisher = %v, want %v", c, c.IsFinisher(), tt.finisher)
		}
	}
}

func TestFeedCount(t *testing.T) {
	if n := (Card{Suit: Spades, Rank: Two}).FeedCount(); n != 2 {
		t.Fatalf("two feeds %d, want 2", n)
	}
	if n := (Card{Suit: Spades, Rank: Three}).FeedCount(); n != 3 {
		t.Fatalf("three feeds %d, want 3", n)
	}
	if n := (Card{Suit: Spades, Rank: Five}).FeedCount(); n != 0 {
		t.Fatalf("five feeds %d, want 0", n)
	}
}

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	if len(deck) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(deck))
	}
	seen := make(map[Card]bool)
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card %s", c)
		}
		seen[c] = true
	}
}

func TestShuffleKeepsAllCards(t *testing.T) {
	deck := NewDeck()
	Shuffle(deck, rand.New(rand.NewSource(1)))
	if len(deck) != 52 {
		t.Fatalf("expected 52 cards after shuffle, got %d", len(deck))
	}
	seen := make(map[Card]bool)
	for _, c := range deck {
		seen[c] = true
	}
	if len(seen) != 52 {
		t.Fatalf("expected 52 distinct cards after shuffle, got %d", len(seen))
	}
}

func TestRemove(t *testing.T) {
	hand := []Card{
		{Hearts, Five},
		{Spades, Five},
		{Clubs, King},
	}
	rest, ok := Remove(hand, []Card{{Spades, Five}})
	if !ok {
		t.Fatal("expected removal to succeed")
	}
	if len(rest) != 2 {
		t.Fatalf("expected 2 cards left, got %d", len(rest))
	}
	if Index(rest, Card{Spades, Five}) != -1 {
		t.Fatal("removed card still present")
	}
	// Original slice untouched
	if len(hand) != 3 {
		t.Fatalf("input hand mutated, len %d", len(hand))
	}
}

func TestRemoveMissingCard(t *testing.T) {
	hand := []Card{{Hearts, Five}}
	rest, ok := Remove(hand, []Card{{Diamonds, Nine}})
	if ok {
		t.Fatal("expected removal to fail")
	}
	if len(rest) != 1 {
		t.Fatalf("expected hand unchanged, got %d cards", len(rest))
	}
}

func TestRemoveDuplicateRequest(t *testing.T) {
	// Asking for the same card twice must fail against a single copy.
	hand := []Card{{Hearts, Five}, {Spades, Nine}}
	_, ok := Remove(hand, []Card{{Hearts, Five}, {Hearts, Five}})
	if ok {
		t.Fatal("expected removal of duplicate request to fail")
	}
}
