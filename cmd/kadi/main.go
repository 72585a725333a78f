// Command kadi plays a game against the computer in the terminal. It
// is a thin presentation shell: all rules live in the core packages.
package main

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"kadi/internal/card"
	"kadi/internal/local"
	"kadi/internal/match"
)

func main() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	game := local.New("you", rng)
	game.OnOpponentMove = printOpponentMove
	game.Think = func() { time.Sleep(600 * time.Millisecond) }
	game.Start()

	in := bufio.NewScanner(os.Stdin)
	for {
		view := game.Snapshot()
		printView(view)
		if view.Status == match.StatusFinished {
			fmt.Print("rematch? [y/n] ")
			if !in.Scan() || strings.TrimSpace(in.Text()) != "y" {
				return
			}
			if err := game.Rematch(); err != nil {
				log.Fatalf("rematch: %v", err)
			}
			continue
		}

		fmt.Print("> ")
		if !in.Scan() {
			return
		}
		fields := strings.Fields(strings.ToLower(in.Text()))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "drop", "d":
			seq, err := parseCards(fields[1:])
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := game.SubmitDrop(seq); err != nil {
				fmt.Println("rejected:", err)
			}
		case "draw", "p":
			drawn, err := game.SubmitDraw()
			if err != nil {
				fmt.Println("rejected:", err)
				continue
			}
			fmt.Printf("you drew %s\n", cardList(drawn))
		case "quit", "q":
			return
		default:
			fmt.Println("commands: drop <cards>, draw, quit (e.g. drop 5h 5s)")
		}
	}
}

func printView(v match.View) {
	fmt.Println()
	fmt.Printf("top: %s | deck: %d | opponent: %d cards | wins %d-%d\n",
		shortCard(v.Top), v.DeckCount, v.OpponentHandCount, v.OwnWins, v.OpponentWins)
	if v.Pending.Active {
		fmt.Printf("forced draw pending: %d cards\n", v.Pending.Count)
	}
	fmt.Printf("hand: %s\n", cardList(v.OwnHand))
	switch {
	case v.Status == match.StatusFinished && v.Winner == v.You:
		fmt.Println("*** you win! ***")
	case v.Status == match.StatusFinished:
		fmt.Println("*** the computer wins ***")
	case v.TurnOwner == v.You:
		fmt.Println("your turn")
	}
}

func printOpponentMove(m local.Move) {
	if m.Type == "drop" {
		fmt.Printf("computer plays %s\n", cardList(m.Cards))
	} else {
		fmt.Printf("computer draws %d\n", m.Count)
	}
}

func cardList(cards []card.Card) string {
	if len(cards) == 0 {
		return "(none)"
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = shortCard(c)
	}
	return strings.Join(parts, " ")
}

func shortCard(c card.Card) string {
	return c.Rank.String() + string("cdhs"[c.Suit])
}

// parseCards reads tokens like "5h", "10s", "jd" or "ac".
func parseCards(tokens []string) ([]card.Card, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no cards given")
	}
	seq := make([]card.Card, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) < 2 {
			return nil, fmt.Errorf("bad card %q", tok)
		}
		suit := strings.IndexByte("cdhs", tok[len(tok)-1])
		if suit < 0 {
			return nil, fmt.Errorf("bad suit in %q (use c, d, h or s)", tok)
		}
		rank := -1
		for r := card.Ace; r <= card.King; r++ {
			if strings.ToLower(r.String()) == tok[:len(tok)-1] {
				rank = int(r)
				break
			}
		}
		if rank < 0 {
			return nil, fmt.Errorf("bad rank in %q", tok)
		}
		seq = append(seq, card.Card{Suit: card.Suit(suit), Rank: card.Rank(rank)})
	}
	return seq, nil
}
