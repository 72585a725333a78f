// Package room implements the networked broker: each room owns the
// authoritative deck, both hands and the session for one pair of
// peers, and projects a hidden view to each of them. No client is ever
// sent more than its own hand and opposing counts.
package room

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"kadi/internal/card"
	"kadi/internal/match"
	"kadi/internal/rules"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotStarted       = errors.New("game not started")
	ErrPeerDisconnected = errors.New("peer disconnected")
)

// Participant is one connected peer.
type Participant struct {
	ID   string
	Send chan []byte // outbound messages
}

// Room holds one pair of participants and their match. All state is
// guarded by the room's own mutex; distinct rooms share nothing and
// run fully in parallel.
type Room struct {
	mu           sync.RWMutex
	Code         string
	participants []*Participant // seat order, creator first
	match        *match.Match
	rng          *rand.Rand
	closed       bool // a participant left; no resume
}

func newRoom(code string, rng *rand.Rand) *Room {
	return &Room{Code: code, rng: rng}
}

// Join adds playerID to the room. Joining a room you are already in is
// a no-op. The second distinct participant completes the pair: the
// deck is shuffled and dealt and the match begins; started reports
// that transition.
func (r *Room) Join(playerID string) (started bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.participants {
		if p.ID == playerID {
			return false, nil
		}
	}
	if len(r.participants) >= 2 {
		return false, fmt.Errorf("%w: %s", ErrRoomFull, r.Code)
	}
	r.participants = append(r.participants, &Participant{
		ID:   playerID,
		Send: make(chan []byte, 64),
	})
	if len(r.participants) == 2 {
		r.match = match.New([2]string{r.participants[0].ID, r.participants[1].ID}, r.rng)
		return true, nil
	}
	return false, nil
}

// Connect replaces the send channel for a participant. Returns false
// if the player is not in the room.
func (r *Room) Connect(playerID string, send chan []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.ID == playerID {
			p.Send = send
			return true
		}
	}
	return false
}

// Leave removes playerID, marks the session dead and returns the
// remaining peer, if any. The caller notifies the peer and tears the
// room down; there is no rejoin. The leaver's Send channel stays open:
// a broadcast racing the disconnect must never hit a closed channel,
// so writer teardown is the connection's job, not the room's.
func (r *Room) Leave(playerID string) *Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	var remaining *Participant
	kept := r.participants[:0]
	removed := false
	for _, p := range r.participants {
		if p.ID == playerID {
			removed = true
			continue
		}
		remaining = p
		kept = append(kept, p)
	}
	r.participants = kept
	if removed {
		r.closed = true
	}
	return remaining
}

// Participant returns the named participant, or nil.
func (r *Room) Participant(playerID string) *Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// Opponent returns the other participant, or nil.
func (r *Room) Opponent(playerID string) *Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.ID != playerID {
			return p
		}
	}
	return nil
}

// ParticipantIDs returns the joined player IDs in seat order.
func (r *Room) ParticipantIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.participants))
	for _, p := range r.participants {
		ids = append(ids, p.ID)
	}
	return ids
}

// Started reports whether both participants have joined and the deal
// is done.
func (r *Room) Started() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.match != nil
}

// Snapshot projects the match for playerID.
func (r *Room) Snapshot(playerID string) (match.View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.match == nil {
		return match.View{}, ErrNotStarted
	}
	return r.match.Snapshot(playerID)
}

// liveLocked rejects moves against a dead or undealt session. Caller
// holds the lock.
func (r *Room) liveLocked() error {
	if r.closed {
		return ErrPeerDisconnected
	}
	if r.match == nil {
		return ErrNotStarted
	}
	return nil
}

// Drop relays a validated drop into the match. finished reports that
// this move ended the game.
func (r *Room) Drop(playerID string, seq []card.Card) (finished bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.liveLocked(); err != nil {
		return false, err
	}
	if err := r.match.Drop(playerID, seq); err != nil {
		return false, err
	}
	return r.match.Status() == match.StatusFinished, nil
}

// Draw draws the owed count for playerID from the authoritative deck.
// claimed is the count the client asked for; zero means unspecified. A
// claim that disagrees with the owed count is rejected rather than
// silently corrected. The returned card identities go to the drawer
// only; the opponent learns the count alone.
func (r *Room) Draw(playerID string, claimed int) ([]card.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.liveLocked(); err != nil {
		return nil, err
	}
	if claimed != 0 && claimed != r.match.OwedDraw() {
		return nil, fmt.Errorf("%w: claimed draw of %d, owed %d", rules.ErrIllegalMove, claimed, r.match.OwedDraw())
	}
	return r.match.Draw(playerID)
}

// Rematch re-shuffles and re-deals for the existing pair.
func (r *Room) Rematch() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.liveLocked(); err != nil {
		return err
	}
	return r.match.Rematch()
}

// Result describes a finished game for the results log.
type Result struct {
	Winner     string
	Loser      string
	LoserCards int
	Moves      int
}

// Result returns the outcome of a finished game, or false.
func (r *Room) Result() (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.match == nil || r.match.Status() != match.StatusFinished {
		return Result{}, false
	}
	winner := r.match.Winner()
	loser := r.match.Opponent(winner)
	return Result{
		Winner:     winner,
		Loser:      loser,
		LoserCards: r.match.HandCount(loser),
		Moves:      r.match.Moves(),
	}, true
}

// Status returns the session status as seen through the room: dealing
// until the pair is complete, then the match status.
func (r *Room) Status() match.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.match == nil {
		return match.StatusDealing
	}
	return r.match.Status()
}

// Empty reports whether all participants have left.
func (r *Room) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants) == 0
}
