package room

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kadi/internal/storage"
)

// Broker manages all active rooms. Rooms are independent units of
// state; the broker only guards the map itself.
type Broker struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	store  *storage.Store
	newRng func() *rand.Rand
}

// NewBroker creates a broker backed by store for the results log.
func NewBroker(store *storage.Store) *Broker {
	return &Broker{
		rooms: make(map[string]*Room),
		store: store,
		newRng: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// SetRandFactory overrides the per-room random source, for tests.
func (b *Broker) SetRandFactory(f func() *rand.Rand) {
	b.newRng = f
}

// Create makes a new room with hostID as participant A.
func (b *Broker) Create(hostID string) (*Room, error) {
	code := newCode()
	if err := b.store.CreateRoom(code); err != nil {
		return nil, fmt.Errorf("persist room: %w", err)
	}
	r := newRoom(code, b.newRng())
	if _, err := r.Join(hostID); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.rooms[code] = r
	b.mu.Unlock()
	return r, nil
}

// Get returns a room by code.
func (b *Broker) Get(code string) (*Room, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.rooms[code]
	return r, ok
}

// Join adds playerID to the named room. started reports that this join
// completed the pair and the deal happened.
func (b *Broker) Join(code, playerID string) (*Room, bool, error) {
	r, ok := b.Get(code)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	started, err := r.Join(playerID)
	if err != nil {
		return nil, false, err
	}
	return r, started, nil
}

// Remove deletes a room from memory and storage.
func (b *Broker) Remove(code string) {
	b.mu.Lock()
	delete(b.rooms, code)
	b.mu.Unlock()
	b.store.DeleteRoom(code)
}

// RecordResult writes a finished game to the results log. A room whose
// game is not finished is ignored.
func (b *Broker) RecordResult(r *Room) {
	res, ok := r.Result()
	if !ok {
		return
	}
	if err := b.store.RecordResult(r.Code, res.Winner, res.Loser, res.LoserCards, res.Moves); err != nil {
		log.Printf("record result for room %s: %v", r.Code, err)
	}
}

// CleanupLoop removes abandoned rooms periodically.
func (b *Broker) CleanupLoop(interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		b.cleanup(maxAge)
	}
}

func (b *Broker) cleanup(maxAge time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	for code, r := range b.rooms {
		if r.Empty() {
			log.Printf("cleaning up empty room %s", code)
			b.store.DeleteRoom(code)
			delete(b.rooms, code)
			continue
		}
		// Rooms whose pair never completed expire after maxAge.
		if r.Started() {
			continue
		}
		row, err := b.store.GetRoom(code)
		if err != nil || now.Sub(row.CreatedAt) > maxAge {
			log.Printf("cleaning up stale room %s", code)
			b.store.DeleteRoom(code)
			delete(b.rooms, code)
		}
	}
}

// newCode derives a short shareable room identifier from a UUID.
func newCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}
