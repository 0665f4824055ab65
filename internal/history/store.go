// Package history persists completed-hand records. Three stores ship: an
// in-process memory store, a Redis store, and a Postgres store. All of them
// are append-only; records are never rewritten once saved.
package history

import (
	"context"
	"errors"
	"sync"

	"github.com/cardroom/tabled/internal/game"
)

// ErrNotFound is returned when a table has no recorded hands.
var ErrNotFound = errors.New("history: no hands recorded")

// Store persists hand records and serves them back per table, most recent
// first.
type Store interface {
	SaveHand(ctx context.Context, rec game.HandRecord) error
	Hands(ctx context.Context, tableID string, limit int) ([]game.HandRecord, error)
}

// MemoryStore keeps records in process memory. It is the default store and
// the one the tests use.
type MemoryStore struct {
	mu    sync.RWMutex
	hands map[string][]game.HandRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hands: make(map[string][]game.HandRecord)}
}

// SaveHand implements Store.
func (s *MemoryStore) SaveHand(_ context.Context, rec game.HandRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hands[rec.TableID] = append(s.hands[rec.TableID], rec)
	return nil
}

// Hands implements Store. limit <= 0 returns everything.
func (s *MemoryStore) Hands(_ context.Context, tableID string, limit int) ([]game.HandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, ok := s.hands[tableID]
	if !ok || len(recs) == 0 {
		return nil, ErrNotFound
	}
	if limit <= 0 || limit > len(recs) {
		limit = len(recs)
	}

	out := make([]game.HandRecord, limit)
	for i := 0; i < limit; i++ {
		out[i] = recs[len(recs)-1-i]
	}
	return out, nil
}
