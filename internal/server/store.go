package server

import (
	"fmt"
	"sync"

	"github.com/cardroom/tabled/internal/game"
)

// TableStore holds the live tables. Tables are in-process objects with
// their own locks; the store only guards the map.
type TableStore interface {
	Put(t *game.Table)
	Get(id string) (*game.Table, error)
	Delete(id string) error
	List() []*game.Table
}

// MemoryTableStore is the in-process TableStore.
type MemoryTableStore struct {
	mu     sync.RWMutex
	tables map[string]*game.Table
}

// NewMemoryTableStore returns an empty store.
func NewMemoryTableStore() *MemoryTableStore {
	return &MemoryTableStore{tables: make(map[string]*game.Table)}
}

// Put registers a table, replacing any table with the same ID.
func (s *MemoryTableStore) Put(t *game.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = t
}

// Get returns the table or game.ErrTableNotFound.
func (s *MemoryTableStore) Get(id string) (*game.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", game.ErrTableNotFound, id)
	}
	return t, nil
}

// Delete removes the table or returns game.ErrTableNotFound.
func (s *MemoryTableStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[id]; !ok {
		return fmt.Errorf("%w: %s", game.ErrTableNotFound, id)
	}
	delete(s.tables, id)
	return nil
}

// List returns every registered table.
func (s *MemoryTableStore) List() []*game.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*game.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	return out
}
