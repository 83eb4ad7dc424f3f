// Package server exposes searches as managed background jobs over a JSON API
// with server-sent progress events.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/keysweep/internal/keyspace"
	"github.com/cwbudde/keysweep/internal/search"
)

// SearchState represents the current state of a managed search.
type SearchState string

const (
	StatePending   SearchState = "pending"
	StateRunning   SearchState = "running"
	StateFound     SearchState = "found"
	StateExhausted SearchState = "exhausted"
	StateFailed    SearchState = "failed"
	StateCancelled SearchState = "cancelled"
)

// Terminal reports whether the state is final.
func (s SearchState) Terminal() bool {
	switch s {
	case StateFound, StateExhausted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Search is the server-side record of one keyspace search.
type Search struct {
	ID        string              `json:"id"`
	State     SearchState         `json:"state"`
	Config    search.Config       `json:"config"`
	Position  keyspace.Position   `json:"position"`
	Tested    uint64              `json:"tested"`
	Total     uint64              `json:"total,omitempty"`
	Secret    *search.FoundSecret `json:"secret,omitempty"`
	StartTime time.Time           `json:"startTime"`
	EndTime   *time.Time          `json:"endTime,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// SearchManager owns the search records and their event broadcaster.
// Accessors return copies, so callers never observe a record mid-update.
type SearchManager struct {
	mu          sync.RWMutex
	searches    map[string]*Search
	broadcaster *EventBroadcaster
}

// NewSearchManager creates an empty manager.
func NewSearchManager() *SearchManager {
	return &SearchManager{
		searches:    make(map[string]*Search),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateSearch registers a new pending search for the given configuration.
func (m *SearchManager) CreateSearch(cfg search.Config) Search {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Search{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    cfg,
		StartTime: time.Now(),
	}
	m.searches[s.ID] = s
	return *s
}

// GetSearch returns a copy of the search record.
func (m *SearchManager) GetSearch(id string) (Search, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.searches[id]
	if !exists {
		return Search{}, false
	}
	return *s, true
}

// ListSearches returns copies of all search records.
func (m *SearchManager) ListSearches() []Search {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Search, 0, len(m.searches))
	for _, s := range m.searches {
		out = append(out, *s)
	}
	return out
}

// UpdateSearch atomically mutates a search record.
func (m *SearchManager) UpdateSearch(id string, updateFn func(*Search)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.searches[id]
	if !exists {
		return fmt.Errorf("search not found: %s", id)
	}
	updateFn(s)
	return nil
}

// RunningSearches returns copies of all searches still in flight.
func (m *SearchManager) RunningSearches() []Search {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Search, 0)
	for _, s := range m.searches {
		if s.State == StateRunning {
			out = append(out, *s)
		}
	}
	return out
}
