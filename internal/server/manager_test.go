package server

import (
	"testing"

	"github.com/cwbudde/keysweep/internal/keyspace"
	"github.com/cwbudde/keysweep/internal/search"
)

func TestCreateSearchAssignsUniqueIDs(t *testing.T) {
	m := NewSearchManager()

	a := m.CreateSearch(search.Config{TargetPath: "a.gpg"})
	b := m.CreateSearch(search.Config{TargetPath: "b.gpg"})

	if a.ID == "" || b.ID == "" {
		t.Fatalf("expected non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct IDs, both are %q", a.ID)
	}
	if a.State != StatePending {
		t.Errorf("initial state = %q, want %q", a.State, StatePending)
	}
}

func TestGetSearchReturnsCopy(t *testing.T) {
	m := NewSearchManager()
	created := m.CreateSearch(search.Config{TargetPath: "doc.gpg"})

	got, exists := m.GetSearch(created.ID)
	if !exists {
		t.Fatal("search not found after create")
	}

	// Mutating the returned record must not leak into the manager.
	got.State = StateFound
	got.Tested = 99

	again, _ := m.GetSearch(created.ID)
	if again.State != StatePending || again.Tested != 0 {
		t.Errorf("stored record changed through a copy: state=%q tested=%d", again.State, again.Tested)
	}
}

func TestUpdateSearch(t *testing.T) {
	m := NewSearchManager()
	created := m.CreateSearch(search.Config{TargetPath: "doc.gpg"})

	err := m.UpdateSearch(created.ID, func(s *Search) {
		s.State = StateRunning
		s.Position = keyspace.Position{Length: 2, Offset: 7}
		s.Tested = 42
	})
	if err != nil {
		t.Fatalf("UpdateSearch failed: %v", err)
	}

	got, _ := m.GetSearch(created.ID)
	if got.State != StateRunning || got.Tested != 42 {
		t.Errorf("update not applied: state=%q tested=%d", got.State, got.Tested)
	}
	if got.Position.Length != 2 || got.Position.Offset != 7 {
		t.Errorf("position = %+v, want {2 7}", got.Position)
	}

	if err := m.UpdateSearch("no-such-id", func(s *Search) {}); err == nil {
		t.Error("expected error for unknown search ID")
	}
}

func TestManagerListSearches(t *testing.T) {
	m := NewSearchManager()
	if got := m.ListSearches(); len(got) != 0 {
		t.Fatalf("expected empty list, got %d records", len(got))
	}

	m.CreateSearch(search.Config{TargetPath: "one.gpg"})
	m.CreateSearch(search.Config{TargetPath: "two.gpg"})

	if got := m.ListSearches(); len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
}

func TestRunningSearches(t *testing.T) {
	m := NewSearchManager()
	a := m.CreateSearch(search.Config{TargetPath: "a.gpg"})
	m.CreateSearch(search.Config{TargetPath: "b.gpg"})

	m.UpdateSearch(a.ID, func(s *Search) { s.State = StateRunning })

	running := m.RunningSearches()
	if len(running) != 1 {
		t.Fatalf("expected 1 running search, got %d", len(running))
	}
	if running[0].ID != a.ID {
		t.Errorf("running search ID = %q, want %q", running[0].ID, a.ID)
	}
}

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state SearchState
		want  bool
	}{
		{StatePending, false},
		{StateRunning, false},
		{StateFound, true},
		{StateExhausted, true},
		{StateFailed, true},
		{StateCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}
