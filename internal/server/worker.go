package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/keysweep/internal/keyspace"
	"github.com/cwbudde/keysweep/internal/search"
)

// runSearch executes a managed search in the background, mirroring every
// batch into the manager's record and the event broadcaster.
func runSearch(ctx context.Context, m *SearchManager, searchID string) error {
	record, exists := m.GetSearch(searchID)
	if !exists {
		return fmt.Errorf("search not found: %s", searchID)
	}

	searcher, err := search.New(record.Config)
	if err != nil {
		markSearchFailed(m, searchID, err)
		return err
	}

	if err := m.UpdateSearch(searchID, func(s *Search) {
		s.State = StateRunning
		s.Total = searcher.Total()
	}); err != nil {
		return err
	}

	slog.Info("Starting search", "search_id", searchID, "target", record.Config.TargetPath)

	searcher.Progress = func(p search.Progress) {
		m.UpdateSearch(searchID, func(s *Search) {
			s.Position = keyspace.Position{Length: p.Length, Offset: p.Offset}
			s.Tested = p.Tested
		})
		var rate float64
		if secs := p.Elapsed.Seconds(); secs > 0 {
			rate = float64(p.Tested) / secs
		}
		m.broadcaster.Broadcast(ProgressEvent{
			SearchID:  searchID,
			State:     StateRunning,
			Length:    p.Length,
			Offset:    p.Offset,
			Tested:    p.Tested,
			Total:     p.Total,
			Rate:      rate,
			Timestamp: time.Now(),
		})
	}

	start := time.Now()
	summary, err := searcher.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			markSearchCancelled(m, searchID)
		} else {
			markSearchFailed(m, searchID, err)
		}
		return err
	}

	state := StateExhausted
	if summary.Verdict == search.VerdictFound {
		state = StateFound
	}
	endTime := time.Now()
	m.UpdateSearch(searchID, func(s *Search) {
		s.State = state
		s.Secret = summary.Secret
		s.Tested = summary.Tested
		s.Position = summary.LastPosition
		s.EndTime = &endTime
	})

	elapsed := time.Since(start)
	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(summary.Tested) / elapsed.Seconds()
	}
	slog.Info("Search finished",
		"search_id", searchID,
		"state", state,
		"tested", summary.Tested,
		"elapsed", elapsed,
		"rate", rate,
	)

	broadcastTerminal(m, searchID)
	return nil
}

// markSearchFailed records a failure and notifies subscribers.
func markSearchFailed(m *SearchManager, searchID string, err error) {
	endTime := time.Now()
	m.UpdateSearch(searchID, func(s *Search) {
		s.State = StateFailed
		s.Error = err.Error()
		s.EndTime = &endTime
	})
	slog.Error("Search failed", "search_id", searchID, "error", err)
	broadcastTerminal(m, searchID)
}

// markSearchCancelled records a cancellation and notifies subscribers.
func markSearchCancelled(m *SearchManager, searchID string) {
	endTime := time.Now()
	m.UpdateSearch(searchID, func(s *Search) {
		s.State = StateCancelled
		s.EndTime = &endTime
	})
	slog.Info("Search cancelled", "search_id", searchID)
	broadcastTerminal(m, searchID)
}

// broadcastTerminal sends the record's final state to subscribers.
func broadcastTerminal(m *SearchManager, searchID string) {
	rec, exists := m.GetSearch(searchID)
	if !exists {
		return
	}
	var rate float64
	if rec.EndTime != nil {
		if secs := rec.EndTime.Sub(rec.StartTime).Seconds(); secs > 0 {
			rate = float64(rec.Tested) / secs
		}
	}
	m.broadcaster.Broadcast(ProgressEvent{
		SearchID:  searchID,
		State:     rec.State,
		Length:    rec.Position.Length,
		Offset:    rec.Position.Offset,
		Tested:    rec.Tested,
		Total:     rec.Total,
		Rate:      rate,
		Timestamp: time.Now(),
	})
}
