package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ProgressEvent is one progress update for a search, broadcast after every
// collected batch and on terminal transitions.
type ProgressEvent struct {
	SearchID  string      `json:"searchId"`
	State     SearchState `json:"state"`
	Length    int         `json:"length"`
	Offset    uint64      `json:"offset"`
	Tested    uint64      `json:"tested"`
	Total     uint64      `json:"total,omitempty"`
	Rate      float64     `json:"rate"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventBroadcaster manages SSE subscriptions per search.
type EventBroadcaster struct {
	mu        sync.RWMutex
	clients   map[string]map[chan ProgressEvent]bool // searchID -> client channels
	lastEvent map[string]ProgressEvent               // searchID -> last event for new clients
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]map[chan ProgressEvent]bool),
		lastEvent: make(map[string]ProgressEvent),
	}
}

// Subscribe adds a client to receive events for a search.
func (eb *EventBroadcaster) Subscribe(searchID string) chan ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan ProgressEvent, 10) // buffered to prevent blocking

	if eb.clients[searchID] == nil {
		eb.clients[searchID] = make(map[chan ProgressEvent]bool)
	}
	eb.clients[searchID][ch] = true

	// Replay the last event so reconnecting clients catch up immediately.
	if last, ok := eb.lastEvent[searchID]; ok {
		select {
		case ch <- last:
		default:
		}
	}

	slog.Debug("SSE client subscribed", "searchID", searchID, "clients", len(eb.clients[searchID]))
	return ch
}

// Unsubscribe removes a client channel.
func (eb *EventBroadcaster) Unsubscribe(searchID string, ch chan ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if clients, ok := eb.clients[searchID]; ok {
		delete(clients, ch)
		close(ch)
		if len(clients) == 0 {
			delete(eb.clients, searchID)
		}
	}

	slog.Debug("SSE client unsubscribed", "searchID", searchID)
}

// Broadcast fans an event out to every subscriber of its search. Sends never
// block; a client with a full channel misses the event rather than stalling
// the search.
func (eb *EventBroadcaster) Broadcast(event ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastEvent[event.SearchID] = event

	clients := eb.clients[event.SearchID]
	if len(clients) == 0 {
		return
	}
	for ch := range clients {
		select {
		case ch <- event:
		default:
			slog.Warn("SSE channel full, skipping event", "searchID", event.SearchID)
		}
	}
}

// handleSearchStream serves SSE progress for one search.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request, searchID string) {
	record, exists := s.manager.GetSearch(searchID)
	if !exists {
		http.Error(w, "Search not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	eventChan := s.manager.broadcaster.Subscribe(searchID)
	defer s.manager.broadcaster.Unsubscribe(searchID, eventChan)

	// Send the current state immediately so clients never start blind.
	initial := ProgressEvent{
		SearchID:  record.ID,
		State:     record.State,
		Length:    record.Position.Length,
		Offset:    record.Position.Offset,
		Tested:    record.Tested,
		Total:     record.Total,
		Timestamp: time.Now(),
	}
	if err := writeSSEEvent(w, initial); err != nil {
		slog.Error("Failed to write initial SSE event", "error", err)
		return
	}
	flusher.Flush()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("SSE client disconnected", "searchID", searchID)
			return

		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write SSE event", "error", err)
				return
			}
			flusher.Flush()

		case <-pingTicker.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes an event in SSE wire format: "data: {json}\n\n".
func writeSSEEvent(w http.ResponseWriter, event ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
