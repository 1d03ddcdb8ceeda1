package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/policydesk/internal/logging"
)

// subscriber is one open event stream. A nil watch set accepts every action.
type subscriber struct {
	events chan TransitionEvent
	watch  map[string]bool
}

func (sub *subscriber) wants(action string) bool {
	return sub.watch == nil || sub.watch[action]
}

// StreamManager fans transition events out to the open streams of each run.
type StreamManager struct {
	mu     sync.RWMutex
	runs   map[string]map[*subscriber]struct{}
	logger *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		runs:   make(map[string]map[*subscriber]struct{}),
		logger: logging.NewNop(),
	}
}

// Subscribe opens a stream on runID. With actions, only those transitions
// are delivered. The returned func closes the stream.
func (sm *StreamManager) Subscribe(runID string, actions ...string) (<-chan TransitionEvent, func()) {
	sub := &subscriber{events: make(chan TransitionEvent, 10)}
	if len(actions) > 0 {
		sub.watch = make(map[string]bool, len(actions))
		for _, a := range actions {
			sub.watch[a] = true
		}
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.runs[runID]; !ok {
		sm.runs[runID] = make(map[*subscriber]struct{})
	}
	sm.runs[runID][sub] = struct{}{}

	return sub.events, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		subs, ok := sm.runs[runID]
		if !ok {
			return
		}
		if _, ok := subs[sub]; !ok {
			return
		}
		delete(subs, sub)
		close(sub.events)
		if len(subs) == 0 {
			delete(sm.runs, runID)
		}
	}
}

// Subscribers returns the number of open streams of a run.
func (sm *StreamManager) Subscribers(runID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.runs[runID])
}

// Broadcast delivers ev to the streams of its run that watch its action.
// A subscriber whose buffer is full misses the event.
func (sm *StreamManager) Broadcast(ev TransitionEvent) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs, ok := sm.runs[ev.RunID]
	if !ok {
		return
	}
	delivered := 0
	for sub := range subs {
		if !sub.wants(ev.Action) {
			continue
		}
		select {
		case sub.events <- ev:
			delivered++
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping event", "run_id", ev.RunID, "action", ev.Action)
		}
	}
	sm.logger.Debug("StreamManager: Broadcasting", "run_id", ev.RunID, "action", ev.Action, "delivered", delivered, "subscribers", len(subs))
}

// Close ends every stream of runID, e.g. when the run is removed.
func (sm *StreamManager) Close(runID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for sub := range sm.runs[runID] {
		close(sub.events)
	}
	delete(sm.runs, runID)
}

// SubscribeEvents handles the GET /wizards/{id}/events request (SSE).
// The optional ?watch=next,back filter keeps only the listed transitions.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	runID := chi.URLParam(r, "id")
	if !slices.Contains(s.Runs.List(), runID) {
		http.Error(w, fmt.Sprintf("Wizard run '%s' not found", runID), http.StatusNotFound)
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				watch = append(watch, a)
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.Streams.Subscribe(runID, watch...)
	defer cancel()

	s.logger.Info("SSE: Subscribing to run transitions", "run_id", runID, "watch", watch)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "run_id", runID)
			return
		case ev, ok := <-events:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", runID)
				flusher.Flush()
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("Transition event encode failed", "run_id", runID, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: transition\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
