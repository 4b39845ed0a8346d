package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/marginfc/internal/pipeline"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleCategories(w http.ResponseWriter, _ *http.Request) {
	r := s.currentRunner()
	if r == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "tables not loaded yet"})
		return
	}
	writeJSON(w, http.StatusOK, r.Categories())
}

// handlePipeline answers /v1/pipeline?category=X. An absent category means "All".
func (s *Service) handlePipeline(w http.ResponseWriter, req *http.Request) {
	r := s.currentRunner()
	if r == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "tables not loaded yet"})
		return
	}

	category := req.URL.Query().Get("category")
	res, err := r.Run(category)
	if err != nil {
		code, kind := classify(err)
		if code == http.StatusInternalServerError {
			s.log.Error("pipeline query failed", zap.String("category", category), zap.Error(err))
		}
		writeJSON(w, code, errorBody{Error: err.Error(), Kind: kind})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// classify maps pipeline failures onto HTTP status codes.
func classify(err error) (int, string) {
	var (
		emptyErr        *pipeline.EmptyFilterResultError
		insufficientErr *pipeline.InsufficientDataError
	)
	switch {
	case errors.As(err, &emptyErr):
		return http.StatusNotFound, "empty_filter_result"
	case errors.As(err, &insufficientErr):
		return http.StatusUnprocessableEntity, "insufficient_data"
	default:
		return http.StatusInternalServerError, ""
	}
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
