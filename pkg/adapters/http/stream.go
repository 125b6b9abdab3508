package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/wayfinder/pkg/domain"
)

// diffKinds are the render calls after which the snapshot is worth re-reading.
var diffKinds = map[domain.RenderKind]bool{
	domain.RenderStart:        true,
	domain.RenderEnd:          true,
	domain.RenderPath:         true,
	domain.RenderStats:        true,
	domain.RenderControls:     true,
	domain.RenderClearBlocked: true,
	domain.RenderClearPath:    true,
}

// Stream handles the GET /sessions/{id}/stream request (SSE).
// It forwards every render event as "render" and follows state-level changes
// with a "diff" event carrying domain.SnapshotDiff.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("Stream: Streaming not supported")
		return
	}

	var watch map[domain.RenderKind]bool
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = make(map[domain.RenderKind]bool)
		for _, k := range strings.Split(raw, ",") {
			watch[domain.RenderKind(strings.TrimSpace(k))] = true
		}
	}

	events, cancel := h.Publisher.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	s.logger.Info("SSE: Subscribing to session", "session", h.Session.ID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	last, err := h.Session.Snapshot(ctx)
	if err != nil {
		return
	}
	writeEvent(w, "diff", domain.Diff(nil, &last))
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SSE Client Disconnected", "session", h.Session.ID)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if watch == nil || watch[e.Kind] {
				writeEvent(w, "render", e)
			}
			if diffKinds[e.Kind] {
				snap, err := h.Session.Snapshot(ctx)
				if err != nil {
					return
				}
				if diff := domain.Diff(&last, &snap); diff != nil {
					writeEvent(w, "diff", diff)
				}
				last = snap
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}
