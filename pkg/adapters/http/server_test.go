package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/pkg/adapters/memory"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/observability"
	"github.com/aretw0/wayfinder/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lobby() *domain.Layout {
	return &domain.Layout{
		Name:      "lobby",
		Width:     5,
		Height:    5,
		Start:     &domain.Point{X: 0, Y: 0},
		End:       &domain.Point{X: 4, Y: 4},
		Locations: map[string]domain.Point{"101": {X: 4, Y: 0}},
	}
}

func newTestHandler(t *testing.T, opts ...Option) (http.Handler, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(memory.NewStore(lobby()),
		session.WithSessionDefaults(wayfinder.WithOperationsPerSecond(5000)),
	)
	t.Cleanup(mgr.Shutdown)

	handler, err := NewHandler(mgr, opts...)
	require.NoError(t, err)
	return handler, mgr
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestSpec_IsValid(t *testing.T) {
	doc, err := Spec()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", doc.Info.Version)
}

func TestServer_HealthInfoFinders(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", nil)
	assert.Contains(t, w.Body.String(), `"app":"wayfinder-http"`)

	w = do(t, h, "GET", "/finders", nil)
	assert.JSONEq(t, `["astar","best-first","breadth-first","dijkstra"]`, w.Body.String())

	w = do(t, h, "GET", "/openapi.yaml", nil)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestServer_SessionLifecycle(t *testing.T) {
	h, mgr := newTestHandler(t)

	w := do(t, h, "POST", "/sessions", CreateSessionRequest{ID: "s1", Layout: "lobby"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeSession(t, w)
	assert.Equal(t, "s1", resp.ID)
	assert.Equal(t, domain.StateReady, resp.Snapshot.State)

	w = do(t, h, "GET", "/sessions", nil)
	assert.JSONEq(t, `["s1"]`, w.Body.String())

	w = do(t, h, "POST", "/sessions/s1/events", map[string]string{"event": "start"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	handle, err := mgr.Get("s1")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = handle.Session.Wait(ctx, domain.StateFinished)
	require.NoError(t, err)

	w = do(t, h, "GET", "/sessions/s1", nil)
	resp = decodeSession(t, w)
	assert.Equal(t, domain.StateFinished, resp.Snapshot.State)
	assert.Len(t, resp.Snapshot.Path, 9)

	w = do(t, h, "DELETE", "/sessions/s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "GET", "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CreateOptions(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "POST", "/sessions", CreateSessionRequest{
		Width:    8,
		Height:   6,
		WallMode: "paint",
		Finder:   &FinderSpec{Algorithm: "dijkstra", Diagonal: "always"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeSession(t, w)
	assert.Equal(t, 8, resp.Snapshot.Width)
	assert.Equal(t, 6, resp.Snapshot.Height)

	w = do(t, h, "POST", "/sessions", CreateSessionRequest{Layout: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/sessions", CreateSessionRequest{ID: resp.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_RequestValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	do(t, h, "POST", "/sessions", CreateSessionRequest{ID: "s1", Layout: "lobby"})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"unknown event", "POST", "/sessions/s1/events", map[string]string{"event": "fly"}},
		{"missing event", "POST", "/sessions/s1/events", map[string]string{}},
		{"bad pointer action", "POST", "/sessions/s1/pointer", map[string]any{"action": "hover"}},
		{"wall without walkable", "PUT", "/sessions/s1/walls", map[string]any{"cells": []any{}}},
		{"point without y", "PUT", "/sessions/s1/endpoints", map[string]any{"start": map[string]int{"x": 1}}},
		{"unknown finder", "PUT", "/sessions/s1/finder", map[string]string{"algorithm": "teleport"}},
		{"bad create width", "POST", "/sessions", map[string]any{"width": 0}},
		{"layout without size", "PUT", "/layouts/x", map[string]any{"name": "x"}},
		{"oversized session", "POST", "/sessions", map[string]any{"width": 100000, "height": 100000}},
		{"oversized layout", "PUT", "/layouts/x", map[string]any{"name": "x", "width": 1025, "height": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestServer_DomainErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	do(t, h, "POST", "/sessions", CreateSessionRequest{ID: "s1", Layout: "lobby"})

	w := do(t, h, "POST", "/sessions/s1/events", map[string]string{"event": "pause"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "illegal transition")

	w = do(t, h, "PUT", "/sessions/s1/walls", map[string]any{"cells": []domain.Point{{X: 4, Y: 4}}, "walkable": false})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, "POST", "/sessions/s1/events", map[string]string{"event": "start"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "PUT", "/sessions/s1/walls", map[string]any{"cells": []domain.Point{{X: 9, Y: 9}}, "walkable": false})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "PUT", "/sessions/s1/endpoints", map[string]string{"location": "999"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "POST", "/sessions/nope/events", map[string]string{"event": "start"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/sessions/s1/prompt", map[string]string{"choice": "end"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_EndpointsAndPointer(t *testing.T) {
	h, _ := newTestHandler(t)
	do(t, h, "POST", "/sessions", CreateSessionRequest{ID: "s1", Layout: "lobby"})

	w := do(t, h, "PUT", "/sessions/s1/endpoints", map[string]any{
		"start":    domain.Point{X: 1, Y: 1},
		"location": "101",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeSession(t, w)
	assert.Equal(t, &domain.Point{X: 1, Y: 1}, resp.Snapshot.Start)
	assert.Equal(t, &domain.Point{X: 4, Y: 0}, resp.Snapshot.End)

	// Assign mode: a press on an empty cell opens the prompt.
	w = do(t, h, "POST", "/sessions/s1/pointer", map[string]any{"action": "down", "x": 2, "y": 3})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, "POST", "/sessions/s1/prompt", map[string]string{"choice": "end"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/sessions/s1", nil)
	resp = decodeSession(t, w)
	assert.Equal(t, &domain.Point{X: 2, Y: 3}, resp.Snapshot.End)

	// Dragging the start node.
	do(t, h, "POST", "/sessions/s1/pointer", map[string]any{"action": "down", "x": 1, "y": 1})
	do(t, h, "POST", "/sessions/s1/pointer", map[string]any{"action": "move", "x": 0, "y": 2})
	w = do(t, h, "POST", "/sessions/s1/pointer", map[string]any{"action": "up"})
	resp = decodeSession(t, w)
	assert.Equal(t, &domain.Point{X: 0, Y: 2}, resp.Snapshot.Start)
	assert.Equal(t, domain.StateReady, resp.Snapshot.State)
}

func TestServer_Layouts(t *testing.T) {
	h, _ := newTestHandler(t)

	w := do(t, h, "PUT", "/layouts/atrium", domain.Layout{Width: 3, Height: 3, Walls: []domain.Point{{X: 1, Y: 1}}})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = do(t, h, "GET", "/layouts", nil)
	assert.JSONEq(t, `["atrium","lobby"]`, w.Body.String())

	w = do(t, h, "GET", "/layouts/atrium", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Layout
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "atrium", got.Name)

	w = do(t, h, "PUT", "/layouts/broken", domain.Layout{Width: 2, Height: 2, Walls: []domain.Point{{X: 5, Y: 5}}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "DELETE", "/layouts/atrium", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "GET", "/layouts/atrium", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Capture(t *testing.T) {
	h, _ := newTestHandler(t)
	do(t, h, "POST", "/sessions", CreateSessionRequest{ID: "s1", Layout: "lobby"})
	do(t, h, "PUT", "/sessions/s1/walls", map[string]any{"cells": []domain.Point{{X: 2, Y: 2}}, "walkable": false})

	w := do(t, h, "POST", "/sessions/s1/capture", map[string]string{"name": "lobby-walled"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, "GET", "/layouts/lobby-walled", nil)
	assert.Contains(t, w.Body.String(), `"walls":[{"x":2,"y":2}]`)
}

func TestServer_Metrics(t *testing.T) {
	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	h, _ := newTestHandler(t, WithMetrics(m.Handler()))

	w := do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wayfinder_sessions_active")
}

func TestServer_Stream(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	do(t, h, "POST", "/sessions", CreateSessionRequest{ID: "s1", Layout: "lobby"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/s1/stream?watch=path", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// The initial diff is written before the search starts.
	for lines.Scan() && !strings.HasPrefix(lines.Text(), "data: {") {
	}
	assert.Contains(t, lines.Text(), `"state":"ready"`)

	w := do(t, h, "POST", "/sessions/s1/events", map[string]string{"event": "start"})
	require.Equal(t, http.StatusOK, w.Code)

	var sawPath, sawFinished bool
	for lines.Scan() && !(sawPath && sawFinished) {
		line := lines.Text()
		if strings.Contains(line, `"kind":"attribute"`) {
			t.Fatalf("watch filter let an attribute event through: %s", line)
		}
		if strings.Contains(line, `"kind":"path"`) {
			sawPath = true
		}
		if strings.Contains(line, `"state":"finished"`) {
			sawFinished = true
		}
	}
	assert.True(t, sawPath, "expected a path render event")
	assert.True(t, sawFinished, "expected a diff to the finished state")
}
