package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/finder"
	"github.com/aretw0/wayfinder/pkg/ports"
	"github.com/aretw0/wayfinder/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Server exposes a session.Manager over HTTP.
type Server struct {
	Sessions *session.Manager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the manager.
// Requests to documented routes are validated against the embedded OpenAPI document.
func NewHandler(mgr *session.Manager, opts ...Option) (http.Handler, error) {
	server := &Server{
		Sessions: mgr,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	validate, err := validateRequests(doc, server.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)

		r.Get("/health", server.GetHealth)
		r.Get("/info", server.GetInfo(doc.Info.Version))
		r.Get("/finders", server.ListFinders)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", server.ListSessions)
			r.Post("/", server.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", server.GetSession)
				r.Delete("/", server.CloseSession)
				r.Post("/events", server.FireEvent)
				r.Post("/pointer", server.Pointer)
				r.Put("/endpoints", server.SetEndpoints)
				r.Put("/walls", server.SetWalls)
				r.Put("/finder", server.SetFinder)
				r.Post("/settled", server.Settled)
				r.Post("/prompt", server.AnswerPrompt)
				r.Post("/capture", server.Capture)
				r.Get("/stream", server.Stream)
			})
		})

		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", server.ListLayouts)
			r.Get("/{name}", server.GetLayout)
			r.Put("/{name}", server.PutLayout)
			r.Delete("/{name}", server.DeleteLayout)
		})
	})

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Wayfinder API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// FinderSpec selects and tunes a pathfinding algorithm.
type FinderSpec struct {
	Algorithm string  `json:"algorithm"`
	Diagonal  string  `json:"diagonal,omitempty"`
	Heuristic string  `json:"heuristic,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
}

// Build returns the finder described by f.
func (f FinderSpec) Build() (ports.Finder, error) {
	h, err := finder.HeuristicByName(f.Heuristic)
	if err != nil {
		return nil, err
	}
	opts := []finder.Option{finder.WithHeuristic(h), finder.WithWeight(f.Weight)}
	if f.Diagonal != "" {
		opts = append(opts, finder.WithDiagonal(domain.DiagonalMovement(f.Diagonal)))
	}
	return finder.New(f.Algorithm, opts...)
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	ID                  string      `json:"id,omitempty"`
	Layout              string      `json:"layout,omitempty"`
	Width               int         `json:"width,omitempty"`
	Height              int         `json:"height,omitempty"`
	OperationsPerSecond int         `json:"operations_per_second,omitempty"`
	WallMode            string      `json:"wall_mode,omitempty"`
	Finder              *FinderSpec `json:"finder,omitempty"`
}

// SessionResponse carries a session's snapshot.
type SessionResponse struct {
	ID       string          `json:"id"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(apiVersion string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"app":         "wayfinder-http",
			"version":     strings.TrimSpace(wayfinder.Version),
			"api_version": apiVersion,
		})
	}
}

// ListFinders handles the GET /finders request.
func (s *Server) ListFinders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, finder.Names())
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.Sessions())
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var opts []wayfinder.Option
	if body.Width > 0 && body.Height > 0 {
		opts = append(opts, wayfinder.WithGridSize(body.Width, body.Height))
	}
	if body.OperationsPerSecond > 0 {
		opts = append(opts, wayfinder.WithOperationsPerSecond(body.OperationsPerSecond))
	}
	if body.WallMode != "" {
		opts = append(opts, wayfinder.WithWallMode(wayfinder.WallMode(body.WallMode)))
	}
	if body.Finder != nil {
		f, err := body.Finder.Build()
		if err != nil {
			s.fail(w, err)
			return
		}
		opts = append(opts, wayfinder.WithFinder(f))
	}

	h, err := s.Sessions.Create(r.Context(), session.Spec{ID: body.ID, Layout: body.Layout, Options: opts})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, r, h, http.StatusCreated)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	s.respond(w, r, h, http.StatusOK)
}

// CloseSession handles the DELETE /sessions/{id} request.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FireEvent handles the POST /sessions/{id}/events request.
func (s *Server) FireEvent(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	var body struct {
		Event domain.Event `json:"event"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Session.Fire(r.Context(), body.Event); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, r, h, http.StatusOK)
}

// Pointer handles the POST /sessions/{id}/pointer request.
func (s *Server) Pointer(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	var body struct {
		Action string `json:"action"`
		X      int    `json:"x"`
		Y      int    `json:"y"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p := domain.Point{X: body.X, Y: body.Y}
	var err error
	switch body.Action {
	case "down":
		err = h.Session.PointerDown(r.Context(), p)
	case "move":
		err = h.Session.PointerMove(r.Context(), p)
	case "up":
		err = h.Session.PointerUp(r.Context())
	default:
		err = fmt.Errorf("unknown pointer action %q", body.Action)
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, r, h, http.StatusOK)
}

// SetEndpoints handles the PUT /sessions/{id}/endpoints request.
func (s *Server) SetEndpoints(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	var body struct {
		Start    *domain.Point `json:"start"`
		End      *domain.Point `json:"end"`
		Location string        `json:"location"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if body.Start != nil {
		if err := h.Session.SetStart(ctx, *body.Start); err != nil {
			s.fail(w, err)
			return
		}
	}
	if body.End != nil {
		if err := h.Session.SetEnd(ctx, *body.End); err != nil {
			s.fail(w, err)
			return
		}
	}
	if body.Location != "" {
		if err := h.Session.SetEndByName(ctx, body.Location); err != nil {
			s.fail(w, err)
			return
		}
	}
	s.respond(w, r, h, http.StatusOK)
}

// SetWalls handles the PUT /sessions/{id}/walls request.
// Cells are applied in order; the first failure stops the batch.
func (s *Server) SetWalls(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	var body struct {
		Cells    []domain.Point `json:"cells"`
		Walkable bool           `json:"walkable"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for _, p := range body.Cells {
		if err := h.Session.SetWalkableAt(r.Context(), p, body.Walkable); err != nil {
			s.fail(w, err)
			return
		}
	}
	s.respond(w, r, h, http.StatusOK)
}

// SetFinder handles the PUT /sessions/{id}/finder request.
func (s *Server) SetFinder(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	var body FinderSpec
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	f, err := body.Build()
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := h.Session.SetFinder(r.Context(), f); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Settled handles the POST /sessions/{id}/settled request.
func (s *Server) Settled(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	h.Session.Settled()
	w.WriteHeader(http.StatusNoContent)
}

// AnswerPrompt handles the POST /sessions/{id}/prompt request.
func (s *Server) AnswerPrompt(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	var body struct {
		Choice domain.EndpointChoice `json:"choice"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Session.Answer(body.Choice); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Capture handles the POST /sessions/{id}/capture request.
func (s *Server) Capture(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	layout, err := s.Sessions.Capture(r.Context(), chi.URLParam(r, "id"), body.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, layout)
}

// ListLayouts handles the GET /layouts request.
func (s *Server) ListLayouts(w http.ResponseWriter, r *http.Request) {
	names, err := s.Sessions.ListLayouts(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// GetLayout handles the GET /layouts/{name} request.
func (s *Server) GetLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := s.Sessions.LoadLayout(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

// PutLayout handles the PUT /layouts/{name} request. The path names the layout.
func (s *Server) PutLayout(w http.ResponseWriter, r *http.Request) {
	var layout domain.Layout
	if err := decode(r, &layout); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	layout.Name = chi.URLParam(r, "name")
	if err := s.Sessions.SaveLayout(r.Context(), &layout); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteLayout handles the DELETE /layouts/{name} request.
func (s *Server) DeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.DeleteLayout(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -- Helpers --

func (s *Server) handle(w http.ResponseWriter, r *http.Request) (*session.Handle, bool) {
	h, err := s.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return h, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, h *session.Handle, status int) {
	snap, err := h.Session.Snapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, status, SessionResponse{ID: h.Session.ID, Snapshot: snap})
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, domain.ErrLayoutNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, session.ErrSessionExists),
		errors.Is(err, wayfinder.ErrNoPrompt):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidEndpoints),
		errors.Is(err, domain.ErrOutOfBounds),
		errors.Is(err, domain.ErrUnknownLocation),
		errors.Is(err, domain.ErrUnknownFinder),
		errors.Is(err, domain.ErrInvalidLayout),
		errors.Is(err, domain.ErrInvalidGridSize):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrTooManySessions):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	writeError(w, status, err)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
