package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/wayfinder"
	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/finder"
	"github.com/aretw0/wayfinder/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionResponse is the structured result of every session tool.
type SessionResponse struct {
	ID       string          `json:"id" jsonschema_description:"The session ID"`
	Snapshot domain.Snapshot `json:"snapshot" jsonschema_description:"The session state after the call"`
}

// DefaultWaitTimeout bounds the wait tool when no timeout is given.
const DefaultWaitTimeout = 30 * time.Second

// Server exposes a session.Manager as an MCP Server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(mgr *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  mgr,
		mcpServer: server.NewMCPServer("wayfinder-mcp", strings.TrimSpace(wayfinder.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("ID returned by create_session"))

	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a pathfinding visualizer session, optionally from a stored layout."),
		mcp.WithString("id", mcp.Description("Session ID (optional, random when omitted)")),
		mcp.WithString("layout", mcp.Description("Name of a stored layout (optional)")),
		mcp.WithNumber("width", mcp.Description("Grid width when no layout is given")),
		mcp.WithNumber("height", mcp.Description("Grid height when no layout is given")),
		mcp.WithString("finder", mcp.Description("Algorithm name"), mcp.Enum(finder.Names()...)),
		mcp.WithNumber("operations_per_second", mcp.Description("Replay rate")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("fire_event",
		mcp.WithDescription("Fire a controller event: start, pause, resume, cancel, restart, clear or reset."),
		sessionID,
		mcp.WithString("event", mcp.Required(), mcp.Description("Event name")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleFire))

	s.mcpServer.AddTool(mcp.NewTool("pointer",
		mcp.WithDescription("Send pointer input to the grid: down and move on a cell, then up."),
		sessionID,
		mcp.WithString("action", mcp.Required(), mcp.Enum("down", "move", "up")),
		mcp.WithNumber("x", mcp.Description("Cell column")),
		mcp.WithNumber("y", mcp.Description("Cell row")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handlePointer))

	s.mcpServer.AddTool(mcp.NewTool("set_walls",
		mcp.WithDescription("Block or unblock cells without firing any event."),
		sessionID,
		mcp.WithString("cells", mcp.Required(), mcp.Description(`JSON array of cells, e.g. [{"x":1,"y":2}]`)),
		mcp.WithBoolean("walkable", mcp.Description("true to clear the cells, false to block them")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleWalls))

	s.mcpServer.AddTool(mcp.NewTool("set_endpoints",
		mcp.WithDescription("Move the start or end node, or move the end to a named location."),
		sessionID,
		mcp.WithString("start", mcp.Description(`JSON cell, e.g. {"x":0,"y":0}`)),
		mcp.WithString("end", mcp.Description(`JSON cell`)),
		mcp.WithString("location", mcp.Description("Named location of the session's layout")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleEndpoints))

	s.mcpServer.AddTool(mcp.NewTool("answer_prompt",
		mcp.WithDescription("Answer the open endpoint prompt."),
		sessionID,
		mcp.WithString("choice", mcp.Required(), mcp.Enum("start", "end", "cancel")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("snapshot",
		mcp.WithDescription("Read the current state, grid, path and stats of a session."),
		sessionID,
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleSnapshot))

	s.mcpServer.AddTool(mcp.NewTool("wait",
		mcp.WithDescription("Block until the session rests (finished, ready or paused) or the timeout elapses."),
		sessionID,
		mcp.WithNumber("timeout_ms", mcp.Description("Timeout in milliseconds")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleWait))

	s.mcpServer.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Stop a session."),
		sessionID,
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := s.sessions.Close(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("closed " + id), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("list_layouts",
		mcp.WithDescription("List stored layouts."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.sessions.ListLayouts(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	var opts []wayfinder.Option
	if w, h := argInt(args, "width"), argInt(args, "height"); w > 0 && h > 0 {
		opts = append(opts, wayfinder.WithGridSize(w, h))
	}
	if n := argInt(args, "operations_per_second"); n > 0 {
		opts = append(opts, wayfinder.WithOperationsPerSecond(n))
	}
	if name := argString(args, "finder"); name != "" {
		f, err := finder.New(name)
		if err != nil {
			return SessionResponse{}, err
		}
		opts = append(opts, wayfinder.WithFinder(f))
	}

	h, err := s.sessions.Create(ctx, session.Spec{
		ID:      argString(args, "id"),
		Layout:  argString(args, "layout"),
		Options: opts,
	})
	if err != nil {
		return SessionResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return s.respond(ctx, h)
}

func (s *Server) handleFire(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	h, err := s.handle(args)
	if err != nil {
		return SessionResponse{}, err
	}
	event := domain.Event(argString(args, "event"))
	if err := h.Session.Fire(ctx, event); err != nil {
		return SessionResponse{}, fmt.Errorf("%s failed: %w", event, err)
	}
	return s.respond(ctx, h)
}

func (s *Server) handlePointer(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	h, err := s.handle(args)
	if err != nil {
		return SessionResponse{}, err
	}
	p := domain.Point{X: argInt(args, "x"), Y: argInt(args, "y")}
	switch action := argString(args, "action"); action {
	case "down":
		err = h.Session.PointerDown(ctx, p)
	case "move":
		err = h.Session.PointerMove(ctx, p)
	case "up":
		err = h.Session.PointerUp(ctx)
	default:
		err = fmt.Errorf("unknown pointer action %q", action)
	}
	if err != nil {
		return SessionResponse{}, err
	}
	return s.respond(ctx, h)
}

func (s *Server) handleWalls(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	h, err := s.handle(args)
	if err != nil {
		return SessionResponse{}, err
	}
	var cells []domain.Point
	if err := json.Unmarshal([]byte(argString(args, "cells")), &cells); err != nil {
		return SessionResponse{}, fmt.Errorf("invalid cells: %w", err)
	}
	walkable, _ := args["walkable"].(bool)
	for _, p := range cells {
		if err := h.Session.SetWalkableAt(ctx, p, walkable); err != nil {
			return SessionResponse{}, err
		}
	}
	return s.respond(ctx, h)
}

func (s *Server) handleEndpoints(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	h, err := s.handle(args)
	if err != nil {
		return SessionResponse{}, err
	}
	for key, set := range map[string]func(context.Context, domain.Point) error{
		"start": h.Session.SetStart,
		"end":   h.Session.SetEnd,
	} {
		raw := argString(args, key)
		if raw == "" {
			continue
		}
		var p domain.Point
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return SessionResponse{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if err := set(ctx, p); err != nil {
			return SessionResponse{}, err
		}
	}
	if loc := argString(args, "location"); loc != "" {
		if err := h.Session.SetEndByName(ctx, loc); err != nil {
			return SessionResponse{}, err
		}
	}
	return s.respond(ctx, h)
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	h, err := s.handle(args)
	if err != nil {
		return SessionResponse{}, err
	}
	if err := h.Session.Answer(domain.EndpointChoice(argString(args, "choice"))); err != nil {
		return SessionResponse{}, err
	}
	return s.respond(ctx, h)
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	h, err := s.handle(args)
	if err != nil {
		return SessionResponse{}, err
	}
	return s.respond(ctx, h)
}

func (s *Server) handleWait(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionResponse, error) {
	h, err := s.handle(args)
	if err != nil {
		return SessionResponse{}, err
	}
	timeout := DefaultWaitTimeout
	if ms := argInt(args, "timeout_ms"); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := h.Session.Wait(waitCtx, domain.StateFinished, domain.StateReady, domain.StatePaused); err != nil {
		return SessionResponse{}, fmt.Errorf("wait: %w", err)
	}
	return s.respond(ctx, h)
}

func (s *Server) registerResources() {
	// EXPOSE: wayfinder://finders
	s.mcpServer.AddResource(mcp.NewResource("wayfinder://finders", "Pathfinding Algorithms",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(finder.Names())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "wayfinder://finders",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: wayfinder://sessions
	s.mcpServer.AddResource(mcp.NewResource("wayfinder://sessions", "Live Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.sessions.Sessions())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "wayfinder://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) handle(args map[string]any) (*session.Handle, error) {
	return s.sessions.Get(argString(args, "session_id"))
}

func (s *Server) respond(ctx context.Context, h *session.Handle) (SessionResponse, error) {
	snap, err := h.Session.Snapshot(ctx)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{ID: h.Session.ID, Snapshot: snap}, nil
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// argInt reads a JSON number argument.
func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}
