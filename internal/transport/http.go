package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/crisisdesk/internal/mcp"
	"github.com/rpggio/crisisdesk/internal/metrics"
)

// ErrServerCode is the JSON-RPC code used for domain errors. The API code is
// carried in the error data.
const ErrServerCode = -32000

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, caller, method string, params json.RawMessage) (any, error)
}

// Option customizes the router.
type Option func(*options)

type options struct {
	mcp     http.Handler
	metrics http.Handler
	logger  *slog.Logger
}

// WithMCP mounts the MCP streamable HTTP handler at /mcp.
func WithMCP(h http.Handler) Option {
	return func(o *options) { o.mcp = h }
}

// WithMetrics serves h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(o *options) { o.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware. authMiddleware
// guards /rpc and must place a caller in context.
func NewServer(handler MCPHandler, authMiddleware func(http.Handler) http.Handler, opts ...Option) *chi.Mux {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(metrics.Middleware())

	srv := &Server{handler: handler, logger: o.logger}

	r.Get("/health", srv.handleHealth)
	if o.metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.metrics)
	}
	if o.mcp != nil {
		r.Handle("/mcp", o.mcp)
		r.Handle("/mcp/*", o.mcp)
	}

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/rpc", srv.handleRPC)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if errors.Is(err, ErrParse) {
		WriteError(w, nil, ErrParseCode, "parse error", nil)
		return
	}
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	caller, ok := CallerFromContext(r.Context())
	if !ok || caller == "" {
		http.Error(w, "missing caller", http.StatusUnauthorized)
		return
	}

	result, err := s.handler.Handle(r.Context(), caller, req.Method, req.Params)
	if err != nil {
		requestID, _ := RequestIDFromContext(r.Context())
		var apiErr *mcp.APIError
		switch {
		case errors.Is(err, mcp.ErrUnknownMethod):
			WriteError(w, req.ID, ErrMethodNotFound, err.Error(), nil)
		case errors.As(err, &apiErr):
			s.logger.Debug("rpc error", "request_id", requestID, "method", req.Method, "code", apiErr.Code)
			WriteError(w, req.ID, ErrServerCode, apiErr.Message, apiErr)
		default:
			s.logger.Error("rpc failed", "request_id", requestID, "method", req.Method, "error", err)
			WriteError(w, req.ID, ErrInternal, "internal error", nil)
		}
		return
	}

	WriteResult(w, req.ID, result)
}
