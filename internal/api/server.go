// Package api exposes the retrieval engine over HTTP.
//
// Endpoints:
//
//	GET  /health    → liveness probe
//	POST /api/chat  → retrieve + generate an answer
//
// The middleware chain (outermost first) is recovery → request ID →
// logging → throttle; the throttle guards only the chat endpoint so health
// probes are never rate limited.
package api

import (
	"log/slog"
	"net/http"

	"github.com/clientiq/clientiq/internal/generator"
	"github.com/clientiq/clientiq/internal/ratelimit"
)

// Server assembles the HTTP handler tree.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer registers all routes and middleware.
func NewServer(retriever Retriever, gen generator.Generator, limiter *ratelimit.Limiter, trustProxy bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/health", NewHealthHandler(logger))

	chat := http.Handler(NewChatHandler(retriever, gen, logger))
	chat = throttleMiddleware(limiter, trustProxy, logger)(chat)
	mux.Handle("/api/chat", chat)

	return &Server{mux: mux, logger: logger}
}

// Handler returns the fully wrapped handler for an http.Server.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = loggingMiddleware(s.logger)(h)
	h = requestIDMiddleware(h)
	h = recoveryMiddleware(s.logger)(h)
	return h
}
