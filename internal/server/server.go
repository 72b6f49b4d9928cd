// Package server provides the HTTP API and its lifecycle management.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/engine"
	"github.com/scrypster/recall/internal/notify"
	"github.com/scrypster/recall/internal/session"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// Server exposes the memory manager over HTTP: a chat endpoint, memory and
// conversation inspectors, a health check, and a WebSocket event stream.
type Server struct {
	cfg     *config.Config
	manager *engine.Manager
	store   storage.RecordStore
	sess    *session.Session
	hub     *WebSocketHub
}

// NewServer wires the HTTP surface. Session state is owned by the server,
// one conversation per process.
func NewServer(cfg *config.Config, manager *engine.Manager, store storage.RecordStore) *Server {
	s := &Server{
		cfg:     cfg,
		manager: manager,
		store:   store,
		sess:    session.New(cfg.Memory.ShortTermWindow),
		hub:     NewWebSocketHub(),
	}

	manager.SetOnRecordStored(func(record types.MemoryRecord) {
		s.hub.Broadcast(Event{Type: notify.EventMemoryStored, Record: toMemoryView(record)})
	})
	manager.SetOnCompaction(func() {
		s.hub.Broadcast(Event{Type: notify.EventCompaction})
	})

	return s
}

// Hub returns the WebSocket hub for external event broadcasts.
func (s *Server) Hub() *WebSocketHub {
	return s.hub
}

// NotifyExternal relays a cross-process store event into the WebSocket hub.
// Events produced by another process (the chat CLI) carry only a record ID;
// the record itself is looked up here so connected clients get the full view.
func (s *Server) NotifyExternal(ctx context.Context, eventType, recordID string) {
	if eventType == notify.EventMemoryStored && recordID != "" {
		if record, err := s.store.Get(ctx, recordID); err == nil {
			s.hub.Broadcast(Event{Type: eventType, Record: toMemoryView(*record)})
			return
		}
	}
	s.hub.Broadcast(Event{Type: eventType})
}

// Routes builds the handler chain: security headers, rate limiting, and
// token auth around the API mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/memories", s.handleMemories)
	mux.HandleFunc("/api/messages", s.handleMessages)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/api/events", s.hub)

	limiter := NewRateLimiter(s.cfg.Security.RateLimitRPS, s.cfg.Security.RateLimitBurst)

	var handler http.Handler = mux
	handler = RequireAuth(handler, s.cfg)
	handler = RateLimitMiddleware(handler, limiter)
	handler = securityHeadersMiddleware(handler)
	return handler
}

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start begins serving on the configured host and port and blocks until ctx
// is cancelled. The returned address is the actual listen address, useful
// with port 0 in tests.
func (s *Server) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}

	go s.hub.Run()

	httpServer := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.hub.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
	}()

	actual := listener.Addr().String()
	log.Printf("server: listening on http://%s", actual)

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve: %v", err)
		}
	}()

	return actual, nil
}
