// Package server publishes the repository mirror over HTTP and websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/chmouel/blendgit/internal/log"
	"github.com/chmouel/blendgit/internal/models"
	"github.com/gorilla/websocket"
)

// MessageType tags websocket messages.
type MessageType string

// MessageTypeState carries a RepositoryContext.
const MessageTypeState MessageType = "state"

// UpdateMessage is the websocket envelope.
type UpdateMessage struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

// Source is the repository mirror being published.
type Source interface {
	Snapshot() models.RepositoryContext
	Reload(ctx context.Context) error
	Subscribe() (<-chan models.RepositoryContext, func())
}

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	// the publisher binds to loopback by default
	CheckOrigin: func(*http.Request) bool { return true },
}

// Server serves the state of one repository.
type Server struct {
	source Source
	addr   string
	logger *log.Logger

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New returns a Server for source listening on addr.
func New(source Source, addr string) *Server {
	return &Server{
		source:  source,
		addr:    addr,
		logger:  log.Named("server"),
		clients: make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close disconnects every websocket client.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.clientsMu.Lock()
		for conn := range s.clients {
			_ = conn.Close()
		}
		s.clientsMu.Unlock()
	})
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Snapshot())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.source.Reload(r.Context()); err != nil {
		s.logger.Printf("reload failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.source.Snapshot())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade error: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// subscribe before the first snapshot so no refresh is missed
	updates, cancel := s.source.Subscribe()
	defer cancel()

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()
	s.logger.Printf("websocket client connected, total %d", s.Clients())

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		s.logger.Printf("websocket client disconnected, total %d", s.Clients())
	}()

	if err := s.send(conn, UpdateMessage{Type: MessageTypeState, Data: s.source.Snapshot()}); err != nil {
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-s.done:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := s.send(conn, UpdateMessage{Type: MessageTypeState, Data: snap}); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(conn *websocket.Conn, msg UpdateMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Printf("websocket write error: %v", err)
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
