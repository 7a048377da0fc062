// Package server exposes the hub over a single WebSocket endpoint: each
// accepted connection is handed to a new agent.Agent, which owns it for
// the connection's lifetime.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/orbitclash/server/internal/agent"
	"github.com/orbitclash/server/internal/command"
	"github.com/orbitclash/server/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The game client is not expected to be browser-hosted on a foreign
	// origin; same-origin checks would only complicate local testing.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the HTTP listener fronting the WebSocket endpoint.
type Server struct {
	httpServer   *http.Server
	repo         store.Repository
	bcryptCost   int
	hubInbound   chan<- command.HubCommand
	agentCtx     context.Context
	cancelAgents context.CancelFunc
}

// New constructs a Server bound to addr. hubInbound is the channel every
// accepted agent will send HubCommand values on.
func New(addr string, repo store.Repository, bcryptCost int, hubInbound chan<- command.HubCommand) *Server {
	agentCtx, cancelAgents := context.WithCancel(context.Background())
	s := &Server{
		repo:         repo,
		bcryptCost:   bcryptCost,
		hubInbound:   hubInbound,
		agentCtx:     agentCtx,
		cancelAgents: cancelAgents,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", s.serveHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // the WebSocket connection is long-lived once upgraded
	}
	return s
}

// Serve blocks until ctx is canceled, then shuts the listener down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.cancelAgents()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("server: websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	a := agent.New(conn, r.RemoteAddr, s.repo, s.bcryptCost, s.hubInbound)
	go a.Run(s.agentCtx)
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
