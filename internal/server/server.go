// Package server exposes the transcript and the query orchestrator over HTTP.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/diogo/advisor/internal/orchestrator"
)

const (
	writeWait       = 10 * time.Second
	pingPeriod      = 54 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 64 << 10
)

//go:embed static/index.html
var indexHTML []byte

// Server serves one shared conversation
type Server struct {
	orch     *orchestrator.Orchestrator
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader

	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.Mutex
	closed        bool
	turns         sync.WaitGroup
	stopSnapshots func()
	closeOnce     sync.Once
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger for request and turn diagnostics
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCheckOrigin overrides the websocket origin check
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// New creates a Server. hub should be the Alerter and state observer of orch
// so alerts and state changes reach event-stream clients.
// Transcript changes are published to hub until Close is called.
func New(orch *orchestrator.Orchestrator, hub *Hub, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		orch:   orch,
		hub:    hub,
		logger: log.New(io.Discard, "", 0),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	store := orch.Transcript()
	s.stopSnapshots = store.Observe(hub.PublishSnapshot)
	hub.PublishSnapshot(store.Snapshot())

	return s
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/transcript", s.handleTranscript)
		api.Post("/messages", s.handleSubmit)
		api.Get("/events", s.handleEvents)
	})

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("[server] listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Printf("[server] shutting down")
	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close cancels in-flight turns, waits for them and disconnects event clients
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		s.turns.Wait()
		s.stopSnapshots()
		s.hub.closeAll()
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.orch.State().String(),
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newTranscriptView(s.orch.Transcript().Snapshot()))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Content) == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}
	// Registering the turn under s.mu keeps Add ordered before Close's Wait.
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		respondError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	turn, ok := s.orch.Submit(payload.Content)
	if !ok {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, "a question is already being answered")
		return
	}
	s.turns.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.turns.Done()
		outcome := turn.Run(s.ctx)
		if outcome.Err != nil {
			s.logger.Printf("[server] %s finished with %s: %v", outcome.TurnID, outcome.Kind, outcome.Err)
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"turn_id": turn.ID,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Err() != nil {
		respondError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[server] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The hub queues the current snapshot first, ahead of any later event.
	sub := s.hub.register()
	defer s.hub.unregister(sub)

	// Incoming frames are ignored; reading detects the peer going away.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Printf("[server] event client read: %v", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				s.logger.Printf("[server] write event failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}
