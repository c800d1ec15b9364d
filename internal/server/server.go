package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/pagetap/pagetap/internal/recording"
)

// Server exposes a recording session's operations to a remote host
// driver over HTTP: start, status, readiness, stop-and-dump, plus a
// WebSocket stream of flushed event batches.
type Server struct {
	session *recording.Session
	sink    *streamSink

	// startMu serializes /recording/start handlers so a redundant start
	// cannot reset the sink out from under an active recording.
	startMu sync.Mutex

	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// New builds a server around page with the given recording config.
func New(page recording.PageBridge, cfg recording.Config) *Server {
	sink := newStreamSink()
	return &Server{
		session: recording.NewSession(page, cfg, sink),
		sink:    sink,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: slog.Default().With("component", "control-server"),
	}
}

// Session returns the underlying recording session, for callers that
// also drive it directly (navigation hooks).
func (s *Server) Session() *recording.Session {
	return s.session
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/recording", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Get("/status", s.handleStatus)
		r.Get("/ready", s.handleReady)
		r.Post("/stop", s.handleStop)
		r.Get("/events", s.handleEvents)
	})

	return r
}

// Run serves the handler at addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("control server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	// Only a fresh start discards retained batches; a start against an
	// active recording must not lose what has already been flushed.
	if !s.session.Active() {
		s.sink.reset()
	}

	status, err := s.session.Start(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.session.Status(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready, err := s.session.AwaitReady(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ready)
}

type stopResponse struct {
	Events  []json.RawMessage `json:"events"`
	Summary recording.Summary `json:"summary"`
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	summary, err := s.session.Stop(r.Context())
	if err != nil {
		if errors.Is(err, recording.ErrNotRecording) {
			writeJSON(w, http.StatusOK, stopResponse{Events: []json.RawMessage{}})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	events := s.sink.drain()
	if events == nil {
		events = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, stopResponse{Events: events, Summary: summary})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := s.sink.subscribe(ws)
	s.logger.Debug("event stream subscriber connected", "remote", r.RemoteAddr)

	// Reads are discarded; the read loop only detects disconnects.
	go func() {
		defer s.sink.unsubscribe(client)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
