package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/oliwoli/castcut/internal/config"
	"github.com/sirupsen/logrus"
)

// Server wires one Session to an HTTP mux: POST /command for the
// request/response command boundary, GET /events for the websocket event
// stream. Grounded on the teacher's httpserver.go (CORS middleware +
// findFreePort + mux.Handle), generalized from its single /msg endpoint
// and Wails-bound EventsEmit to the command/event split spec §6 names.
type Server struct {
	log     *logrus.Entry
	session *Session
	hub     *Hub
	addr    string
}

// New constructs a Server bound to addr ("" picks a free port via
// findFreePort, the way the teacher's audio server does). cfg carries the
// Cursor Smoother/click-fade/audio-drift/auto-persist knobs through to the
// Session; pass config.Load() from the caller, or nil to fall back to
// every Resolver's hardcoded defaults and skip auto-persist entirely.
func New(addr string, log *logrus.Entry, cfg *config.Config) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "server.http")
	hub := NewHub(log)
	return &Server{
		log:     log,
		session: NewSession(log, hub.Broadcast, cfg),
		hub:     hub,
		addr:    addr,
	}
}

// corsMiddleware sets permissive CORS headers and handles preflight
// requests, mirroring the teacher's commonMiddleware without its
// placeholder auth-token branch (this reference server has none).
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func findFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Mux builds the http.ServeMux this server answers on.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/command", corsMiddleware(s.handleCommand))
	mux.Handle("/events", corsMiddleware(s.hub.ServeHTTP))
	return mux
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST is allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "error reading request body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	var cmd Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		http.Error(w, "invalid JSON command envelope", http.StatusBadRequest)
		return
	}

	resp, ev := s.session.Dispatch(cmd)
	if ev != nil {
		s.hub.Broadcast(*ev)
	}
	if !resp.OK {
		s.log.WithField("cmd", cmd.Type).WithField("error", resp.Error).Warn("command refused")
		s.hub.Broadcast(Event{Type: EventErrorEvent, Payload: resp.Error})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.WithError(err).Error("encoding response")
	}
}

// ListenAndServe binds s.addr (finding a free port if empty) and serves
// until the listener errors. It returns the address actually bound, so a
// caller that requested a free port can discover which one it got.
func (s *Server) ListenAndServe() (string, error) {
	addr := s.addr
	if addr == "" {
		port, err := findFreePort()
		if err != nil {
			return "", fmt.Errorf("server: finding free port: %w", err)
		}
		addr = fmt.Sprintf("localhost:%d", port)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("server: listen on %s: %w", addr, err)
	}

	s.log.WithField("addr", addr).Info("starting command/event server")
	go func() {
		if err := http.Serve(listener, s.Mux()); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("server stopped")
		}
	}()
	return addr, nil
}
