package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"skyticker/internal/bluesky"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	maxRequestBytes   = 4096
)

// StateStore is the part of the client the host may read and write.
type StateStore interface {
	State() bluesky.State
	Host() string
	SetServer(host string)
}

type Refresher interface {
	Login(ctx context.Context) error
	RefreshNow(ctx context.Context)
}

// Server exposes the client state over HTTP.
type Server struct {
	state     StateStore
	refresher Refresher
	router    chi.Router
	log       *slog.Logger
}

type postResponse struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Text   string `json:"text"`
}

type stateResponse struct {
	Host        string       `json:"host"`
	LoggedIn    bool         `json:"loggedIn"`
	DID         string       `json:"did"`
	Handle      string       `json:"handle"`
	HasUnread   bool         `json:"hasUnread"`
	UnreadCount int          `json:"unreadCount"`
	Post        postResponse `json:"post"`
	Words       []string     `json:"words"`
	Status      string       `json:"status"`
}

type setServerRequest struct {
	Host string `json:"host"`
}

func New(state StateStore, refresher Refresher, log *slog.Logger) *Server {
	s := &Server{
		state:     state,
		refresher: refresher,
		log:       log,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/state", s.handleGetState)
	r.Put("/server", s.handleSetServer)
	r.Post("/login", s.handleLogin)
	r.Post("/refresh", s.handleRefresh)

	s.router = r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return s.Serve(ctx, ln)
}

// Serve returns once ctx is done and every in-flight request has finished,
// or when the shutdown timeout expires.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state := s.state.State()

	words := state.Words
	if words == nil {
		words = []string{}
	}

	s.writeJSON(r.Context(), w, http.StatusOK, stateResponse{
		Host:        s.state.Host(),
		LoggedIn:    state.LoggedIn,
		DID:         state.DID,
		Handle:      state.Handle,
		HasUnread:   state.HasUnread,
		UnreadCount: state.UnreadCount,
		Post: postResponse{
			Handle: state.Post.Handle,
			Name:   state.Post.Name,
			Date:   state.Post.Date,
			Text:   state.Post.Text,
		},
		Words:  words,
		Status: state.Status,
	})
}

func (s *Server) handleSetServer(w http.ResponseWriter, r *http.Request) {
	var req setServerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	host := strings.TrimSpace(req.Host)
	if host == "" {
		http.Error(w, "host is required", http.StatusBadRequest)
		return
	}

	s.state.SetServer(host)
	s.log.InfoContext(r.Context(), "Server host is changed",
		"host", s.state.Host())

	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"host": s.state.Host()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := s.refresher.Login(r.Context()); err != nil {
		s.writeJSON(r.Context(), w, http.StatusBadGateway, map[string]string{"status": "login failed"})
		return
	}

	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refresher.RefreshNow(r.Context())

	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.ErrorContext(ctx, "Failed to write response",
			"error", err,
			"status", status)
	}
}
