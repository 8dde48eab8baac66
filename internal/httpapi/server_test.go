package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"skyticker/internal/bluesky"
	"skyticker/internal/domain"
	"skyticker/internal/httpapi"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type stubState struct {
	host  string
	state bluesky.State
}

func (s *stubState) State() bluesky.State  { return s.state }
func (s *stubState) Host() string          { return s.host }
func (s *stubState) SetServer(host string) { s.host = bluesky.NormalizeHost(host) }

type stubRefresher struct {
	loginErr  error
	refreshes atomic.Int32
}

func (s *stubRefresher) Login(context.Context) error { return s.loginErr }
func (s *stubRefresher) RefreshNow(context.Context)  { s.refreshes.Add(1) }

func TestGetStateOmitsToken(t *testing.T) {
	state := &stubState{
		host: "https://bsky.social/",
		state: bluesky.State{
			LoggedIn:    true,
			Token:       "Bearer secret",
			DID:         "did:plc:me",
			UnreadCount: 2,
			HasUnread:   true,
			Post:        domain.Post{Handle: "bob.bsky.social", Text: "hi there"},
			Words:       []string{"hi", "there"},
		},
	}
	srv := httpapi.New(state, &stubRefresher{}, slog.Default())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("token leaked: %s", rec.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["did"] != "did:plc:me" || got["unreadCount"] != float64(2) || got["host"] != "https://bsky.social/" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestSetServer(t *testing.T) {
	state := &stubState{host: "https://bsky.social/"}
	srv := httpapi.New(state, &stubRefresher{}, slog.Default())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/server", strings.NewReader(`{"host":"pds.example.com"}`))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if state.host != "https://pds.example.com/" {
		t.Fatalf("unexpected host: %q", state.host)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/server", strings.NewReader(`{"host":" "}`))
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for empty host, got %d", rec.Code)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	refresher := &stubRefresher{loginErr: errors.New("denied")}
	srv := httpapi.New(&stubState{}, refresher, slog.Default())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected bad gateway on failed login, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	if rec.Code != http.StatusOK || refresher.refreshes.Load() != 1 {
		t.Fatalf("expected one refresh, got status %d and %d refreshes", rec.Code, refresher.refreshes.Load())
	}
}

type blockingRefresher struct {
	started  chan struct{}
	release  chan struct{}
	finished atomic.Bool
}

func (r *blockingRefresher) Login(context.Context) error { return nil }

func (r *blockingRefresher) RefreshNow(context.Context) {
	close(r.started)
	<-r.release
	r.finished.Store(true)
}

func TestServeWaitsForInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	refresher := &blockingRefresher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	srv := httpapi.New(&stubState{}, refresher, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve(ctx, ln)
	}()

	respCh := make(chan int, 1)
	go func() {
		resp, postErr := http.Post("http://"+ln.Addr().String()+"/refresh", "application/json", nil)
		if postErr != nil {
			respCh <- 0
			return
		}
		_ = resp.Body.Close()
		respCh <- resp.StatusCode
	}()

	<-refresher.started
	cancel()

	select {
	case err = <-served:
		t.Fatalf("serve returned before request finished: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(refresher.release)

	if err = <-served; err != nil {
		t.Fatalf("unexpected serve error: %v", err)
	}
	if !refresher.finished.Load() {
		t.Fatalf("expected refresh to finish before serve returned")
	}
	if code := <-respCh; code != http.StatusOK {
		t.Fatalf("unexpected refresh status: %d", code)
	}
}
