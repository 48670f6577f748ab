package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bizwars/internal/auth"
	"bizwars/internal/game"
)

func TestClientDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"game is already over"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Advance(context.Background(), "tok", "k")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "game is already over" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestRemoteBackendRefreshesExpiredToken(t *testing.T) {
	var sawIdem []string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["refresh_token"] != "r1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(auth.Session{AccessToken: "fresh", RefreshToken: "r2"})
	})
	mux.HandleFunc("/v1/games/advance", func(w http.ResponseWriter, r *http.Request) {
		sawIdem = append(sawIdem, r.Header.Get("Idempotency-Key"))
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid token"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(AdvanceResponse{Report: game.WeekReport{Week: 2}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var saved Session
	b := NewRemoteBackend(NewClient(srv.URL), Session{AccessToken: "stale", RefreshToken: "r1"}, func(s Session) error {
		saved = s
		return nil
	})
	out, err := b.Advance(context.Background())
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if out.Report.Week != 2 {
		t.Fatalf("report=%+v", out.Report)
	}
	if saved.AccessToken != "fresh" || saved.RefreshToken != "r2" {
		t.Fatalf("session not persisted: %+v", saved)
	}
	if len(sawIdem) != 2 || sawIdem[0] == "" || sawIdem[0] != sawIdem[1] {
		t.Fatalf("retry must reuse the idempotency key: %v", sawIdem)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := LoadSession("http://api.test"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
	if err := SaveSession(Session{AccessToken: "a", Email: "p@x.io", APIBaseURL: "http://api.test/"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, err := LoadSession("http://api.test")
	if err != nil || s.Email != "p@x.io" || s.APIBaseURL != "http://api.test" {
		t.Fatalf("load: %+v %v", s, err)
	}
	if _, err := LoadSession("http://other.test"); err == nil {
		t.Fatalf("tokens for another server must be refused")
	}
	if err := ClearSession(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := LoadSession("http://api.test"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after clear, got %v", err)
	}
}

func TestClearSessionKeepsPreferences(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := UpdateSession(func(s *Session) {
		s.AccessToken = "a"
		s.Mode = ModeLocal
		s.LocalPath = "/tmp/game.db"
		s.Difficulty = "hard"
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := ClearSession(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	s, err := ReadSession()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if s.LoggedIn() || !s.Offline() || s.Difficulty != "hard" {
		t.Fatalf("after clear: %+v", s)
	}

	if err := UpdateSession(func(s *Session) { *s = Session{} }); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := ClearSession(); err != nil {
		t.Fatalf("clear empty: %v", err)
	}
	if s, err := ReadSession(); err != nil || s != (Session{}) {
		t.Fatalf("empty state should read back as zero: %+v %v", s, err)
	}
}
