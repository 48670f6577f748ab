package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bizwars/internal/auth"
	"bizwars/internal/game"
)

type fakeAuth struct{}

func (fakeAuth) SignUp(_ context.Context, email, _ string) (auth.Session, error) {
	return auth.Session{AccessToken: "tok-" + email, User: auth.User{ID: email, Email: email}}, nil
}

func (fakeAuth) Login(_ context.Context, email, password string) (auth.Session, error) {
	if password != "secret" {
		return auth.Session{}, errors.New("invalid login credentials")
	}
	return auth.Session{AccessToken: "tok-" + email, User: auth.User{ID: email, Email: email}}, nil
}

func (fakeAuth) Refresh(_ context.Context, token string) (auth.Session, error) {
	return auth.Session{AccessToken: "tok-refreshed", RefreshToken: token}, nil
}

func (fakeAuth) VerifyAccessToken(_ context.Context, token string) (auth.User, error) {
	id, ok := strings.CutPrefix(token, "tok-")
	if !ok || id == "" {
		return auth.User{}, auth.ErrInvalidToken
	}
	return auth.User{ID: id, Email: id}, nil
}

type memStore struct {
	mu    sync.Mutex
	games map[string]*game.Game
	keys  map[string]bool
}

func newMemStore() *memStore {
	return &memStore{games: map[string]*game.Game{}, keys: map[string]bool{}}
}

func (m *memStore) Get(_ context.Context, ownerID string) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[ownerID]
	if !ok {
		return nil, game.ErrGameNotFound
	}
	return g.Clone(), nil
}

func (m *memStore) Replace(_ context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.OwnerID] = g.Clone()
	return nil
}

func (m *memStore) Mutate(_ context.Context, ownerID, key, _ string, fn func(*game.Game) error) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[ownerID]
	if !ok {
		return nil, game.ErrGameNotFound
	}
	if m.keys[ownerID+"/"+key] {
		return nil, game.ErrDuplicateIdempotency
	}
	work := g.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	m.keys[ownerID+"/"+key] = true
	m.games[ownerID] = work
	return work.Clone(), nil
}

func (m *memStore) Delete(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[ownerID]; !ok {
		return game.ErrGameNotFound
	}
	delete(m.games, ownerID)
	return nil
}

func (m *memStore) PurgeFinished(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := game.NewService(newMemStore(), game.NewEngine(game.NewRand(3)), game.DefaultPresets(), logger)
	hub := NewHub(logger)
	srv := httptest.NewServer(New(logger, fakeAuth{}, svc, hub).Handler())
	t.Cleanup(srv.Close)
	return srv, hub
}

func doJSON(t *testing.T, method, url, token string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestGameFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	v1 := base(srv)
	tok := "tok-alice"

	if code, _ := doJSON(t, http.MethodGet, v1+"/games/current", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("missing token: status=%d", code)
	}
	if code, _ := doJSON(t, http.MethodGet, v1+"/games/current", tok, nil, nil); code != http.StatusNotFound {
		t.Fatalf("no game yet: status=%d", code)
	}

	code, body := doJSON(t, http.MethodPost, v1+"/games", tok, map[string]any{"company_name": "Acme", "difficulty": "easy", "max_weeks": 3}, nil)
	if code != http.StatusCreated || body["current_week"] != float64(1) {
		t.Fatalf("create: status=%d body=%v", code, body)
	}

	code, body = doJSON(t, http.MethodPost, v1+"/games/invest", tok, map[string]any{"levels": map[string]int{"eff_process": 2}}, map[string]string{"Idempotency-Key": "inv-1"})
	if code != http.StatusOK {
		t.Fatalf("invest: status=%d body=%v", code, body)
	}
	result := body["result"].(map[string]any)
	if result["total_cost"] != float64(60_000) {
		t.Fatalf("invest result=%v", result)
	}
	if code, _ := doJSON(t, http.MethodPost, v1+"/games/invest", tok, map[string]any{"levels": map[string]int{"eff_process": 2}}, map[string]string{"Idempotency-Key": "inv-1"}); code != http.StatusConflict {
		t.Fatalf("replayed key: status=%d", code)
	}
	if code, _ := doJSON(t, http.MethodPost, v1+"/games/invest", tok, map[string]any{"levels": map[string]int{"id_tech": 99}}, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid level: status=%d", code)
	}
	if code, _ := doJSON(t, http.MethodPost, v1+"/games/invest", tok, map[string]any{"levels": map[string]int{"id_tech": 10}}, nil); code != http.StatusBadRequest {
		t.Fatalf("unaffordable: status=%d", code)
	}
	if code, _ := doJSON(t, http.MethodPost, v1+"/games/invest", tok, map[string]any{"levelz": 1}, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown field: status=%d", code)
	}

	for week := 2; week <= 4; week++ {
		code, body = doJSON(t, http.MethodPost, v1+"/games/advance", tok, nil, nil)
		if code != http.StatusOK {
			t.Fatalf("advance to %d: status=%d body=%v", week, code, body)
		}
		if rep := body["report"].(map[string]any); rep["week"] != float64(week) {
			t.Fatalf("report=%v", rep)
		}
	}
	if code, _ := doJSON(t, http.MethodPost, v1+"/games/advance", tok, nil, nil); code != http.StatusConflict {
		t.Fatalf("advance after game over: status=%d", code)
	}

	code, body = doJSON(t, http.MethodGet, v1+"/games/status", tok, nil, nil)
	if code != http.StatusOK || body["is_game_over"] != true {
		t.Fatalf("status: %d %v", code, body)
	}
	code, body = doJSON(t, http.MethodGet, v1+"/games/ranking", tok, nil, nil)
	if code != http.StatusOK || len(body["ranking"].([]any)) != 4 {
		t.Fatalf("ranking: %d %v", code, body)
	}
	if code, _ := doJSON(t, http.MethodGet, v1+"/games/dashboard", tok, nil, nil); code != http.StatusOK {
		t.Fatalf("dashboard: %d", code)
	}

	if code, _ := doJSON(t, http.MethodPost, v1+"/games/reset", tok, nil, nil); code != http.StatusOK {
		t.Fatalf("reset: %d", code)
	}
	if code, _ := doJSON(t, http.MethodPost, v1+"/games/reset", tok, nil, nil); code != http.StatusNotFound {
		t.Fatalf("second reset: %d", code)
	}
}

func TestGamesAreScopedToOwner(t *testing.T) {
	srv, _ := newTestServer(t)
	v1 := base(srv)
	if code, _ := doJSON(t, http.MethodPost, v1+"/games", "tok-alice", map[string]any{"company_name": "Acme"}, nil); code != http.StatusCreated {
		t.Fatalf("create: %d", code)
	}
	if code, _ := doJSON(t, http.MethodGet, v1+"/games/current", "tok-bob", nil, nil); code != http.StatusNotFound {
		t.Fatalf("bob sees alice's game: %d", code)
	}
}

func TestPublicRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := doJSON(t, http.MethodGet, base(srv)+"/catalog", "", nil, nil)
	if code != http.StatusOK || len(body["categories"].([]any)) != 10 {
		t.Fatalf("catalog: %d %v", code, body)
	}
	first := body["categories"].([]any)[0].(map[string]any)
	if first["effect"] != "research_level" {
		t.Fatalf("catalog effect encoding: %v", first)
	}
	if code, _ := doJSON(t, http.MethodPost, base(srv)+"/auth/login", "", map[string]string{"email": "a", "password": "nope"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", code)
	}
	code, body = doJSON(t, http.MethodPost, base(srv)+"/auth/login", "", map[string]string{"email": "a", "password": "secret"}, nil)
	if code != http.StatusOK || body["access_token"] != "tok-a" {
		t.Fatalf("login: %d %v", code, body)
	}
	if code, _ := doJSON(t, http.MethodPost, base(srv)+"/auth/signup", "", map[string]string{"email": "b", "password": "x"}, nil); code != http.StatusCreated {
		t.Fatalf("signup: %d", code)
	}
	if code, _ := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil, nil); code != http.StatusOK {
		t.Fatalf("healthz: %d", code)
	}
}

func base(srv *httptest.Server) string {
	return srv.URL + "/v1"
}

func TestStreamPushesOwnerUpdates(t *testing.T) {
	srv, hub := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/games/stream?access_token=tok-carol"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected("carol") == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if code, _ := doJSON(t, http.MethodPost, base(srv)+"/games", "tok-carol", map[string]any{"company_name": "Carol Co"}, nil); code != http.StatusCreated {
		t.Fatalf("create: %d", code)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "created" || msg.Payload["company_name"] != "Carol Co" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearerabc":    "",
	}
	for in, want := range tests {
		if got := bearerToken(in); got != want {
			t.Fatalf("bearerToken(%q)=%q want %q", in, got, want)
		}
	}
}
