package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bizwars/internal/auth"
	"bizwars/internal/game"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type InvestResponse struct {
	Result    game.InvestResult `json:"result"`
	Dashboard game.Dashboard    `json:"dashboard"`
}

type AdvanceResponse struct {
	Report    game.WeekReport `json:"report"`
	Dashboard game.Dashboard  `json:"dashboard"`
}

type NewGameRequest struct {
	CompanyName     string        `json:"company_name"`
	Difficulty      string        `json:"difficulty,omitempty"`
	StartingCapital int64         `json:"starting_capital,omitempty"`
	StartingShare   float64       `json:"starting_share,omitempty"`
	MaxWeeks        int           `json:"max_weeks,omitempty"`
	WinGoal         *game.WinGoal `json:"win_goal,omitempty"`
}

func (c *Client) Signup(ctx context.Context, email, password string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/signup", "", map[string]any{
		"email":    email,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (auth.Session, error) {
	var out auth.Session
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	}, &out, "")
	return out, err
}

func (c *Client) Catalog(ctx context.Context) ([]game.Category, error) {
	var out struct {
		Categories []game.Category `json:"categories"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/catalog", "", nil, &out, "")
	return out.Categories, err
}

func (c *Client) NewGame(ctx context.Context, accessToken string, in NewGameRequest) (*game.Game, error) {
	var out game.Game
	if err := c.jsonRequest(ctx, http.MethodPost, "/v1/games", accessToken, in, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Invest(ctx context.Context, accessToken string, levels game.DecisionLevels, idem string) (InvestResponse, error) {
	var out InvestResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games/invest", accessToken, map[string]any{
		"levels": levels,
	}, &out, idem)
	return out, err
}

func (c *Client) Advance(ctx context.Context, accessToken, idem string) (AdvanceResponse, error) {
	var out AdvanceResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games/advance", accessToken, nil, &out, idem)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context, accessToken string) (game.Dashboard, error) {
	var out game.Dashboard
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/games/dashboard", accessToken, nil, &out, "")
	return out, err
}

func (c *Client) Ranking(ctx context.Context, accessToken string) ([]game.RankRow, error) {
	var out struct {
		Ranking []game.RankRow `json:"ranking"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/games/ranking", accessToken, nil, &out, "")
	return out.Ranking, err
}

func (c *Client) Status(ctx context.Context, accessToken string) (game.Status, error) {
	var out game.Status
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/games/status", accessToken, nil, &out, "")
	return out, err
}

func (c *Client) Reset(ctx context.Context, accessToken string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/games/reset", accessToken, nil, nil, "")
}

func (c *Client) jsonRequest(ctx context.Context, method, path, accessToken string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
