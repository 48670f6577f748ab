package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"bizwars/internal/game"
)

// Backend is the game surface the command line drives, either over HTTP or
// in-process against a local store.
type Backend interface {
	Catalog(ctx context.Context) ([]game.Category, error)
	NewGame(ctx context.Context, in NewGameRequest) (*game.Game, error)
	Invest(ctx context.Context, levels game.DecisionLevels) (InvestResponse, error)
	Advance(ctx context.Context) (AdvanceResponse, error)
	Dashboard(ctx context.Context) (game.Dashboard, error)
	Ranking(ctx context.Context) ([]game.RankRow, error)
	Status(ctx context.Context) (game.Status, error)
	Reset(ctx context.Context) error
}

// RemoteBackend talks to the API with the saved session and refreshes the
// access token once when it has expired.
type RemoteBackend struct {
	client  *Client
	session Session
	save    func(Session) error
}

func NewRemoteBackend(client *Client, session Session, save func(Session) error) *RemoteBackend {
	return &RemoteBackend{client: client, session: session, save: save}
}

func (b *RemoteBackend) withToken(ctx context.Context, fn func(token string) error) error {
	err := fn(b.session.AccessToken)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || b.session.RefreshToken == "" {
		return err
	}
	fresh, rerr := b.client.Refresh(ctx, b.session.RefreshToken)
	if rerr != nil {
		return err
	}
	b.session.AccessToken = fresh.AccessToken
	if fresh.RefreshToken != "" {
		b.session.RefreshToken = fresh.RefreshToken
	}
	if b.save != nil {
		if serr := b.save(b.session); serr != nil {
			return serr
		}
	}
	return fn(b.session.AccessToken)
}

func (b *RemoteBackend) Catalog(ctx context.Context) ([]game.Category, error) {
	return b.client.Catalog(ctx)
}

func (b *RemoteBackend) NewGame(ctx context.Context, in NewGameRequest) (*game.Game, error) {
	var out *game.Game
	err := b.withToken(ctx, func(token string) error {
		var err error
		out, err = b.client.NewGame(ctx, token, in)
		return err
	})
	return out, err
}

func (b *RemoteBackend) Invest(ctx context.Context, levels game.DecisionLevels) (InvestResponse, error) {
	var out InvestResponse
	idem := uuid.NewString()
	err := b.withToken(ctx, func(token string) error {
		var err error
		out, err = b.client.Invest(ctx, token, levels, idem)
		return err
	})
	return out, err
}

func (b *RemoteBackend) Advance(ctx context.Context) (AdvanceResponse, error) {
	var out AdvanceResponse
	idem := uuid.NewString()
	err := b.withToken(ctx, func(token string) error {
		var err error
		out, err = b.client.Advance(ctx, token, idem)
		return err
	})
	return out, err
}

func (b *RemoteBackend) Dashboard(ctx context.Context) (game.Dashboard, error) {
	var out game.Dashboard
	err := b.withToken(ctx, func(token string) error {
		var err error
		out, err = b.client.Dashboard(ctx, token)
		return err
	})
	return out, err
}

func (b *RemoteBackend) Ranking(ctx context.Context) ([]game.RankRow, error) {
	var out []game.RankRow
	err := b.withToken(ctx, func(token string) error {
		var err error
		out, err = b.client.Ranking(ctx, token)
		return err
	})
	return out, err
}

func (b *RemoteBackend) Status(ctx context.Context) (game.Status, error) {
	var out game.Status
	err := b.withToken(ctx, func(token string) error {
		var err error
		out, err = b.client.Status(ctx, token)
		return err
	})
	return out, err
}

func (b *RemoteBackend) Reset(ctx context.Context) error {
	return b.withToken(ctx, func(token string) error {
		return b.client.Reset(ctx, token)
	})
}

// LocalOwner is the owner id used for offline games.
const LocalOwner = "local"

// LocalBackend runs the game service in-process.
type LocalBackend struct {
	svc *game.Service
}

func NewLocalBackend(svc *game.Service) *LocalBackend {
	return &LocalBackend{svc: svc}
}

func (b *LocalBackend) Catalog(context.Context) ([]game.Category, error) {
	return game.Catalog(), nil
}

func (b *LocalBackend) NewGame(ctx context.Context, in NewGameRequest) (*game.Game, error) {
	return b.svc.CreateGame(ctx, game.NewGameInput{
		OwnerID:         LocalOwner,
		CompanyName:     in.CompanyName,
		Difficulty:      in.Difficulty,
		StartingCapital: in.StartingCapital,
		StartingShare:   in.StartingShare,
		MaxWeeks:        in.MaxWeeks,
		WinGoal:         in.WinGoal,
	})
}

func (b *LocalBackend) Invest(ctx context.Context, levels game.DecisionLevels) (InvestResponse, error) {
	res, g, err := b.svc.Invest(ctx, game.InvestInput{OwnerID: LocalOwner, Levels: levels})
	if err != nil {
		return InvestResponse{}, err
	}
	return InvestResponse{Result: res, Dashboard: game.BuildDashboard(g)}, nil
}

func (b *LocalBackend) Advance(ctx context.Context) (AdvanceResponse, error) {
	rep, g, err := b.svc.Advance(ctx, game.AdvanceInput{OwnerID: LocalOwner})
	if err != nil {
		return AdvanceResponse{}, err
	}
	return AdvanceResponse{Report: rep, Dashboard: game.BuildDashboard(g)}, nil
}

func (b *LocalBackend) Dashboard(ctx context.Context) (game.Dashboard, error) {
	return b.svc.Dashboard(ctx, LocalOwner)
}

func (b *LocalBackend) Ranking(ctx context.Context) ([]game.RankRow, error) {
	return b.svc.Ranking(ctx, LocalOwner)
}

func (b *LocalBackend) Status(ctx context.Context) (game.Status, error) {
	return b.svc.Status(ctx, LocalOwner)
}

func (b *LocalBackend) Reset(ctx context.Context) error {
	return b.svc.Reset(ctx, LocalOwner)
}
