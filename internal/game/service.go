package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Store persists one active game per owner. Mutate must give at most one
// concurrent writer per owner: it loads the game, runs fn and saves the
// result only when fn returns nil. A non-empty idempotency key is claimed in
// the same unit of work and a replay fails with ErrDuplicateIdempotency.
type Store interface {
	Get(ctx context.Context, ownerID string) (*Game, error)
	Replace(ctx context.Context, g *Game) error
	Mutate(ctx context.Context, ownerID, idempotencyKey, action string, fn func(*Game) error) (*Game, error)
	Delete(ctx context.Context, ownerID string) error
	PurgeFinished(ctx context.Context, before time.Time) (int64, error)
}

// Notifier is told about every committed change to a game.
type Notifier interface {
	GameUpdated(ownerID, event string, g *Game)
}

type Service struct {
	store   Store
	engine  *Engine
	presets Presets
	log     *slog.Logger
	notify  Notifier
}

func NewService(store Store, engine *Engine, presets Presets, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = NewEngine(nil)
	}
	if presets == nil {
		presets = DefaultPresets()
	}
	return &Service{
		store:   store,
		engine:  engine,
		presets: presets,
		log:     logger,
	}
}

func (s *Service) SetNotifier(n Notifier) {
	s.notify = n
}

func (s *Service) publish(ownerID, event string, g *Game) {
	if s.notify == nil || g == nil {
		return
	}
	s.notify.GameUpdated(ownerID, event, g)
}

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrUnauthorized
	}
	return nil
}

// CreateGame starts a new game for the owner, replacing any previous one.
func (s *Service) CreateGame(ctx context.Context, in NewGameInput) (*Game, error) {
	if err := requireOwner(in.OwnerID); err != nil {
		return nil, err
	}
	g, err := NewGame(in, s.presets)
	if err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, g); err != nil {
		return nil, fmt.Errorf("save new game: %w", err)
	}
	s.log.Info("game created", "game_id", g.ID, "owner_id", g.OwnerID, "difficulty", g.Settings.Difficulty, "rivals", len(g.Rivals))
	s.publish(g.OwnerID, "created", g)
	return g, nil
}

func (s *Service) CurrentGame(ctx context.Context, ownerID string) (*Game, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, ownerID)
}

func (s *Service) Invest(ctx context.Context, in InvestInput) (InvestResult, *Game, error) {
	var out InvestResult
	if err := requireOwner(in.OwnerID); err != nil {
		return out, nil, err
	}
	if err := in.Levels.Validate(); err != nil {
		return out, nil, err
	}
	g, err := s.store.Mutate(ctx, in.OwnerID, in.IdempotencyKey, "invest", func(g *Game) error {
		res, err := s.engine.Invest(g, in.Levels)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return InvestResult{}, nil, err
	}
	s.log.Info("investment applied", "game_id", g.ID, "week", g.CurrentWeek, "total_cost", out.TotalCost)
	s.publish(in.OwnerID, "invested", g)
	return out, g, nil
}

func (s *Service) Advance(ctx context.Context, in AdvanceInput) (WeekReport, *Game, error) {
	var out WeekReport
	if err := requireOwner(in.OwnerID); err != nil {
		return out, nil, err
	}
	g, err := s.store.Mutate(ctx, in.OwnerID, in.IdempotencyKey, "advance", func(g *Game) error {
		rep, err := s.engine.Advance(g)
		if err != nil {
			return err
		}
		out = rep
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrGameAlreadyOver) {
			s.log.Debug("advance rejected, game over", "owner_id", in.OwnerID)
		}
		return WeekReport{}, nil, err
	}
	s.log.Info("week advanced",
		"game_id", g.ID,
		"week", out.Week,
		"volatility", out.Volatility,
		"capital", g.Player.Capital,
		"outcome", out.Outcome,
	)
	s.publish(in.OwnerID, "advanced", g)
	return out, g, nil
}

func (s *Service) Reset(ctx context.Context, ownerID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ownerID); err != nil {
		return err
	}
	s.log.Info("game reset", "owner_id", ownerID)
	return nil
}

func (s *Service) Status(ctx context.Context, ownerID string) (Status, error) {
	g, err := s.CurrentGame(ctx, ownerID)
	if err != nil {
		return Status{}, err
	}
	return StatusOf(g), nil
}

func (s *Service) Dashboard(ctx context.Context, ownerID string) (Dashboard, error) {
	g, err := s.CurrentGame(ctx, ownerID)
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(g), nil
}

func (s *Service) Ranking(ctx context.Context, ownerID string) ([]RankRow, error) {
	g, err := s.CurrentGame(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return Ranking(g), nil
}

// PurgeFinished deletes finished games not touched within olderThan.
func (s *Service) PurgeFinished(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("purge window must be > 0")
	}
	n, err := s.store.PurgeFinished(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	s.log.Info("finished games purged", "count", n, "older_than", olderThan.String())
	return n, nil
}
