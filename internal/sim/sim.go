// Package sim plays many seeded games with a fixed investment policy so the
// difficulty presets can be compared by outcome distribution.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"bizwars/internal/game"
)

// Policy decides the bundle for the coming week.
type Policy struct {
	Name   string
	Decide func(g *game.Game) game.DecisionLevels
}

// reserve is the capital a policy keeps untouched before it buys anything.
const reserve = 200_000

func affordable(g *game.Game, levels game.DecisionLevels) game.DecisionLevels {
	if g.Player.Capital-levels.TotalCost() < reserve {
		return game.DecisionLevels{}
	}
	return levels
}

var policies = []Policy{
	{Name: "idle", Decide: func(*game.Game) game.DecisionLevels {
		return game.DecisionLevels{}
	}},
	{Name: "balanced", Decide: func(g *game.Game) game.DecisionLevels {
		return affordable(g, game.DecisionLevels{"marketing_online": 1, "eff_process": 1, "staff_sales": 1})
	}},
	{Name: "aggressive", Decide: func(g *game.Game) game.DecisionLevels {
		return affordable(g, game.DecisionLevels{"marketing_online": 3, "ad_segment": 2, "id_product": 1})
	}},
}

func Policies() []Policy {
	return append([]Policy(nil), policies...)
}

func PolicyByName(name string) (Policy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range policies {
		if p.Name == name {
			return p, nil
		}
	}
	return Policy{}, fmt.Errorf("unknown policy %q", name)
}

// Play runs g to a terminal outcome. A bundle the player cannot afford is
// skipped for that week.
func Play(g *game.Game, engine *game.Engine, p Policy) error {
	for !g.IsGameOver {
		if _, err := engine.Invest(g, p.Decide(g)); err != nil && !errors.Is(err, game.ErrInsufficientCapital) {
			return err
		}
		if _, err := engine.Advance(g); err != nil {
			return err
		}
	}
	return nil
}

type Options struct {
	Games      int
	Seed       int64
	Policy     Policy
	Difficulty game.Difficulty
	Presets    game.Presets
	Workers    int
}

type Summary struct {
	Difficulty   game.Difficulty
	Policy       string
	Games        int
	Outcomes     map[game.Outcome]int
	AvgWeeks     float64
	AvgCapital   float64
	MedianShare  float64
	RivalWinners map[string]int
}

// Rate is the fraction of games that ended with o.
func (s Summary) Rate(o game.Outcome) float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Outcomes[o]) / float64(s.Games)
}

type result struct {
	outcome game.Outcome
	winner  string
	weeks   int
	capital int64
	share   float64
}

// Run plays opts.Games games. Game i draws from its own source seeded with
// opts.Seed+i, so a summary is reproducible regardless of worker count.
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Games <= 0 {
		return Summary{}, errors.New("games must be positive")
	}
	if opts.Policy.Decide == nil {
		opts.Policy = policies[0]
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	results := make([]result, opts.Games)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < opts.Games; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			g, err := game.NewGame(game.NewGameInput{
				OwnerID:     fmt.Sprintf("sim-%d", i),
				CompanyName: "Simulated Co",
				Difficulty:  string(opts.Difficulty),
			}, opts.Presets)
			if err != nil {
				return err
			}
			engine := game.NewEngine(game.NewRand(opts.Seed + int64(i)))
			if err := Play(g, engine, opts.Policy); err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			results[i] = result{
				outcome: g.Outcome,
				winner:  g.WinnerName,
				weeks:   g.CurrentWeek - 1,
				capital: g.Player.Capital,
				share:   g.Player.MarketShare,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Summary{}, err
	}
	return summarize(opts, results), nil
}

func summarize(opts Options, results []result) Summary {
	s := Summary{
		Difficulty:   opts.Difficulty,
		Policy:       opts.Policy.Name,
		Games:        len(results),
		Outcomes:     map[game.Outcome]int{},
		RivalWinners: map[string]int{},
	}
	shares := make([]float64, 0, len(results))
	var weeks, capital float64
	for _, r := range results {
		s.Outcomes[r.outcome]++
		if r.winner != "" {
			s.RivalWinners[r.winner]++
		}
		weeks += float64(r.weeks)
		capital += float64(r.capital)
		shares = append(shares, r.share)
	}
	n := float64(len(results))
	s.AvgWeeks = weeks / n
	s.AvgCapital = capital / n
	sort.Float64s(shares)
	mid := len(shares) / 2
	if len(shares)%2 == 1 {
		s.MedianShare = shares[mid]
	} else {
		s.MedianShare = (shares[mid-1] + shares[mid]) / 2
	}
	return s
}
