package game

import (
	"fmt"
	"math"
	"time"
)

// Engine applies player decisions and advances weeks. It is a pure
// transformation apart from its random source; callers serialize access to a
// given game.
type Engine struct {
	rand RandSource
	now  func() time.Time
}

func NewEngine(src RandSource) *Engine {
	if src == nil {
		src = NewTimeSeededRand()
	}
	return &Engine{rand: src, now: time.Now}
}

func weekLabel(week int) string {
	return fmt.Sprintf("S%d", week)
}

// Invest applies the bundle to the player's ledger. On error g is unchanged.
func (e *Engine) Invest(g *Game, levels DecisionLevels) (InvestResult, error) {
	if g.IsGameOver {
		return InvestResult{}, ErrGameAlreadyOver
	}
	player := g.Player
	player.LastDecisions = nil
	total, err := ApplyInvestments(&player, levels)
	if err != nil {
		return InvestResult{}, err
	}
	g.Player = player
	g.UpdatedAt = e.now().UTC()
	return InvestResult{
		TotalCost:        total,
		CapitalRemaining: player.Capital,
		Decisions:        append([]string(nil), player.LastDecisions...),
	}, nil
}

// Advance moves the game forward one week: player financials, every rival
// under the same volatility draw, history, then terminal evaluation.
func (e *Engine) Advance(g *Game) (WeekReport, error) {
	if g.IsGameOver {
		return WeekReport{}, ErrGameAlreadyOver
	}
	next := g.Clone()
	vol := DrawVolatility(e.rand)

	player, fin := advancePlayer(next.Player, next.Settings, vol)
	next.Player = player
	for i := range next.Rivals {
		next.Rivals[i] = AdvanceRival(next.Rivals[i], next.Settings.Difficulty, vol, e.rand)
	}
	next.CurrentWeek++

	label := weekLabel(next.CurrentWeek)
	next.History.Revenue.Append(label, float64(next.Player.Income))
	next.History.MarketShare.Append(label, next.Player.MarketShare)
	next.History.Volatility.Append(label, vol*100)

	outcome, winner := Evaluate(next)
	next.Outcome = outcome
	next.WinnerName = winner
	next.IsGameOver = outcome.Terminal()
	next.UpdatedAt = e.now().UTC()

	*g = *next
	return WeekReport{
		Week:       g.CurrentWeek,
		Volatility: vol,
		NetProfit:  int64(math.Round(fin.NetProfit)),
		FixedCosts: int64(math.Round(fin.FixedCosts)),
		Outcome:    outcome,
		WinnerName: winner,
	}, nil
}
