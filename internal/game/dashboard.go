package game

import "sort"

// Ranking orders the player and rivals by capital, richest first.
func Ranking(g *Game) []RankRow {
	rows := make([]RankRow, 0, len(g.Rivals)+1)
	rows = append(rows, RankRow{
		Name:        g.CompanyName,
		Capital:     g.Player.Capital,
		MarketShare: g.Player.MarketShare,
		IsPlayer:    true,
	})
	for _, r := range g.Rivals {
		if r.Name == "" {
			continue
		}
		rows = append(rows, RankRow{Name: r.Name, Capital: r.Capital, MarketShare: r.MarketShare})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Capital > rows[j].Capital
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func pct(v, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return clamp(v/goal*100, 0, 100)
}

func BuildDashboard(g *Game) Dashboard {
	remaining := g.Settings.MaxWeeks - g.CurrentWeek + 1
	if remaining < 0 {
		remaining = 0
	}
	p := g.Player
	return Dashboard{
		GameID:             g.ID,
		CompanyName:        g.CompanyName,
		Week:               g.CurrentWeek,
		MaxWeeks:           g.Settings.MaxWeeks,
		Difficulty:         g.Settings.Difficulty,
		Capital:            p.Capital,
		CapitalAtWeekStart: p.CapitalAtWeekStart,
		LastInvestmentCost: p.LastInvestmentCost,
		WeeklyResult:       p.Capital - p.CapitalAtWeekStart,
		Income:             p.Income,
		MarketShare:        p.MarketShare,
		Satisfaction:       p.Satisfaction,
		Employees:          p.Employees,
		MarketingLevel:     p.MarketingLevel,
		ResearchLevel:      p.ResearchLevel,
		EfficiencyLevel:    p.EfficiencyLevel,
		LastDecisions:      append([]string(nil), p.LastDecisions...),
		Ranking:            Ranking(g),
		Progress: GoalProgress{
			CapitalPct:     pct(float64(p.Capital), float64(g.Settings.WinGoal.Capital)),
			MarketSharePct: pct(p.MarketShare, g.Settings.WinGoal.MarketShare),
			WeeksRemaining: remaining,
		},
		History:    g.History,
		IsGameOver: g.IsGameOver,
		Outcome:    g.Outcome,
		WinnerName: g.WinnerName,
	}
}

func StatusOf(g *Game) Status {
	return Status{
		GameID:      g.ID,
		CurrentWeek: g.CurrentWeek,
		IsGameOver:  g.IsGameOver,
		Outcome:     g.Outcome,
	}
}
