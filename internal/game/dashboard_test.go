package game

import (
	"math"
	"testing"
)

func TestRankingOrdersByCapital(t *testing.T) {
	g := &Game{
		CompanyName: "Acme",
		Player:      Ledger{Capital: 500},
		Rivals: []Rival{
			{Name: "Alpha", Capital: 900},
			{Name: "", Capital: 10_000},
			{Name: "Beta", Capital: 500},
			{Name: "Gamma", Capital: -20},
		},
	}
	rows := Ranking(g)
	want := []string{"Alpha", "Acme", "Beta", "Gamma"}
	if len(rows) != len(want) {
		t.Fatalf("rows=%d want %d", len(rows), len(want))
	}
	for i, name := range want {
		if rows[i].Name != name || rows[i].Rank != i+1 {
			t.Fatalf("row %d = %+v want %s", i, rows[i], name)
		}
	}
	if !rows[1].IsPlayer || rows[0].IsPlayer {
		t.Fatalf("player flag misplaced: %+v", rows)
	}
}

func TestBuildDashboard(t *testing.T) {
	g := newTestGame(t, NewGameInput{})
	e := NewEngine(&seqRand{vals: []float64{0.5}})
	if _, err := e.Invest(g, DecisionLevels{"eff_process": 2}); err != nil {
		t.Fatalf("invest: %v", err)
	}
	d := BuildDashboard(g)
	if d.WeeklyResult != -60_000 || d.LastInvestmentCost != 60_000 {
		t.Fatalf("weekly result=%d cost=%d", d.WeeklyResult, d.LastInvestmentCost)
	}
	if d.Progress.WeeksRemaining != 40 {
		t.Fatalf("weeks remaining=%d want 40", d.Progress.WeeksRemaining)
	}
	if math.Abs(d.Progress.CapitalPct-18.8) > 1e-9 || math.Abs(d.Progress.MarketSharePct-4) > 1e-9 {
		t.Fatalf("progress=%+v", d.Progress)
	}
	if len(d.Ranking) != 4 || len(d.LastDecisions) != 1 {
		t.Fatalf("ranking=%d decisions=%v", len(d.Ranking), d.LastDecisions)
	}

	g.Player.Capital = 20_000_000
	g.CurrentWeek = 60
	d = BuildDashboard(g)
	if d.Progress.CapitalPct != 100 || d.Progress.WeeksRemaining != 0 {
		t.Fatalf("progress should clamp: %+v", d.Progress)
	}

	st := StatusOf(g)
	if st.GameID != g.ID || st.CurrentWeek != 60 {
		t.Fatalf("status=%+v", st)
	}
}
