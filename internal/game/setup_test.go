package game

import (
	"errors"
	"testing"
)

func TestNewGameDefaults(t *testing.T) {
	g, err := NewGame(NewGameInput{OwnerID: "u1", CompanyName: "  Acme  ", Difficulty: "hard"}, DefaultPresets())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if g.ID == "" || g.OwnerID != "u1" || g.CompanyName != "Acme" {
		t.Fatalf("identity not set: %+v", g)
	}
	if g.CurrentWeek != 1 || g.IsGameOver || g.Outcome != OutcomeNone {
		t.Fatalf("bad initial state: week=%d over=%v outcome=%s", g.CurrentWeek, g.IsGameOver, g.Outcome)
	}
	p := g.Player
	if p.Capital != 500_000 || p.CapitalAtWeekStart != 500_000 || p.Income != StartingIncome ||
		p.Satisfaction != StartingSatisfaction || p.Employees != StartingEmployees || p.MarketShare != 0.1 {
		t.Fatalf("bad player ledger: %+v", p)
	}
	if g.Settings.Difficulty != DifficultyHard || g.Settings.MaxWeeks != 30 ||
		g.Settings.WinGoal.Capital != 8_000_000 || g.Settings.WinGoal.MarketShare != 30 {
		t.Fatalf("bad settings: %+v", g.Settings)
	}
	if len(g.Rivals) != 3 {
		t.Fatalf("rivals=%d want 3", len(g.Rivals))
	}
	for _, r := range g.Rivals {
		if r.Capital != p.Capital || r.MarketShare != p.MarketShare {
			t.Fatalf("rival %s should start level with the player", r.Name)
		}
	}
	if g.History.Revenue.Labels[0] != "S1" || g.History.Revenue.Values[0] != float64(StartingIncome) {
		t.Fatalf("history not seeded: %+v", g.History)
	}
}

func TestDefaultPresetsPerDifficulty(t *testing.T) {
	tests := []struct {
		difficulty string
		capital    int64
		share      float64
		weeks      int
		goal       WinGoal
	}{
		{difficulty: "easy", capital: 2_500_000, share: 5.0, weeks: 52, goal: WinGoal{Capital: 6_000_000, MarketShare: 20}},
		{difficulty: "normal", capital: 1_000_000, share: 1.0, weeks: 40, goal: WinGoal{Capital: 5_000_000, MarketShare: 25}},
		{difficulty: "medium", capital: 1_000_000, share: 1.0, weeks: 40, goal: WinGoal{Capital: 5_000_000, MarketShare: 25}},
		{difficulty: "hard", capital: 500_000, share: 0.1, weeks: 30, goal: WinGoal{Capital: 8_000_000, MarketShare: 30}},
	}
	for _, tc := range tests {
		g, err := NewGame(NewGameInput{OwnerID: "u1", CompanyName: "Acme", Difficulty: tc.difficulty}, DefaultPresets())
		if err != nil {
			t.Fatalf("%s: new game: %v", tc.difficulty, err)
		}
		if g.Player.Capital != tc.capital || g.Player.MarketShare != tc.share {
			t.Fatalf("%s: capital=%d share=%v want %d %v", tc.difficulty, g.Player.Capital, g.Player.MarketShare, tc.capital, tc.share)
		}
		if g.Settings.MaxWeeks != tc.weeks || g.Settings.WinGoal != tc.goal {
			t.Fatalf("%s: settings=%+v", tc.difficulty, g.Settings)
		}
		for _, r := range g.Rivals {
			if r.Capital != tc.capital || r.MarketShare != tc.share {
				t.Fatalf("%s: rival %s should start level with the player", tc.difficulty, r.Name)
			}
		}
	}
	for d, p := range DefaultPresets() {
		if err := p.Validate(); err != nil {
			t.Fatalf("%s preset invalid: %v", d, err)
		}
	}
}

func TestNewGameOverrides(t *testing.T) {
	presets := DefaultPresets()
	easy := presets[DifficultyEasy]
	easy.RivalCount = 5
	presets[DifficultyEasy] = easy

	g, err := NewGame(NewGameInput{
		OwnerID:         "u1",
		CompanyName:     "Acme",
		Difficulty:      "easy",
		StartingCapital: 250_000,
		MaxWeeks:        10,
		WinGoal:         &WinGoal{Capital: 900_000, MarketShare: 5},
	}, presets)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	if g.Player.Capital != 250_000 || g.Settings.MaxWeeks != 10 || g.Settings.WinGoal.Capital != 900_000 {
		t.Fatalf("overrides not applied: %+v %+v", g.Player, g.Settings)
	}
	if len(g.Rivals) != 5 || g.Rivals[3].Name != "Rival 4" || g.Rivals[4].Name != "Rival 5" {
		t.Fatalf("rival roster: %+v", g.Rivals)
	}
}

func TestNewGameRejects(t *testing.T) {
	tests := []NewGameInput{
		{CompanyName: "", Difficulty: "easy"},
		{CompanyName: "Acme", Difficulty: "impossible"},
		{CompanyName: "Acme", MaxWeeks: -1},
		{CompanyName: "Acme", StartingCapital: -10},
		{CompanyName: "Acme", WinGoal: &WinGoal{Capital: 0, MarketShare: 10}},
		{CompanyName: "Acme", StartingShare: -1},
		{CompanyName: "Acme", StartingShare: 0.05},
		{CompanyName: "Acme", StartingShare: 60.5},
	}
	for _, in := range tests {
		if _, err := NewGame(in, DefaultPresets()); !errors.Is(err, ErrInvalidSetup) {
			t.Fatalf("%+v: expected ErrInvalidSetup, got %v", in, err)
		}
	}
}

func TestPresetsForFallsBack(t *testing.T) {
	p := Presets{}.For(DifficultyNormal)
	if err := p.Validate(); err != nil {
		t.Fatalf("fallback preset invalid: %v", err)
	}
	bad := DefaultPresets()[DifficultyEasy]
	bad.RivalCount = MaxRivalCount + 1
	if err := bad.Validate(); !errors.Is(err, ErrInvalidSetup) {
		t.Fatalf("expected ErrInvalidSetup, got %v", err)
	}

	edge := DefaultPresets()[DifficultyNormal]
	for _, share := range []float64{MinPlayerMarketShare, MaxPlayerMarketShare} {
		edge.StartingShare = share
		if err := edge.Validate(); err != nil {
			t.Fatalf("share %v should be accepted: %v", share, err)
		}
	}
	edge.StartingShare = 0
	if err := edge.Validate(); !errors.Is(err, ErrInvalidSetup) {
		t.Fatalf("zero starting share: expected ErrInvalidSetup, got %v", err)
	}
}
