package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Preset holds the starting conditions for one difficulty.
type Preset struct {
	StartingCapital int64   `yaml:"starting_capital" json:"starting_capital"`
	StartingShare   float64 `yaml:"starting_share" json:"starting_share"`
	MaxWeeks        int     `yaml:"max_weeks" json:"max_weeks"`
	WinGoal         WinGoal `yaml:"win_goal" json:"win_goal"`
	RivalCount      int     `yaml:"rival_count" json:"rival_count"`
}

type Presets map[Difficulty]Preset

// DefaultPresets are the three setup screens of the live game. Harder games
// start poorer and smaller, end sooner and need a bigger company to win.
func DefaultPresets() Presets {
	return Presets{
		DifficultyEasy: {
			StartingCapital: 2_500_000,
			StartingShare:   5.0,
			MaxWeeks:        52,
			WinGoal:         WinGoal{Capital: 6_000_000, MarketShare: 20},
			RivalCount:      DefaultRivalCount,
		},
		DifficultyNormal: {
			StartingCapital: 1_000_000,
			StartingShare:   1.0,
			MaxWeeks:        40,
			WinGoal:         WinGoal{Capital: 5_000_000, MarketShare: 25},
			RivalCount:      DefaultRivalCount,
		},
		DifficultyHard: {
			StartingCapital: 500_000,
			StartingShare:   0.1,
			MaxWeeks:        30,
			WinGoal:         WinGoal{Capital: 8_000_000, MarketShare: 30},
			RivalCount:      DefaultRivalCount,
		},
	}
}

func (p Preset) Validate() error {
	switch {
	case p.StartingCapital <= 0:
		return fmt.Errorf("%w: starting capital must be > 0", ErrInvalidSetup)
	case p.StartingShare < MinPlayerMarketShare || p.StartingShare > MaxPlayerMarketShare:
		return fmt.Errorf("%w: starting share must be within %.1f..%.0f", ErrInvalidSetup, MinPlayerMarketShare, MaxPlayerMarketShare)
	case p.MaxWeeks <= 0:
		return fmt.Errorf("%w: max weeks must be > 0", ErrInvalidSetup)
	case p.WinGoal.Capital <= 0 || p.WinGoal.MarketShare <= 0:
		return fmt.Errorf("%w: win goal must be positive", ErrInvalidSetup)
	case p.RivalCount < 0 || p.RivalCount > MaxRivalCount:
		return fmt.Errorf("%w: rival count must be within 0..%d", ErrInvalidSetup, MaxRivalCount)
	}
	return nil
}

func (p Presets) For(d Difficulty) Preset {
	if pr, ok := p[d]; ok {
		return pr
	}
	return DefaultPresets()[d]
}

var rivalRoster = []struct {
	Name     string
	Strength string
}{
	{"Rival Corporation A", "high"},
	{"Tech Competitors Inc", "medium"},
	{"Global Enterprises", "very high"},
}

func initialRivals(n int, capital int64, share float64) []Rival {
	out := make([]Rival, 0, n)
	for i := 0; i < n; i++ {
		r := Rival{
			Name:             fmt.Sprintf("Rival %d", i+1),
			Strength:         "medium",
			Capital:          capital,
			MarketShare:      share,
			LastAction:       "start",
			LastActionEffect: EffectStable,
		}
		if i < len(rivalRoster) {
			r.Name = rivalRoster[i].Name
			r.Strength = rivalRoster[i].Strength
		}
		out = append(out, r)
	}
	return out
}

// NewGame builds week 1 of a fresh game. Input values override the preset
// for the chosen difficulty; rivals start on equal footing with the player.
func NewGame(in NewGameInput, presets Presets) (*Game, error) {
	if err := validateCompanyName(in.CompanyName); err != nil {
		return nil, err
	}
	difficulty, err := ParseDifficulty(in.Difficulty)
	if err != nil {
		return nil, err
	}
	preset := presets.For(difficulty)
	if in.StartingCapital != 0 {
		preset.StartingCapital = in.StartingCapital
	}
	if in.StartingShare != 0 {
		preset.StartingShare = in.StartingShare
	}
	if in.MaxWeeks != 0 {
		preset.MaxWeeks = in.MaxWeeks
	}
	if in.WinGoal != nil {
		preset.WinGoal = *in.WinGoal
	}
	if err := preset.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	g := &Game{
		ID:          uuid.NewString(),
		OwnerID:     in.OwnerID,
		CompanyName: strings.TrimSpace(in.CompanyName),
		CurrentWeek: 1,
		Player: Ledger{
			Capital:            preset.StartingCapital,
			CapitalAtWeekStart: preset.StartingCapital,
			Income:             StartingIncome,
			MarketShare:        preset.StartingShare,
			Satisfaction:       StartingSatisfaction,
			Employees:          StartingEmployees,
			LastDecisions:      []string{},
		},
		Rivals: initialRivals(preset.RivalCount, preset.StartingCapital, preset.StartingShare),
		Settings: Settings{
			Difficulty: difficulty,
			MaxWeeks:   preset.MaxWeeks,
			WinGoal:    preset.WinGoal,
		},
		Outcome:   OutcomeNone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	label := weekLabel(1)
	g.History.Revenue.Append(label, float64(StartingIncome))
	g.History.MarketShare.Append(label, preset.StartingShare)
	g.History.Volatility.Append(label, 0)
	return g, nil
}
