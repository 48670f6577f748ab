package game

import (
	"math"
	"testing"
)

func TestAdvancePlayerBaseline(t *testing.T) {
	l := freshLedger()
	next := AdvancePlayer(l, Settings{Difficulty: DifficultyNormal, MaxWeeks: 52}, 0)

	if next.Income != 102_000 {
		t.Fatalf("income=%d want 102000", next.Income)
	}
	if next.MarketShare != 1.0 {
		t.Fatalf("share=%v want 1.0", next.MarketShare)
	}
	if next.Satisfaction != 48 {
		t.Fatalf("satisfaction=%v want 48", next.Satisfaction)
	}
	if next.CapitalAtWeekStart != 1_000_000 {
		t.Fatalf("capital at week start=%d want 1000000", next.CapitalAtWeekStart)
	}
	if next.Capital != 1_046_400 {
		t.Fatalf("capital=%d want 1046400", next.Capital)
	}
	if l.Capital != 1_000_000 {
		t.Fatalf("input ledger mutated")
	}
}

func TestAdvancePlayerLevelsAndPenalty(t *testing.T) {
	l := freshLedger()
	l.MarketingLevel = 2
	l.ResearchLevel = 2
	l.EfficiencyLevel = 5
	l.Satisfaction = 30

	next, fin := advancePlayer(l, Settings{Difficulty: DifficultyNormal}, 0)
	// 100000 * (1.02 + 0.03 + 0.01) * 0.9
	if next.Income != 95_400 {
		t.Fatalf("income=%d want 95400", next.Income)
	}
	if math.Abs(next.MarketShare-1.2) > 1e-9 {
		t.Fatalf("share=%v want 1.2", next.MarketShare)
	}
	if math.Abs(fin.FixedCosts-22_500) > 1e-6 {
		t.Fatalf("fixed=%v want 22500", fin.FixedCosts)
	}
	if next.Satisfaction != 28 {
		t.Fatalf("satisfaction=%v want 28", next.Satisfaction)
	}
}

func TestAdvancePlayerHardDampensShareGrowth(t *testing.T) {
	l := freshLedger()
	l.MarketingLevel = 4
	normal := AdvancePlayer(l, Settings{Difficulty: DifficultyNormal}, 0)
	hard := AdvancePlayer(l, Settings{Difficulty: DifficultyHard}, 0)
	if math.Abs((normal.MarketShare-1.0)*0.8-(hard.MarketShare-1.0)) > 1e-9 {
		t.Fatalf("hard growth %v should be 80%% of normal %v", hard.MarketShare-1, normal.MarketShare-1)
	}
}

func TestAdvancePlayerEfficiencyDiscountCaps(t *testing.T) {
	l := freshLedger()
	l.EfficiencyLevel = 50
	_, fin := advancePlayer(l, Settings{}, 0)
	if math.Abs(fin.FixedCosts-15_000) > 1e-6 {
		t.Fatalf("fixed=%v want 15000 with 40%% cap", fin.FixedCosts)
	}
}

func TestAdvancePlayerBoundsUnderExtremes(t *testing.T) {
	s := Settings{Difficulty: DifficultyEasy}
	high := freshLedger()
	high.MarketingLevel = 10
	high.ResearchLevel = 10
	low := freshLedger()
	for i := 0; i < 100; i++ {
		high = AdvancePlayer(high, s, 0.0499)
		low = AdvancePlayer(low, s, -0.05)
		for _, l := range []Ledger{high, low} {
			if l.MarketShare < MinPlayerMarketShare || l.MarketShare > MaxPlayerMarketShare {
				t.Fatalf("week %d share out of bounds: %v", i, l.MarketShare)
			}
			if l.Satisfaction < MinSatisfaction || l.Satisfaction > MaxSatisfaction {
				t.Fatalf("week %d satisfaction out of bounds: %v", i, l.Satisfaction)
			}
		}
	}
	if high.MarketShare != MaxPlayerMarketShare {
		t.Fatalf("share should saturate at max, got %v", high.MarketShare)
	}
	if low.MarketShare != MinPlayerMarketShare {
		t.Fatalf("share should floor at min, got %v", low.MarketShare)
	}
	if low.Satisfaction != MinSatisfaction {
		t.Fatalf("satisfaction should floor at min, got %v", low.Satisfaction)
	}
}
