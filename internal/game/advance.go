package game

import "math"

// weekFinancials carries the intermediate figures of one player advancement
// for reporting.
type weekFinancials struct {
	FixedCosts float64
	NetProfit  float64
}

// AdvancePlayer computes next week's ledger from the post-investment ledger.
// Every step reads the pre-advancement values of l.
func AdvancePlayer(l Ledger, s Settings, vol float64) Ledger {
	next, _ := advancePlayer(l, s, vol)
	return next
}

func advancePlayer(l Ledger, s Settings, vol float64) (Ledger, weekFinancials) {
	next := l
	next.LastDecisions = cloneStrings(l.LastDecisions)
	next.CapitalAtWeekStart = l.Capital

	growth := 1 + 0.02 + float64(l.MarketingLevel)*0.015 + float64(l.ResearchLevel)*0.005 + vol
	penalty := 1.0
	if l.Satisfaction < 40 {
		penalty = 0.9
	}
	next.Income = int64(math.Round(float64(l.Income) * growth * penalty))

	shareGrowth := float64(l.MarketingLevel)*0.05 + float64(l.ResearchLevel)*0.05
	if s.Difficulty == DifficultyHard {
		shareGrowth *= 0.8
	}
	next.MarketShare = clamp(l.MarketShare+shareGrowth+vol*2, MinPlayerMarketShare, MaxPlayerMarketShare)
	next.Satisfaction = math.Round(clamp(l.Satisfaction-2, MinSatisfaction, MaxSatisfaction))

	discount := math.Min(0.4, float64(l.EfficiencyLevel)*0.02)
	fixed := float64(l.Employees) * BaseEmployeeCost * (1 - discount)
	net := float64(next.Income)*RevenueShare - fixed
	next.Capital = int64(math.Round(float64(next.CapitalAtWeekStart) + net))

	return next, weekFinancials{FixedCosts: fixed, NetProfit: net}
}
