package game

func meetsGoal(capital int64, share float64, goal WinGoal) bool {
	return capital >= goal.Capital && share >= goal.MarketShare
}

// Evaluate checks terminal conditions in priority order: bankruptcy, player
// win, rival win, timeout. It returns the outcome and, for a rival win, the
// first qualifying rival's name. Only the player can go bankrupt.
func Evaluate(g *Game) (Outcome, string) {
	goal := g.Settings.WinGoal
	if g.Player.Capital <= 0 {
		return OutcomeLoseBankrupt, ""
	}
	if meetsGoal(g.Player.Capital, g.Player.MarketShare, goal) {
		return OutcomeWin, ""
	}
	for _, r := range g.Rivals {
		if meetsGoal(r.Capital, r.MarketShare, goal) {
			return OutcomeLoseRival, r.Name
		}
	}
	if g.CurrentWeek > g.Settings.MaxWeeks {
		return OutcomeLoseTime, ""
	}
	return OutcomeNone, ""
}
