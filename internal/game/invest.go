package game

import "fmt"

// ApplyInvestments charges the bundle against the ledger and applies the level
// bumps. The bundle is applied in full or not at all.
func ApplyInvestments(l *Ledger, levels DecisionLevels) (int64, error) {
	if err := levels.Validate(); err != nil {
		return 0, err
	}
	total := levels.TotalCost()
	if total > l.Capital {
		return 0, fmt.Errorf("%w: bundle costs %d, capital is %d", ErrInsufficientCapital, total, l.Capital)
	}

	decisions := make([]string, 0, len(levels))
	for _, c := range catalog {
		lvl := levels[c.Key]
		if lvl <= 0 {
			continue
		}
		switch c.Effect {
		case EffectMarketing:
			l.MarketingLevel += int(c.PerLevel) * lvl
		case EffectResearch:
			l.ResearchLevel += int(c.PerLevel) * lvl
		case EffectEfficiency:
			l.EfficiencyLevel += int(c.PerLevel) * lvl
		case EffectSatisfaction:
			l.Satisfaction = clamp(l.Satisfaction+c.PerLevel*float64(lvl), MinSatisfaction, MaxSatisfaction)
		}
		decisions = append(decisions, decisionLabel(c.Key, lvl))
	}

	l.Capital -= total
	l.LastInvestmentCost = total
	l.LastDecisions = decisions
	return total, nil
}
