package game

import "math"

type rivalPersonality struct {
	Aggressiveness float64
	Efficiency     float64
}

func personality(d Difficulty) rivalPersonality {
	switch d {
	case DifficultyEasy:
		return rivalPersonality{Aggressiveness: 0.10, Efficiency: 0.8}
	case DifficultyHard:
		return rivalPersonality{Aggressiveness: 0.25, Efficiency: 1.2}
	default:
		return rivalPersonality{Aggressiveness: 0.15, Efficiency: 1.0}
	}
}

const (
	ActionPassive    = "passive"
	ActionAggressive = "aggressive expansion"
	ActionModerate   = "moderate investment"
	ActionMaintain   = "maintenance"

	EffectGrowing = "growing"
	EffectStable  = "stable"
)

// AdvanceRival runs one week of the rival policy. vol must be the same draw
// the player's week used. Rival capital and share are not bounded.
func AdvanceRival(r Rival, d Difficulty, vol float64, src RandSource) Rival {
	p := personality(d)
	action := ActionPassive
	var spend int64

	if r.Capital > rivalSpendThreshold {
		spend = int64(math.Floor(float64(r.Capital) * p.Aggressiveness * uniform(src, 0.8, 1.2)))
		r.Capital -= spend
		gain := (float64(spend) / rivalMarketImpactBase) * p.Efficiency * uniform(src, 0.9, 1.1)
		r.MarketShare += gain

		switch {
		case spend > 150_000:
			action = ActionAggressive
		case spend > 50_000:
			action = ActionModerate
		default:
			action = ActionMaintain
		}
	}

	revenue := r.MarketShare * rivalRevenuePerPoint * (1 + vol)
	fixed := revenue * rivalFixedCostFraction
	net := revenue*RevenueShare - fixed
	r.Capital = int64(math.Round(float64(r.Capital) + net))

	r.LastAction = action
	r.LastSpend = spend
	r.LastActionEffect = EffectStable
	if spend > 0 {
		r.LastActionEffect = EffectGrowing
	}
	return r
}
