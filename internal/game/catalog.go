package game

import (
	"fmt"
	"sort"
	"strings"
)

type Effect int

const (
	EffectMarketing Effect = iota + 1
	EffectResearch
	EffectEfficiency
	EffectSatisfaction
)

func (e Effect) String() string {
	switch e {
	case EffectMarketing:
		return "marketing_level"
	case EffectResearch:
		return "research_level"
	case EffectEfficiency:
		return "efficiency_level"
	case EffectSatisfaction:
		return "satisfaction"
	default:
		return "unknown"
	}
}

func (e Effect) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Effect) UnmarshalText(b []byte) error {
	for _, c := range []Effect{EffectMarketing, EffectResearch, EffectEfficiency, EffectSatisfaction} {
		if c.String() == string(b) {
			*e = c
			return nil
		}
	}
	return fmt.Errorf("unknown effect %q", string(b))
}

// Category is one purchasable decision. PerLevel is the KPI delta per unit.
type Category struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	UnitCost    int64   `json:"unit_cost"`
	Effect      Effect  `json:"effect"`
	PerLevel    float64 `json:"per_level"`
	Description string  `json:"description"`
}

var catalog = [...]Category{
	{Key: "id_product", Name: "Research & Development", UnitCost: 150_000, Effect: EffectResearch, PerLevel: 1,
		Description: "Improves product quality and protects income from quality drops."},
	{Key: "marketing_online", Name: "Digital Marketing", UnitCost: 100_000, Effect: EffectMarketing, PerLevel: 1,
		Description: "Social and search campaigns. Raises market share and weekly income."},
	{Key: "staff_sales", Name: "Sales Staff Training", UnitCost: 50_000, Effect: EffectSatisfaction, PerLevel: 1.5,
		Description: "Trains the sales and support team. Immediate satisfaction boost."},
	{Key: "id_tech", Name: "Capacity Expansion", UnitCost: 200_000, Effect: EffectResearch, PerLevel: 1,
		Description: "Infrastructure that raises the income ceiling for later weeks."},
	{Key: "eff_process", Name: "Cost Optimization", UnitCost: 30_000, Effect: EffectEfficiency, PerLevel: 1,
		Description: "Process automation. Permanently lowers fixed costs."},
	{Key: "marketing_tv", Name: "Brand Campaign", UnitCost: 80_000, Effect: EffectMarketing, PerLevel: 1,
		Description: "Traditional media advertising that builds brand recognition."},
	{Key: "eff_training", Name: "Process Innovation", UnitCost: 120_000, Effect: EffectEfficiency, PerLevel: 1,
		Description: "New production methods that cut operating costs."},
	{Key: "staff_support", Name: "Key Hiring", UnitCost: 180_000, Effect: EffectSatisfaction, PerLevel: 1.5,
		Description: "Specialised talent that lifts service quality."},
	{Key: "ad_segment", Name: "Targeted Advertising", UnitCost: 90_000, Effect: EffectMarketing, PerLevel: 1,
		Description: "Campaigns aimed at the core segment. High share return."},
	{Key: "infra_maintenance", Name: "Infrastructure Maintenance", UnitCost: 70_000, Effect: EffectSatisfaction, PerLevel: 1.5,
		Description: "Preventive maintenance. Fewer failures and better perceived quality."},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, c := range catalog {
		idx[c.Key] = i
	}
	return idx
}()

// Catalog returns a copy of the decision table in display order.
func Catalog() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog[:])
	return out
}

func CategoryByKey(key string) (Category, bool) {
	i, ok := catalogIndex[key]
	if !ok {
		return Category{}, false
	}
	return catalog[i], true
}

// Validate rejects unknown keys and levels outside 0..MaxDecisionLevel.
func (d DecisionLevels) Validate() error {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := catalogIndex[k]; !ok {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidDecisionLevel, k)
		}
		if lvl := d[k]; lvl < 0 || lvl > MaxDecisionLevel {
			return fmt.Errorf("%w: %s level %d outside 0..%d", ErrInvalidDecisionLevel, k, lvl, MaxDecisionLevel)
		}
	}
	return nil
}

// TotalCost sums unit cost times level. Unknown keys contribute nothing.
func (d DecisionLevels) TotalCost() int64 {
	var total int64
	for k, lvl := range d {
		if c, ok := CategoryByKey(k); ok && lvl > 0 {
			total += c.UnitCost * int64(lvl)
		}
	}
	return total
}

func decisionLabel(key string, level int) string {
	return fmt.Sprintf("%s (x%d)", strings.Replace(key, "_", " ", 1), level)
}
