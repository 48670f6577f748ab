package game

import "time"

// Ledger is the economic state of the player's company.
type Ledger struct {
	Capital            int64    `json:"capital"`
	CapitalAtWeekStart int64    `json:"capital_at_week_start"`
	Income             int64    `json:"income"`
	MarketShare        float64  `json:"market_share"`
	Satisfaction       float64  `json:"satisfaction"`
	Employees          int      `json:"employees"`
	MarketingLevel     int      `json:"marketing_level"`
	ResearchLevel      int      `json:"research_level"`
	EfficiencyLevel    int      `json:"efficiency_level"`
	LastInvestmentCost int64    `json:"last_investment_cost"`
	LastDecisions      []string `json:"last_decisions"`
}

// Rival is an AI-controlled competitor. Strength, LastAction and
// LastActionEffect are narrative only.
type Rival struct {
	Name             string  `json:"name"`
	Capital          int64   `json:"capital"`
	MarketShare      float64 `json:"market_share"`
	Strength         string  `json:"strength"`
	LastAction       string  `json:"last_action"`
	LastActionEffect string  `json:"last_action_effect"`
	LastSpend        int64   `json:"last_spend"`
}

type WinGoal struct {
	Capital     int64   `yaml:"capital" json:"capital"`
	MarketShare float64 `yaml:"market_share" json:"market_share"`
}

type Settings struct {
	Difficulty Difficulty `json:"difficulty"`
	MaxWeeks   int        `json:"max_weeks"`
	WinGoal    WinGoal    `json:"win_goal"`
}

// Series is an append-only chart history keyed by week label ("S1", "S2"...).
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func (s *Series) Append(label string, v float64) {
	s.Labels = append(s.Labels, label)
	s.Values = append(s.Values, v)
}

type History struct {
	Revenue     Series `json:"revenue"`
	MarketShare Series `json:"market_share"`
	Volatility  Series `json:"volatility"`
}

type Game struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	CompanyName string    `json:"company_name"`
	CurrentWeek int       `json:"current_week"`
	Player      Ledger    `json:"player"`
	Rivals      []Rival   `json:"rivals"`
	Settings    Settings  `json:"settings"`
	History     History   `json:"history"`
	IsGameOver  bool      `json:"is_game_over"`
	Outcome     Outcome   `json:"outcome"`
	WinnerName  string    `json:"winner_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy so a failed operation can be discarded without
// touching the caller's record.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	out := *g
	out.Player.LastDecisions = cloneStrings(g.Player.LastDecisions)
	out.Rivals = append([]Rival(nil), g.Rivals...)
	out.History = History{
		Revenue:     cloneSeries(g.History.Revenue),
		MarketShare: cloneSeries(g.History.MarketShare),
		Volatility:  cloneSeries(g.History.Volatility),
	}
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

func cloneSeries(s Series) Series {
	return Series{
		Labels: append([]string(nil), s.Labels...),
		Values: append([]float64(nil), s.Values...),
	}
}

// DecisionLevels maps a catalog key to the number of units bought this week.
type DecisionLevels map[string]int

type InvestResult struct {
	TotalCost        int64    `json:"total_cost"`
	CapitalRemaining int64    `json:"capital_remaining"`
	Decisions        []string `json:"decisions"`
}

type WeekReport struct {
	Week       int     `json:"week"`
	Volatility float64 `json:"volatility"`
	NetProfit  int64   `json:"net_profit"`
	FixedCosts int64   `json:"fixed_costs"`
	Outcome    Outcome `json:"outcome"`
	WinnerName string  `json:"winner_name,omitempty"`
}

type RankRow struct {
	Rank        int     `json:"rank"`
	Name        string  `json:"name"`
	Capital     int64   `json:"capital"`
	MarketShare float64 `json:"market_share"`
	IsPlayer    bool    `json:"is_player"`
}

type GoalProgress struct {
	CapitalPct     float64 `json:"capital_pct"`
	MarketSharePct float64 `json:"market_share_pct"`
	WeeksRemaining int     `json:"weeks_remaining"`
}

type Dashboard struct {
	GameID             string       `json:"game_id"`
	CompanyName        string       `json:"company_name"`
	Week               int          `json:"week"`
	MaxWeeks           int          `json:"max_weeks"`
	Difficulty         Difficulty   `json:"difficulty"`
	Capital            int64        `json:"capital"`
	CapitalAtWeekStart int64        `json:"capital_at_week_start"`
	LastInvestmentCost int64        `json:"last_investment_cost"`
	WeeklyResult       int64        `json:"weekly_result"`
	Income             int64        `json:"income"`
	MarketShare        float64      `json:"market_share"`
	Satisfaction       float64      `json:"satisfaction"`
	Employees          int          `json:"employees"`
	MarketingLevel     int          `json:"marketing_level"`
	ResearchLevel      int          `json:"research_level"`
	EfficiencyLevel    int          `json:"efficiency_level"`
	LastDecisions      []string     `json:"last_decisions"`
	Ranking            []RankRow    `json:"ranking"`
	Progress           GoalProgress `json:"progress"`
	History            History      `json:"history"`
	IsGameOver         bool         `json:"is_game_over"`
	Outcome            Outcome      `json:"outcome"`
	WinnerName         string       `json:"winner_name,omitempty"`
}

type Status struct {
	GameID      string  `json:"game_id"`
	CurrentWeek int     `json:"current_week"`
	IsGameOver  bool    `json:"is_game_over"`
	Outcome     Outcome `json:"outcome"`
}

type NewGameInput struct {
	OwnerID         string
	CompanyName     string
	Difficulty      string
	StartingCapital int64
	StartingShare   float64
	MaxWeeks        int
	WinGoal         *WinGoal
}

type InvestInput struct {
	OwnerID        string
	Levels         DecisionLevels
	IdempotencyKey string
}

type AdvanceInput struct {
	OwnerID        string
	IdempotencyKey string
}
