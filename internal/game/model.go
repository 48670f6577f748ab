package game

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxDecisionLevel = 10

	StartingIncome       = int64(100_000)
	StartingSatisfaction = 50.0
	StartingEmployees    = 5

	BaseEmployeeCost = 5_000.0
	RevenueShare     = 0.70

	MinPlayerMarketShare = 0.1
	MaxPlayerMarketShare = 60.0
	MinSatisfaction      = 10.0
	MaxSatisfaction      = 100.0

	DefaultRivalCount      = 3
	MaxRivalCount          = 12
	maxCompanyNameLength   = 64
	rivalSpendThreshold    = int64(50_000)
	rivalMarketImpactBase  = 400_000.0
	rivalRevenuePerPoint   = 22_000.0
	rivalFixedCostFraction = 0.25
)

var (
	ErrInsufficientCapital  = errors.New("insufficient capital")
	ErrGameAlreadyOver      = errors.New("game is already over")
	ErrInvalidDecisionLevel = errors.New("invalid decision level")
	ErrInvalidSetup         = errors.New("invalid game setup")
	ErrGameNotFound         = errors.New("game not found")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrTxConflict           = errors.New("transaction conflict, retry")
	ErrUnauthorized         = errors.New("unauthorized")
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts "medium" as an alias of normal; empty means normal.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, nil
	case "", "normal", "medium":
		return DifficultyNormal, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return "", fmt.Errorf("%w: difficulty must be easy, normal or hard", ErrInvalidSetup)
	}
}

type Outcome string

const (
	OutcomeNone         Outcome = "none"
	OutcomeWin          Outcome = "win"
	OutcomeLoseRival    Outcome = "lose_rival"
	OutcomeLoseBankrupt Outcome = "lose_bankrupt"
	OutcomeLoseTime     Outcome = "lose_time"
)

func (o Outcome) Terminal() bool {
	return o != "" && o != OutcomeNone
}

var blockedNameFragments = []string{
	"admin",
	"fuck",
	"shit",
	"bitch",
	"nazi",
}

func validateCompanyName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return fmt.Errorf("%w: company name is required", ErrInvalidSetup)
	}
	if len(clean) > maxCompanyNameLength {
		return fmt.Errorf("%w: company name too long (max %d chars)", ErrInvalidSetup, maxCompanyNameLength)
	}
	lower := strings.ToLower(clean)
	for _, fragment := range blockedNameFragments {
		if strings.Contains(lower, fragment) {
			return fmt.Errorf("%w: company name contains blocked content", ErrInvalidSetup)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
