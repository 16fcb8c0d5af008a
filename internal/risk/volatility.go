package risk

import (
	"fmt"
	"math"

	"github.com/gamma-omg/crypto-sim/internal/market"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
)

// VolatilityScore rates the last daily move of s on [0, 100]: twice the
// absolute percentage change between the last two points, capped at 100.
func VolatilityScore(s market.Series) (float64, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: volatility requires 2 points, got %d", market.ErrInsufficientData, len(s))
	}

	prev, last := s[len(s)-2].Value, s[len(s)-1].Value
	change := (last - prev) / prev * 100
	return math.Min(math.Abs(change)*2, 100), nil
}

// Classify buckets a 0-100 score.
func Classify(score float64) Level {
	switch {
	case score < 30:
		return LevelLow
	case score < 70:
		return LevelModerate
	default:
		return LevelHigh
	}
}
