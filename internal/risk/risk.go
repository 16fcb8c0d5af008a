// Package risk derives stop-loss and take-profit levels and position sizing
// guidance from a price, a risk tolerance and a volatility score.
package risk

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gamma-omg/crypto-sim/internal/market"
)

var ErrInvalidInput = errors.New("invalid risk input")

type Tolerance int

const (
	Low Tolerance = iota
	Medium
	High
)

type multipliers struct {
	stopLoss   float64
	takeProfit float64
	capital    float64
}

var toleranceMultipliers = map[Tolerance]multipliers{
	Low:    {stopLoss: 0.8, takeProfit: 2.0, capital: 0.01},
	Medium: {stopLoss: 1.0, takeProfit: 2.5, capital: 0.03},
	High:   {stopLoss: 1.5, takeProfit: 3.0, capital: 0.05},
}

func ParseTolerance(s string) (Tolerance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "medium":
		return Medium, nil
	case "high":
		return High, nil
	default:
		return 0, fmt.Errorf("%w: unknown risk tolerance %q", ErrInvalidInput, s)
	}
}

func (t Tolerance) String() string {
	switch t {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("tolerance_%d", int(t))
	}
}

func (t Tolerance) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tolerance) UnmarshalText(b []byte) error {
	v, err := ParseTolerance(string(b))
	if err != nil {
		return err
	}

	*t = v
	return nil
}

type Params struct {
	StopLossPrice   float64 `json:"stop_loss_price"`
	TakeProfitPrice float64 `json:"take_profit_price"`
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
}

// Compute maps volatilityScore in [0, 100] onto a stop-loss distance of 2-15%
// scaled by the tolerance; the take-profit distance is a tolerance-dependent
// multiple of the stop-loss distance.
func Compute(currentPrice float64, t Tolerance, volatilityScore float64) (Params, error) {
	m, ok := toleranceMultipliers[t]
	if !ok {
		return Params{}, fmt.Errorf("%w: unknown risk tolerance %d", ErrInvalidInput, int(t))
	}
	if !market.IsValidPrice(currentPrice) {
		return Params{}, fmt.Errorf("%w: price %v", ErrInvalidInput, currentPrice)
	}
	if math.IsNaN(volatilityScore) || volatilityScore < 0 || volatilityScore > 100 {
		return Params{}, fmt.Errorf("%w: volatility score %v outside [0, 100]", ErrInvalidInput, volatilityScore)
	}

	vol := 2 + (volatilityScore/100)*13
	sl := vol * m.stopLoss
	tp := sl * m.takeProfit

	return Params{
		StopLossPrice:   currentPrice * (1 - sl/100),
		TakeProfitPrice: currentPrice * (1 + tp/100),
		StopLossPct:     sl,
		TakeProfitPct:   tp,
	}, nil
}

// RecommendedRisk is the share of capital a single position should put at risk.
func RecommendedRisk(capital float64, t Tolerance) (float64, error) {
	m, ok := toleranceMultipliers[t]
	if !ok {
		return 0, fmt.Errorf("%w: unknown risk tolerance %d", ErrInvalidInput, int(t))
	}
	if capital < 0 || math.IsNaN(capital) || math.IsInf(capital, 0) {
		return 0, fmt.Errorf("%w: capital %v", ErrInvalidInput, capital)
	}

	return capital * m.capital, nil
}

// Triggered reports whether price has crossed the stop-loss or take-profit
// level. For short positions the levels are mirrored around the entry.
func (p Params) Triggered(entry, price float64, short bool) (stopLoss, takeProfit bool) {
	if entry <= 0 {
		return
	}

	change := (price/entry - 1) * 100
	if short {
		change = -change
	}

	return change <= -p.StopLossPct, change >= p.TakeProfitPct
}
