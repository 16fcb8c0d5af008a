package indicator

import (
	"fmt"

	"github.com/gamma-omg/crypto-sim/internal/config"
)

type MACDValue struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Snapshot is the latest value of every indicator for one price slice.
type Snapshot struct {
	RSI            float64        `json:"rsi"`
	MACD           MACDValue      `json:"macd"`
	Bollinger      BollingerValue `json:"bollinger"`
	MovingAverages MovingAverages `json:"moving_averages"`
}

// Series keeps the full indicator outputs a Snapshot was taken from.
type Series struct {
	RSI       []float64
	MACD      MACDResult
	Bollinger BollingerResult
}

// MinLength is the shortest price slice Compute accepts for cfg.
func MinLength(cfg config.Indicators) int {
	return max(cfg.RSIPeriod+1, MACDMinLength(cfg.MACD.Slow, cfg.MACD.Signal), cfg.Bollinger.Period)
}

func Compute(prices []float64, cfg config.Indicators) (Snapshot, error) {
	if need := MinLength(cfg); len(prices) < need {
		return Snapshot{}, insufficient("indicators", need, len(prices))
	}

	s, err := ComputeSeries(prices, cfg)
	if err != nil {
		return Snapshot{}, err
	}

	return s.Last(prices), nil
}

func ComputeSeries(prices []float64, cfg config.Indicators) (s Series, err error) {
	s.RSI, err = RSI(prices, cfg.RSIPeriod)
	if err != nil {
		err = fmt.Errorf("failed to calculate rsi: %w", err)
		return
	}

	s.MACD, err = MACD(prices, cfg.MACD.Fast, cfg.MACD.Slow, cfg.MACD.Signal)
	if err != nil {
		err = fmt.Errorf("failed to calculate macd: %w", err)
		return
	}

	s.Bollinger, err = BollingerBands(prices, cfg.Bollinger.Period, cfg.Bollinger.StdDev)
	if err != nil {
		err = fmt.Errorf("failed to calculate bollinger bands: %w", err)
		return
	}

	return
}

// Last takes the most recent value of every series. prices must be the slice
// the series were computed from.
func (s Series) Last(prices []float64) Snapshot {
	last := func(v []float64) float64 { return v[len(v)-1] }

	return Snapshot{
		RSI: last(s.RSI),
		MACD: MACDValue{
			Line:      last(s.MACD.Line),
			Signal:    last(s.MACD.Signal),
			Histogram: last(s.MACD.Histogram),
		},
		Bollinger: BollingerValue{
			Upper:  last(s.Bollinger.Upper),
			Middle: last(s.Bollinger.Middle),
			Lower:  last(s.Bollinger.Lower),
		},
		MovingAverages: ComputeMovingAverages(prices),
	}
}
