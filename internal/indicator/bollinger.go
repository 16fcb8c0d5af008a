package indicator

import (
	"fmt"
	"math"
)

const (
	DefaultBollingerPeriod = 20
	DefaultBollingerStdDev = 2.0
)

// BollingerResult holds the bands for every trailing window of the input,
// oldest first. Upper[i] >= Middle[i] >= Lower[i].
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands computes the SMA of every trailing window of size period and
// the bands stdDev population standard deviations around it.
func BollingerBands(prices []float64, period int, stdDev float64) (res BollingerResult, err error) {
	if period <= 0 || stdDev < 0 || math.IsNaN(stdDev) || math.IsInf(stdDev, 0) {
		err = fmt.Errorf("%w: bollinger period=%d stddev=%v", ErrInvalidParams, period, stdDev)
		return
	}
	if len(prices) < period {
		err = insufficient("bollinger bands", period, len(prices))
		return
	}
	if err = checkPrices(prices); err != nil {
		return
	}

	n := len(prices) - period + 1
	res = BollingerResult{
		Upper:  make([]float64, n),
		Middle: make([]float64, n),
		Lower:  make([]float64, n),
	}

	for i := range n {
		window := prices[i : i+period]
		m := mean(window)

		var variance float64
		for _, v := range window {
			variance += (v - m) * (v - m)
		}
		dev := stdDev * math.Sqrt(variance/float64(period))

		res.Upper[i] = m + dev
		res.Middle[i] = m
		res.Lower[i] = m - dev
	}

	return
}
