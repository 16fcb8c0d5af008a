// Package indicator computes technical indicators over chronological price
// slices. Every function is pure: the input is never modified and identical
// inputs give identical outputs.
package indicator

import (
	"errors"
	"fmt"

	"github.com/gamma-omg/crypto-sim/internal/market"
)

var ErrInvalidParams = errors.New("invalid indicator parameters")

func checkPrices(prices []float64) error {
	for i, p := range prices {
		if !market.IsValidPrice(p) {
			return fmt.Errorf("%w: price %v at index %d", market.ErrInvalidData, p, i)
		}
	}

	return nil
}

func insufficient(name string, need, got int) error {
	return fmt.Errorf("%w: %s requires at least %d points, got %d", market.ErrInsufficientData, name, need, got)
}

// ema returns the exponential moving average of data, seeded with the simple
// average of the first period values. The result is aligned to data[period-1:].
func ema(data []float64, period int) []float64 {
	if len(data) < period {
		panic("not enough data to compute ema")
	}

	res := make([]float64, len(data)-period+1)
	res[0] = mean(data[:period])

	k := 2.0 / (float64(period) + 1)
	for i, val := range data[period:] {
		res[i+1] = val*k + res[i]*(1-k)
	}

	return res
}

func mean(data []float64) float64 {
	var sum float64
	for _, v := range data {
		sum += v
	}

	return sum / float64(len(data))
}
