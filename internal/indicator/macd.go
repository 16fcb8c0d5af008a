package indicator

import "fmt"

const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACDResult holds equally long series aligned to the tail of the input:
// Histogram[i] == Line[i] - Signal[i].
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the MACD line (EMA fast - EMA slow), its signal EMA and the
// histogram. At least slow prices are required. The signal EMA is seeded from
// the first signal values of the line, so inputs shorter than
// MACDMinLength(slow, signal) yield empty series without an error.
func MACD(prices []float64, fast, slow, signal int) (res MACDResult, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		err = fmt.Errorf("%w: macd fast=%d slow=%d signal=%d", ErrInvalidParams, fast, slow, signal)
		return
	}

	if len(prices) < slow {
		err = insufficient("macd", slow, len(prices))
		return
	}
	if err = checkPrices(prices); err != nil {
		return
	}

	fastEma := ema(prices, fast)[slow-fast:]
	slowEma := ema(prices, slow)

	line := make([]float64, len(slowEma))
	for i := range line {
		line[i] = fastEma[i] - slowEma[i]
	}

	if len(line) < signal {
		res = MACDResult{Line: []float64{}, Signal: []float64{}, Histogram: []float64{}}
		return
	}

	res.Signal = ema(line, signal)
	res.Line = line[signal-1:]
	res.Histogram = make([]float64, len(res.Signal))
	for i := range res.Histogram {
		res.Histogram[i] = res.Line[i] - res.Signal[i]
	}

	return
}

// MACDMinLength is the shortest price slice for which MACD yields a signal value.
func MACDMinLength(slow, signal int) int {
	return slow + signal - 1
}
