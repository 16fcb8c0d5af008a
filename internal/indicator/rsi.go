package indicator

import "fmt"

const DefaultRSIPeriod = 14

// RSI computes the Relative Strength Index with Wilder's smoothing. The first
// value corresponds to prices[period]; the output has len(prices)-period values
// in [0, 100].
func RSI(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: rsi period %d", ErrInvalidParams, period)
	}
	if len(prices) < period+1 {
		return nil, insufficient("rsi", period+1, len(prices))
	}
	if err := checkPrices(prices); err != nil {
		return nil, err
	}

	n := len(prices) - 1
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := range n {
		diff := prices[i+1] - prices[i]
		if diff > 0 {
			gains[i] = diff
		} else {
			losses[i] = -diff
		}
	}

	avgGain := mean(gains[:period])
	avgLoss := mean(losses[:period])

	p := float64(period)
	rsi := make([]float64, 0, n-period+1)
	rsi = append(rsi, rsiValue(avgGain, avgLoss))
	for i := period; i < n; i++ {
		avgGain = (avgGain*(p-1) + gains[i]) / p
		avgLoss = (avgLoss*(p-1) + losses[i]) / p
		rsi = append(rsi, rsiValue(avgGain, avgLoss))
	}

	return rsi, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
